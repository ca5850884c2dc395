package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinWaitingListRequiresFullSession(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 2))

	_, err := svc.JoinWaitingList(ctx, uuid.New(), sessID)
	assert.ErrorIs(t, err, ErrSessionNotFull)
}

func TestJoinWaitingListFIFOPositions(t *testing.T) {
	svc, store, notifier, _ := newTestService()
	ctx := context.Background()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 0))

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, u := range users {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		pos, err := svc.JoinWaitingList(ctx, u, sessID)
		require.NoError(t, err)
		assert.Equal(t, i+1, pos)
	}
	assert.Len(t, store.waitingEntries(sessID), 3)
	assert.Equal(t, []string{"Joined waiting list"}, notifier.titlesFor(users[2]))
}

func TestJoinWaitingListRejectsDuplicatesAndHolders(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	// The user holds a place in the now-full session.
	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 1))
	store.addBonus(singleBonus(user, 1))
	_, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)

	_, err = svc.JoinWaitingList(ctx, user, sessID)
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	other := uuid.New()
	_, err = svc.JoinWaitingList(ctx, other, sessID)
	require.NoError(t, err)
	_, err = svc.JoinWaitingList(ctx, other, sessID)
	assert.ErrorIs(t, err, ErrAlreadyInWaitingList)
}

func TestJoinWaitingListTimeConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	bookedID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	store.addBonus(singleBonus(user, 1))
	_, err := svc.ReserveActivitySession(ctx, user, bookedID)
	require.NoError(t, err)

	fullID := store.addSession(activitySession(2, date, "10:30", "11:30", 1, 0))
	_, err = svc.JoinWaitingList(ctx, user, fullID)
	assert.ErrorIs(t, err, ErrConflictingTime)
}

func TestLeaveWaitingList(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 0))

	err := svc.LeaveWaitingList(ctx, user, sessID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.JoinWaitingList(ctx, user, sessID)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveWaitingList(ctx, user, sessID))
	assert.Empty(t, store.waitingEntries(sessID))
}

func TestCancelOffersFreedPlaceToHead(t *testing.T) {
	svc, store, notifier, sched := newTestService()
	ctx := context.Background()
	holder := uuid.New()
	waiter := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 1))
	store.addBonus(singleBonus(holder, 1))

	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC) }
	r, err := svc.ReserveActivitySession(ctx, holder, sessID)
	require.NoError(t, err)

	_, err = svc.JoinWaitingList(ctx, waiter, sessID)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, holder, r.ID))

	entries := store.waitingEntries(sessID)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].NotifiedAt, "head of queue got the offer")
	assert.Equal(t, waiter, entries[0].UserID)
	assert.Contains(t, notifier.titlesFor(waiter), "A place has been freed!")
	assert.Equal(t, []uint64{sessID}, sched.calls(), "timeout scheduled after commit")
	assert.Equal(t, 1, store.session(sessID).FreePlaces, "place stays open until the waiter books")
}

func TestCancelWithEmptyQueueSchedulesNothing(t *testing.T) {
	svc, store, _, sched := newTestService()
	ctx := context.Background()
	holder := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 1))
	store.addBonus(singleBonus(holder, 1))

	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC) }
	r, err := svc.ReserveActivitySession(ctx, holder, sessID)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, holder, r.ID))
	assert.Empty(t, sched.calls())
}

func TestOnTimeoutCheckExpiresAndCascades(t *testing.T) {
	svc, store, notifier, sched := newTestService()
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 0))

	joinAt := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return joinAt }
	_, err := svc.JoinWaitingList(ctx, first, sessID)
	require.NoError(t, err)
	svc.now = func() time.Time { return joinAt.Add(time.Minute) }
	_, err = svc.JoinWaitingList(ctx, second, sessID)
	require.NoError(t, err)

	// A place frees up out of band and the head is notified.
	notifyAt := joinAt.Add(time.Hour)
	svc.now = func() time.Time { return notifyAt }
	err = svc.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionByID(ctx, sessID)
		if err != nil {
			return err
		}
		_, err = svc.offerFreedPlace(ctx, tx, sess)
		return err
	})
	require.NoError(t, err)

	// Window still open: the check is a no-op.
	svc.now = func() time.Time { return notifyAt.Add(5 * time.Minute) }
	require.NoError(t, svc.OnTimeoutCheck(ctx, sessID))
	entries := store.waitingEntries(sessID)
	require.Len(t, entries, 2)

	// Window elapsed: the head expires and the offer cascades.
	svc.now = func() time.Time { return notifyAt.Add(10*time.Minute + time.Second) }
	require.NoError(t, svc.OnTimeoutCheck(ctx, sessID))

	entries = store.waitingEntries(sessID)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].UserID)
	require.NotNil(t, entries[0].NotifiedAt)
	assert.Contains(t, notifier.titlesFor(first), "Booking offer expired")
	assert.Contains(t, notifier.titlesFor(second), "A place has been freed!")
	assert.Equal(t, []uint64{sessID}, sched.calls(), "cascade step gets its own window")

	// Duplicate delivery after the cascade: the fresh offer is still
	// within its window, so nothing changes.
	require.NoError(t, svc.OnTimeoutCheck(ctx, sessID))
	assert.Len(t, store.waitingEntries(sessID), 1)
	assert.Equal(t, []uint64{sessID}, sched.calls())
}

func TestOnTimeoutCheckNoLiveOffer(t *testing.T) {
	svc, store, notifier, sched := newTestService()
	ctx := context.Background()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 0))
	_, err := svc.JoinWaitingList(ctx, uuid.New(), sessID)
	require.NoError(t, err)

	before := len(notifier.sent())
	require.NoError(t, svc.OnTimeoutCheck(ctx, sessID))
	assert.Len(t, store.waitingEntries(sessID), 1, "un-notified entries are untouched")
	assert.Len(t, notifier.sent(), before)
	assert.Empty(t, sched.calls())
}

func TestOnTimeoutCheckCleansUpSelfServedEntry(t *testing.T) {
	svc, store, notifier, _ := newTestService()
	ctx := context.Background()
	waiter := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 2, 0))

	joinAt := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return joinAt }
	_, err := svc.JoinWaitingList(ctx, waiter, sessID)
	require.NoError(t, err)

	// The waiter is offered a place...
	err = svc.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionByID(ctx, sessID)
		if err != nil {
			return err
		}
		if err := tx.Release(ctx, sess.ID); err != nil {
			return err
		}
		sess.FreePlaces++
		_, err = svc.offerFreedPlace(ctx, tx, sess)
		return err
	})
	require.NoError(t, err)

	// ...and books it through the normal path before the window ends.
	store.addBonus(singleBonus(waiter, 1))
	svc.now = func() time.Time { return joinAt.Add(2 * time.Minute) }
	_, err = svc.ReserveActivitySession(ctx, waiter, sessID)
	require.NoError(t, err)
	assert.Empty(t, store.waitingEntries(sessID), "booking removes the waiting entry")

	// A late timeout callback finds nothing to do.
	svc.now = func() time.Time { return joinAt.Add(30 * time.Minute) }
	require.NoError(t, svc.OnTimeoutCheck(ctx, sessID))
	assert.NotContains(t, notifier.titlesFor(waiter), "Booking offer expired")
}

func TestReserveRemovesOwnWaitingEntry(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 2, 0))
	_, err := svc.JoinWaitingList(ctx, user, sessID)
	require.NoError(t, err)

	// A place frees up; the user books directly.
	require.NoError(t, svc.store.ExecTx(ctx, func(tx Tx) error {
		return tx.Release(ctx, sessID)
	}))
	store.addBonus(singleBonus(user, 1))
	_, err = svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)
	assert.Empty(t, store.waitingEntries(sessID))
}
