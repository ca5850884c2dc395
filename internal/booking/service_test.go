package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgarsanz/unisport/internal/model"
)

func activitySession(activityID uint64, date time.Time, start, end string, capacity, free int) model.Session {
	return model.Session{
		Target:     model.ActivityTarget(activityID),
		Capacity:   capacity,
		FreePlaces: free,
		Date:       date,
		StartTime:  model.MustTimeOfDay(start),
		EndTime:    model.MustTimeOfDay(end),
	}
}

func facilitySession(facilityID uint64, date time.Time, start, end string, free int) model.Session {
	return model.Session{
		Target:     model.FacilityTarget(facilityID),
		Capacity:   1,
		FreePlaces: free,
		Date:       date,
		StartTime:  model.MustTimeOfDay(start),
		EndTime:    model.MustTimeOfDay(end),
	}
}

func singleBonus(userID uuid.UUID, activityID uint64) model.ProductBonus {
	return model.ProductBonus{
		UserID:      userID,
		ActivityID:  activityID,
		Kind:        model.BonusSingle,
		Available:   true,
		PurchasedAt: time.Now().UTC(),
	}
}

func semesterBonus(userID uuid.UUID, activityID uint64, begin, end time.Time) model.ProductBonus {
	return model.ProductBonus{
		UserID:      userID,
		ActivityID:  activityID,
		Kind:        model.BonusSemester,
		DateBegin:   &begin,
		DateEnd:     &end,
		PurchasedAt: time.Now().UTC(),
	}
}

func TestReserveActivitySessionConsumesSingleBonus(t *testing.T) {
	svc, store, notifier, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 2, 2))
	bonusID := store.addBonus(singleBonus(user, 1))

	r, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, r.BonusID)
	assert.Equal(t, bonusID, *r.BonusID)

	assert.Equal(t, 1, store.session(sessID).FreePlaces)
	assert.False(t, store.bonus(bonusID).Available, "single-use bonus consumed")
	assert.Equal(t, []string{"Reservation confirmed"}, notifier.titlesFor(user))
}

func TestReserveActivitySessionPeriodBonusNotConsumed(t *testing.T) {
	svc, store, _, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 2, 2))
	bonusID := store.addBonus(semesterBonus(user, 1, utcDate(2026, time.January, 1), utcDate(2026, time.June, 30)))

	r, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)
	assert.Nil(t, r.BonusID, "period bonuses are time-boxed, never consumed")
	assert.True(t, store.bonus(bonusID).DateBegin != nil)
}

func TestReserveActivitySessionNoEntitlement(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 2, 2))
	// A bonus for another activity does not help.
	store.addBonus(singleBonus(user, 99))
	// Neither does an expired semester bonus.
	store.addBonus(semesterBonus(user, 1, utcDate(2025, time.January, 1), utcDate(2025, time.June, 30)))

	_, err := svc.ReserveActivitySession(ctx, user, sessID)
	assert.ErrorIs(t, err, ErrNoValidEntitlement)
	assert.Equal(t, 2, store.session(sessID).FreePlaces, "nothing decremented")
	assert.Equal(t, 0, store.reservationCount())
}

func TestReserveActivitySessionDuplicate(t *testing.T) {
	svc, store, _, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	store.addBonus(semesterBonus(user, 1, utcDate(2026, time.January, 1), utcDate(2026, time.June, 30)))

	_, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)

	_, err = svc.ReserveActivitySession(ctx, user, sessID)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
	assert.Equal(t, 4, store.session(sessID).FreePlaces, "second attempt left capacity untouched")
}

func TestReserveActivitySessionTimeConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	firstID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	overlapID := store.addSession(activitySession(2, date, "10:30", "11:30", 5, 5))
	store.addBonus(semesterBonus(user, 1, utcDate(2026, time.January, 1), utcDate(2026, time.June, 30)))
	store.addBonus(semesterBonus(user, 2, utcDate(2026, time.January, 1), utcDate(2026, time.June, 30)))

	_, err := svc.ReserveActivitySession(ctx, user, firstID)
	require.NoError(t, err)

	_, err = svc.ReserveActivitySession(ctx, user, overlapID)
	assert.ErrorIs(t, err, ErrConflictingTime)

	// A back-to-back session the same day is fine.
	adjacentID := store.addSession(activitySession(2, date, "11:00", "12:00", 5, 5))
	_, err = svc.ReserveActivitySession(ctx, user, adjacentID)
	assert.NoError(t, err)
}

func TestReserveActivitySessionWrongTarget(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(facilitySession(7, date, "10:00", "11:00", 1))

	_, err := svc.ReserveActivitySession(ctx, uuid.New(), sessID)
	assert.ErrorIs(t, err, ErrWrongTarget)
}

func TestReserveActivitySessionCapacityRace(t *testing.T) {
	svc, store, _, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	date := utcDate(2026, time.March, 2)
	begin := utcDate(2026, time.January, 1)
	end := utcDate(2026, time.June, 30)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 1, 1))

	const contenders = 8
	users := make([]uuid.UUID, contenders)
	for i := range users {
		users[i] = uuid.New()
		store.addBonus(semesterBonus(users[i], 1, begin, end))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		lostFull int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, err := svc.ReserveActivitySession(ctx, u, sessID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case err == ErrSessionFull:
				lostFull++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, won, "exactly one contender wins the last place")
	assert.Equal(t, contenders-1, lostFull)
	assert.Equal(t, 0, store.session(sessID).FreePlaces)
	assert.Equal(t, 1, store.reservationCount())
}

func TestCancelRespectsCutoff(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2) // session starts 10:00 that day

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	store.addBonus(semesterBonus(user, 1, utcDate(2026, time.January, 1), utcDate(2026, time.June, 30)))

	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	r, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)

	// 1h59m before start: too late.
	svc.now = func() time.Time { return time.Date(2026, time.March, 2, 8, 1, 0, 0, time.UTC) }
	err = svc.Cancel(ctx, user, r.ID)
	assert.ErrorIs(t, err, ErrCancellationWindowExpired)
	assert.Equal(t, 4, store.session(sessID).FreePlaces, "failed cancel must not release")

	// 2h1s before start: still allowed.
	svc.now = func() time.Time { return time.Date(2026, time.March, 2, 7, 59, 59, 0, time.UTC) }
	err = svc.Cancel(ctx, user, r.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5, store.session(sessID).FreePlaces)
	assert.Equal(t, 0, store.reservationCount())
}

func TestCancelRestoresSingleBonus(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	bonusID := store.addBonus(singleBonus(user, 1))

	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	r, err := svc.ReserveActivitySession(ctx, user, sessID)
	require.NoError(t, err)
	require.False(t, store.bonus(bonusID).Available)

	require.NoError(t, svc.Cancel(ctx, user, r.ID))
	assert.True(t, store.bonus(bonusID).Available, "cancellation returns the consumed bonus")
}

func TestCancelForeignReservation(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	date := utcDate(2026, time.March, 2)

	sessID := store.addSession(activitySession(1, date, "10:00", "11:00", 5, 5))
	store.addBonus(singleBonus(owner, 1))

	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	r, err := svc.ReserveActivitySession(ctx, owner, sessID)
	require.NoError(t, err)

	err = svc.Cancel(ctx, uuid.New(), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, store.reservationCount())
}

func TestCancelMissingReservation(t *testing.T) {
	svc, _, _, _ := newTestService()
	err := svc.Cancel(context.Background(), uuid.New(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveFacilityCart(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 7)

	firstID := store.addSession(facilitySession(5, date, "10:00", "11:00", 1))
	secondID := store.addSession(facilitySession(5, date, "11:00", "12:00", 1))

	cart := Cart{
		{FacilityID: 5, Date: date, Start: model.MustTimeOfDay("10:00"), End: model.MustTimeOfDay("11:00")},
		{FacilityID: 5, Date: date, Start: model.MustTimeOfDay("11:00"), End: model.MustTimeOfDay("12:00")},
	}
	made, err := svc.ReserveFacilityCart(ctx, user, cart)
	require.NoError(t, err)
	require.Len(t, made, 2)
	assert.Equal(t, 0, store.session(firstID).FreePlaces)
	assert.Equal(t, 0, store.session(secondID).FreePlaces)
	for _, r := range made {
		assert.Nil(t, r.BonusID, "facility rentals consume no entitlement")
	}
}

func TestReserveFacilityCartAllOrNothing(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 7)

	openID := store.addSession(facilitySession(5, date, "10:00", "11:00", 1))
	store.addSession(facilitySession(5, date, "11:00", "12:00", 0)) // already taken

	cart := Cart{
		{FacilityID: 5, Date: date, Start: model.MustTimeOfDay("10:00"), End: model.MustTimeOfDay("11:00")},
		{FacilityID: 5, Date: date, Start: model.MustTimeOfDay("11:00"), End: model.MustTimeOfDay("12:00")},
	}
	_, err := svc.ReserveFacilityCart(ctx, user, cart)
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Equal(t, 1, store.session(openID).FreePlaces, "losing one slot rolls back the whole cart")
	assert.Equal(t, 0, store.reservationCount())
}

func TestReserveFacilityCartValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	user := uuid.New()
	date := utcDate(2026, time.March, 7)

	_, err := svc.ReserveFacilityCart(ctx, user, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	overlapping := Cart{
		{FacilityID: 5, Date: date, Start: model.MustTimeOfDay("10:00"), End: model.MustTimeOfDay("11:00")},
		{FacilityID: 6, Date: date, Start: model.MustTimeOfDay("10:30"), End: model.MustTimeOfDay("11:30")},
	}
	_, err = svc.ReserveFacilityCart(ctx, user, overlapping)
	assert.ErrorIs(t, err, ErrConflictingTime)
}

func TestGrantBonus(t *testing.T) {
	svc, store, notifier, _ := newTestService()
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Member: true}
	def := model.Bonus{ID: 9, ActivityID: 1, Kind: model.BonusSingle, PriceCents: 1000}

	pb, err := svc.GrantBonus(ctx, user, def, utcDate(2026, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, uint32(900), pb.PricePaidCents, "members pay 10% less")
	assert.True(t, store.bonus(pb.ID).Available)
	assert.Equal(t, []string{"Bonus purchased"}, notifier.titlesFor(user.ID))
}
