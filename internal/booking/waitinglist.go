package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// JoinWaitingList queues the user for a full session. The join is
// rejected when the session still has open capacity, when the user
// already holds a reservation or an entry for it, or when its time
// conflicts with another reservation of the user that day. The
// returned position is 1-based FIFO order by join date, with the
// auto-increment ID as the deterministic tiebreak.
func (s *Service) JoinWaitingList(ctx context.Context, userID uuid.UUID, sessionID uint64) (int, error) {
	var (
		position int
		notes    []note
	)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsFull() {
			return ErrSessionNotFull
		}
		reserved, err := tx.HasReservation(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if reserved {
			return ErrAlreadyReserved
		}
		queued, err := tx.HasWaitingEntry(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if queued {
			return ErrAlreadyInWaitingList
		}
		slots, err := tx.UserSlotsOn(ctx, userID, sess.Date)
		if err != nil {
			return err
		}
		if Overlaps(slots, sess.Date, sess.StartTime, sess.EndTime) {
			return ErrConflictingTime
		}
		entry := &model.WaitingListEntry{
			UserID:    userID,
			SessionID: sessionID,
			JoinDate:  s.now(),
		}
		if err := tx.CreateWaitingEntry(ctx, entry); err != nil {
			return err
		}
		ahead, err := tx.CountEarlierEntries(ctx, sessionID, entry.JoinDate, entry.ID)
		if err != nil {
			return err
		}
		position = ahead + 1
		notes = append(notes, note{
			userID: userID,
			title:  "Joined waiting list",
			content: fmt.Sprintf("You are number %d in the waiting list for %s on %s.",
				position, sess.StartTime, sess.Date.Format("02/01/2006")),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.flush(ctx, notes)
	return position, nil
}

// LeaveWaitingList removes the user's entry. Leaving frees nothing,
// so it never promotes anyone else; a pending offer held by the
// leaving user simply expires into the void and the next timeout
// check finds no live notified entry.
func (s *Service) LeaveWaitingList(ctx context.Context, userID uuid.UUID, sessionID uint64) error {
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		removed, err := tx.DeleteWaitingEntry(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, userID, "Left waiting list", "You were removed from the waiting list.")
	return nil
}

// offerFreedPlace promotes the earliest un-notified entry of the
// session, stamping notified_at inside the caller's transaction. It
// returns the notification to deliver after commit, or nil when the
// queue holds nobody to promote. The caller is responsible for
// scheduling the timeout check once the transaction commits.
func (s *Service) offerFreedPlace(ctx context.Context, tx Tx, sess *model.Session) (*note, error) {
	entry, err := tx.FirstUnnotified(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if err := tx.MarkNotified(ctx, entry.ID, s.now()); err != nil {
		return nil, err
	}
	mins := int(s.offerWindow.Minutes())
	return &note{
		userID: entry.UserID,
		title:  "A place has been freed!",
		content: fmt.Sprintf("A place opened up for %s on %s. You have %d minutes to book it.",
			sess.StartTime, sess.Date.Format("02/01/2006"), mins),
	}, nil
}

// OnTimeoutCheck is invoked by the delayed-task scheduler D minutes
// after an offer was extended. It is idempotent and tolerates
// duplicate or late deliveries: state is re-checked, never trusted
// from the callback. When the offer genuinely expired the entry is
// dropped and the same promotion logic runs for the next entry in
// line, each cascade step getting its own fresh window.
func (s *Service) OnTimeoutCheck(ctx context.Context, sessionID uint64) error {
	var (
		notes   []note
		offered bool
	)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		cur, err := tx.CurrentNotified(ctx, sessionID)
		if err != nil {
			return err
		}
		if cur == nil {
			// No live offer: the user acted, left, or a duplicate
			// delivery already resolved this check.
			return nil
		}
		if !s.now().After(cur.NotifiedAt.Add(s.offerWindow)) {
			// A fresher offer is still within its window; this is a
			// late or duplicate callback for an older one.
			return nil
		}
		reserved, err := tx.HasReservation(ctx, cur.UserID, sessionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteWaitingEntryByID(ctx, cur.ID); err != nil {
			return err
		}
		if reserved {
			// The user booked through the normal path and the stale
			// entry just needed cleanup; nobody else lost a place.
			return nil
		}
		notes = append(notes, note{
			userID: cur.UserID,
			title:  "Booking offer expired",
			content: fmt.Sprintf("You did not confirm your place for %s on %s in time.",
				sess.StartTime, sess.Date.Format("02/01/2006")),
		})
		offerNote, err := s.offerFreedPlace(ctx, tx, sess)
		if err != nil {
			return err
		}
		if offerNote != nil {
			notes = append(notes, *offerNote)
			offered = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.flush(ctx, notes)
	if offered {
		s.scheduleTimeout(ctx, sessionID)
	}
	return nil
}
