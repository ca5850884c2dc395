package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// CancelCutoff is the minimum lead time before a session's start at
// which a reservation may still be cancelled.
const CancelCutoff = 2 * time.Hour

// Service is the booking engine facade. All operations are explicit
// commands returning a result or a sentinel error; persistence,
// notification delivery and the delayed-task scheduler are injected.
type Service struct {
	store       Store
	notifier    Notifier
	scheduler   TimeoutScheduler
	offerWindow time.Duration

	// now is replaceable in tests; production uses UTC wall time.
	now func() time.Time
}

// NewService constructs the engine. offerWindow is the duration D a
// notified waiting-list user has to act before the offer cascades.
func NewService(store Store, notifier Notifier, scheduler TimeoutScheduler, offerWindow time.Duration) *Service {
	if store == nil || notifier == nil || scheduler == nil {
		panic("nil collaborator passed to booking.NewService")
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		scheduler:   scheduler,
		offerWindow: offerWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// note is a notification collected inside a transaction and delivered
// only after the transaction commits, so a rollback never produces
// user-visible messages.
type note struct {
	userID  uuid.UUID
	title   string
	content string
}

func (s *Service) flush(ctx context.Context, notes []note) {
	for _, n := range notes {
		s.notifier.Notify(ctx, n.userID, n.title, n.content)
	}
}

// ReserveActivitySession books one place in an activity session for
// the user. Checks run in order: time conflict against the user's
// other reservations that day, entitlement validity, duplicate
// reservation, then the atomic capacity decrement. A consumed
// single-use bonus is linked on the reservation so cancellation can
// restore it. If the user held a waiting-list entry for this session
// it is removed; they no longer need the offer.
func (s *Service) ReserveActivitySession(ctx context.Context, userID uuid.UUID, sessionID uint64) (*model.Reservation, error) {
	var (
		res   *model.Reservation
		notes []note
	)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		sess, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		activityID, ok := sess.Target.ActivityID()
		if !ok {
			return ErrWrongTarget
		}
		slots, err := tx.UserSlotsOn(ctx, userID, sess.Date)
		if err != nil {
			return err
		}
		// The session being booked is excluded from the conflict scan
		// so an exact duplicate surfaces as ErrAlreadyReserved below.
		if Overlaps(excludeSession(slots, sessionID), sess.Date, sess.StartTime, sess.EndTime) {
			return ErrConflictingTime
		}
		bonuses, err := tx.BonusesForActivity(ctx, userID, activityID)
		if err != nil {
			return err
		}
		bonus := firstValidBonus(bonuses, s.now())
		if bonus == nil {
			return ErrNoValidEntitlement
		}
		dup, err := tx.HasReservation(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if dup {
			return ErrAlreadyReserved
		}
		got, err := tx.TryReserve(ctx, sessionID)
		if err != nil {
			return err
		}
		if !got {
			return ErrSessionFull
		}
		var bonusRef *uint64
		if bonus.Kind == model.BonusSingle {
			if err := tx.SetBonusAvailability(ctx, bonus.ID, false); err != nil {
				return err
			}
			id := bonus.ID
			bonusRef = &id
		}
		res = &model.Reservation{UserID: userID, SessionID: sessionID, BonusID: bonusRef}
		if err := tx.CreateReservation(ctx, res); err != nil {
			return err
		}
		if _, err := tx.DeleteWaitingEntry(ctx, userID, sessionID); err != nil {
			return err
		}
		notes = append(notes, note{
			userID: userID,
			title:  "Reservation confirmed",
			content: fmt.Sprintf("Your place for %s on %s is booked.",
				sess.StartTime, sess.Date.Format("02/01/2006")),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, notes)
	return res, nil
}

// ReserveFacilityCart books every slot of a facility cart in one
// transaction: either every slot commits or none does, so a capacity
// race on the last slot cannot leave a half-booked cart. The cart is
// validated for internal overlaps and against the user's existing
// reservations before any mutation. Facility rentals consume no
// entitlement.
func (s *Service) ReserveFacilityCart(ctx context.Context, userID uuid.UUID, cart Cart) ([]*model.Reservation, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	if AnyPairwiseOverlap(cart) {
		return nil, ErrConflictingTime
	}
	var (
		made  []*model.Reservation
		notes []note
	)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		for _, slot := range cart {
			slots, err := tx.UserSlotsOn(ctx, userID, slot.Date)
			if err != nil {
				return err
			}
			if Overlaps(slots, slot.Date, slot.Start, slot.End) {
				return ErrConflictingTime
			}
			sess, err := tx.FacilitySessionAt(ctx, slot.FacilityID, slot.Date, slot.Start, slot.End)
			if err != nil {
				return err
			}
			got, err := tx.TryReserve(ctx, sess.ID)
			if err != nil {
				return err
			}
			if !got {
				return ErrSessionFull
			}
			r := &model.Reservation{UserID: userID, SessionID: sess.ID}
			if err := tx.CreateReservation(ctx, r); err != nil {
				return err
			}
			if _, err := tx.DeleteWaitingEntry(ctx, userID, sess.ID); err != nil {
				return err
			}
			made = append(made, r)
			notes = append(notes, note{
				userID: userID,
				title:  "Reservation confirmed",
				content: fmt.Sprintf("Facility booked for %s-%s on %s.",
					slot.Start, slot.End, slot.Date.Format("02/01/2006")),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, notes)
	return made, nil
}

// Cancel removes a reservation owned by the user. It fails with
// ErrCancellationWindowExpired when less than CancelCutoff remains
// before the session starts, without mutating anything. On success
// the place is released, a consumed single-use bonus is restored, the
// row is hard-deleted, and the freed place is offered to the waiting
// list head — all inside one transaction. The offer timeout is
// scheduled after commit.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID, reservationID uint64) error {
	var (
		notes     []note
		offered   bool
		sessionID uint64
	)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		r, err := tx.ReservationByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return ErrForbidden
		}
		sess, err := tx.SessionByID(ctx, r.SessionID)
		if err != nil {
			return err
		}
		if sess.StartsAt().Sub(s.now()) < CancelCutoff {
			return ErrCancellationWindowExpired
		}
		sessionID = sess.ID
		if err := tx.Release(ctx, sess.ID); err != nil {
			return err
		}
		if r.BonusID != nil {
			if err := tx.SetBonusAvailability(ctx, *r.BonusID, true); err != nil {
				return err
			}
		}
		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}
		notes = append(notes, note{
			userID: userID,
			title:  "Reservation cancelled",
			content: fmt.Sprintf("Your reservation for %s on %s was cancelled.",
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

// scheduleTimeout registers the D-minute offer check. Scheduling
// failures are logged, not returned: the booking already committed and
// a periodic sweep or the next cancellation will re-drive the queue.
func (s *Service) scheduleTimeout(ctx context.Context, sessionID uint64) {
	if err := s.scheduler.Schedule(ctx, sessionID, s.offerWindow); err != nil {
		log.Printf("booking: schedule timeout for session %d failed: %v", sessionID, err)
	}
}

// GrantBonus creates the entitlement for a confirmed bonus purchase.
// It is invoked by the payment confirmation signal, never directly by
// user requests.
func (s *Service) GrantBonus(ctx context.Context, user model.User, def model.Bonus, purchasedAt time.Time) (*model.ProductBonus, error) {
	pb := NewProductBonus(user.ID, def, user.Member, purchasedAt)
	err := s.store.ExecTx(ctx, func(tx Tx) error {
		return tx.CreateProductBonus(ctx, &pb)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, user.ID, "Bonus purchased",
		fmt.Sprintf("Your %s bonus is ready to use.", pb.Kind))
	return &pb, nil
}

// CreateSessions persists sessions produced by the generators in
// generate.go. Administrative operation.
func (s *Service) CreateSessions(ctx context.Context, sessions []*model.Session) error {
	return s.store.ExecTx(ctx, func(tx Tx) error {
		return tx.CreateSessions(ctx, sessions)
	})
}

// excludeSession filters the slot owned by the given session out of a
// user's booked slots.
func excludeSession(slots []BookedSlot, sessionID uint64) []BookedSlot {
	out := slots[:0:0]
	for _, sl := range slots {
		if sl.SessionID != sessionID {
			out = append(out, sl)
		}
	}
	return out
}
