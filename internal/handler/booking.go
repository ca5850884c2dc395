package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/middleware"
	"github.com/mgarsanz/unisport/internal/model"
	"github.com/mgarsanz/unisport/internal/queue"
	"github.com/mgarsanz/unisport/internal/repository"
	queue_publisher "github.com/mgarsanz/unisport/internal/service"
)

// BookingHandler exposes the reservation endpoints: booking activity
// sessions, renting facility slots through a cart, cancelling, and
// listing the user's reservations.
type BookingHandler struct {
	Svc          *booking.Service
	Store        *repository.Store
	Reservations *repository.ReservationRepo
}

func NewBookingHandler(svc *booking.Service, store *repository.Store, res *repository.ReservationRepo) *BookingHandler {
	return &BookingHandler{Svc: svc, Store: store, Reservations: res}
}

type reservationPart struct {
	ID        uint64 `json:"id"`
	SessionID uint64 `json:"session_id"`
	BonusID   *uint64 `json:"bonus_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toReservationPart(r *model.Reservation) reservationPart {
	return reservationPart{
		ID:        r.ID,
		SessionID: r.SessionID,
		BonusID:   r.BonusID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ReserveSession books one place in an activity session for the
// authenticated user.
func (h *BookingHandler) ReserveSession(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	r, err := h.Svc.ReserveActivitySession(ctx, uid, sessionID)
	if err != nil {
		return bookingError(c, err)
	}
	_ = queue_publisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Kind:          queue.KindReservationMade,
		UserID:        uid.String(),
		SessionID:     sessionID,
		ReservationID: r.ID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, toReservationPart(r))
}

// Cancel removes one of the authenticated user's reservations, subject
// to the cancellation cutoff.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Svc.Cancel(ctx, uid, reservationID); err != nil {
		return bookingError(c, err)
	}
	_ = queue_publisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Kind:          queue.KindReservationCancelled,
		UserID:        uid.String(),
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}

// ----- facility cart -----

type cartSlotReq struct {
	FacilityID uint64 `json:"facility_id"`
	Date       string `json:"date"`  // YYYY-MM-DD
	Start      string `json:"start"` // HH:MM
	End        string `json:"end"`   // HH:MM
}
type cartReq struct {
	Slots []cartSlotReq `json:"slots"`
}

func (h *BookingHandler) bindCart(c echo.Context) (booking.Cart, error) {
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	cart := make(booking.Cart, 0, len(req.Slots))
	for _, s := range req.Slots {
		date, err := parseDate(s.Date)
		if err != nil {
			return nil, err
		}
		start, err := model.ParseTimeOfDay(s.Start)
		if err != nil {
			return nil, err
		}
		end, err := model.ParseTimeOfDay(s.End)
		if err != nil {
			return nil, err
		}
		cart = append(cart, booking.CartSlot{
			FacilityID: s.FacilityID,
			Date:       date,
			Start:      start,
			End:        end,
		})
	}
	return cart, nil
}

type cartSlotStatus struct {
	FacilityID uint64 `json:"facility_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Available  bool   `json:"available"`
	Reason     string `json:"reason,omitempty"`
}

// CheckCart reports per-slot availability for a facility cart without
// reserving anything. Internal overlaps and conflicts with the user's
// existing reservations are reported the same way a reserve attempt
// would fail, so clients can show problems before checkout.
func (h *BookingHandler) CheckCart(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cart, err := h.bindCart(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart"})
	}
	if len(cart) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty cart"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	overlapping := booking.AnyPairwiseOverlap(cart)
	out := make([]cartSlotStatus, 0, len(cart))
	for _, slot := range cart {
		st := cartSlotStatus{
			FacilityID: slot.FacilityID,
			Date:       slot.Date.Format("2006-01-02"),
			Start:      slot.Start.String(),
			End:        slot.End.String(),
			Available:  true,
		}
		switch {
		case overlapping:
			st.Available = false
			st.Reason = "cart slots overlap"
		default:
			sess, err := h.Store.FacilitySessionAt(ctx, slot.FacilityID, slot.Date, slot.Start, slot.End)
			if err != nil {
				st.Available = false
				st.Reason = "no such slot"
				break
			}
			if sess.IsFull() {
				st.Available = false
				st.Reason = "slot taken"
				break
			}
			slots, err := h.Store.UserSlotsOn(ctx, uid, slot.Date)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
			if booking.Overlaps(slots, slot.Date, slot.Start, slot.End) {
				st.Available = false
				st.Reason = "conflicts with your reservations"
			}
		}
		out = append(out, st)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// ReserveCart books every slot in the cart atomically: if any slot is
// unavailable the whole cart is rejected and nothing is booked.
func (h *BookingHandler) ReserveCart(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cart, err := h.bindCart(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cart"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	made, err := h.Svc.ReserveFacilityCart(ctx, uid, cart)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]reservationPart, 0, len(made))
	for _, r := range made {
		out = append(out, toReservationPart(r))
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservations": out})
}

// ----- listings -----

type reservationDetailPart struct {
	reservationPart
	TargetName string      `json:"target_name"`
	Session    sessionPart `json:"session"`
}

func toDetailParts(details []repository.ReservationDetail) []reservationDetailPart {
	out := make([]reservationDetailPart, 0, len(details))
	for _, d := range details {
		r := d.Reservation
		out = append(out, reservationDetailPart{
			reservationPart: toReservationPart(&r),
			TargetName:      d.TargetName,
			Session:         toSessionPart(d.Session),
		})
	}
	return out
}

// Upcoming lists the user's reservations whose sessions have not
// finished yet.
func (h *BookingHandler) Upcoming(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	details, err := h.Reservations.Upcoming(ctx, uid, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toDetailParts(details)})
}

// Past lists the user's finished reservations.
func (h *BookingHandler) Past(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	details, err := h.Reservations.Past(ctx, uid, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toDetailParts(details)})
}
