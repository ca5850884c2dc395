package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/middleware"
	"github.com/mgarsanz/unisport/internal/queue"
	queue_publisher "github.com/mgarsanz/unisport/internal/service"
)

// WaitlistHandler exposes the waiting-list endpoints for full activity
// sessions.
type WaitlistHandler struct {
	Svc *booking.Service
}

func NewWaitlistHandler(svc *booking.Service) *WaitlistHandler {
	return &WaitlistHandler{Svc: svc}
}

// Join appends the user to a full session's queue and returns their
// 1-based position.
func (h *WaitlistHandler) Join(c echo.Context) error {
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

	pos, err := h.Svc.JoinWaitingList(ctx, uid, sessionID)
	if err != nil {
		return bookingError(c, err)
	}
	_ = queue_publisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Kind:       queue.KindWaitingJoined,
		UserID:     uid.String(),
		SessionID:  sessionID,
		Position:   pos,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, echo.Map{"position": pos})
}

// Leave removes the user from a session's queue. Leaving never
// promotes anyone; promotions happen only when a place frees up.
func (h *WaitlistHandler) Leave(c echo.Context) error {
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

	if err := h.Svc.LeaveWaitingList(ctx, uid, sessionID); err != nil {
		return bookingError(c, err)
	}
	_ = queue_publisher.PublishBookingEvent(ctx, queue.BookingEvent{
		Kind:       queue.KindWaitingLeft,
		UserID:     uid.String(),
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}
