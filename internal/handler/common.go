package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/model"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// parseID reads a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// parseDate reads a YYYY-MM-DD value as a UTC midnight timestamp.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// bookingError translates engine sentinel errors into HTTP responses.
// Unknown errors become opaque 500s so internals never leak.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrConflictingTime):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting reservation time"})
	case errors.Is(err, booking.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already reserved"})
	case errors.Is(err, booking.ErrAlreadyInWaitingList):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already in waiting list"})
	case errors.Is(err, booking.ErrSessionFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session full"})
	case errors.Is(err, booking.ErrSessionNotFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session has free places"})
	case errors.Is(err, booking.ErrCancellationWindowExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window expired"})
	case errors.Is(err, booking.ErrNoValidEntitlement):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no valid bonus for this activity"})
	case errors.Is(err, booking.ErrWrongTarget), errors.Is(err, booking.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// sessionPart is the JSON shape of a session in responses.
type sessionPart struct {
	ID         uint64 `json:"id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Capacity   int    `json:"capacity"`
	FreePlaces int    `json:"free_places"`
}

func toSessionPart(s model.Session) sessionPart {
	return sessionPart{
		ID:         s.ID,
		Date:       s.Date.Format("2006-01-02"),
		StartTime:  s.StartTime.String(),
		EndTime:    s.EndTime.String(),
		Capacity:   s.Capacity,
		FreePlaces: s.FreePlaces,
	}
}
