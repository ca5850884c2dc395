package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/middleware"
	"github.com/mgarsanz/unisport/internal/model"
	"github.com/mgarsanz/unisport/internal/repository"
)

// BonusHandler exposes the bonus catalog and purchase endpoints.
type BonusHandler struct {
	Svc     *booking.Service
	Bonuses *repository.BonusRepo
	Users   *repository.UserRepo
}

func NewBonusHandler(svc *booking.Service, b *repository.BonusRepo, u *repository.UserRepo) *BonusHandler {
	return &BonusHandler{Svc: svc, Bonuses: b, Users: u}
}

type bonusDefPart struct {
	ID         uint64 `json:"id"`
	ActivityID uint64 `json:"activity_id"`
	Kind       string `json:"kind"`
	PriceCents uint32 `json:"price_cents"`
}

// Definitions lists the bonuses on sale for an activity.
func (h *BonusHandler) Definitions(c echo.Context) error {
	activityID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	defs, err := h.Bonuses.DefinitionsForActivity(ctx, activityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bonusDefPart, 0, len(defs))
	for _, d := range defs {
		out = append(out, bonusDefPart{ID: d.ID, ActivityID: d.ActivityID, Kind: string(d.Kind), PriceCents: d.PriceCents})
	}
	return c.JSON(http.StatusOK, echo.Map{"bonuses": out})
}

type productBonusPart struct {
	ID             uint64  `json:"id"`
	ActivityID     uint64  `json:"activity_id"`
	Kind           string  `json:"kind"`
	Available      bool    `json:"available"`
	DateBegin      *string `json:"date_begin,omitempty"`
	DateEnd        *string `json:"date_end,omitempty"`
	PurchasedAt    string  `json:"purchased_at"`
	PricePaidCents uint32  `json:"price_paid_cents"`
}

func toProductBonusPart(b model.ProductBonus) productBonusPart {
	p := productBonusPart{
		ID:             b.ID,
		ActivityID:     b.ActivityID,
		Kind:           string(b.Kind),
		Available:      b.Available,
		PurchasedAt:    b.PurchasedAt.UTC().Format(time.RFC3339),
		PricePaidCents: b.PricePaidCents,
	}
	if b.DateBegin != nil {
		s := b.DateBegin.Format("2006-01-02")
		p.DateBegin = &s
	}
	if b.DateEnd != nil {
		s := b.DateEnd.Format("2006-01-02")
		p.DateEnd = &s
	}
	return p
}

// Mine lists every bonus the authenticated user owns.
func (h *BonusHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	owned, err := h.Bonuses.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]productBonusPart, 0, len(owned))
	for _, b := range owned {
		out = append(out, toProductBonusPart(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bonuses": out})
}

// ConfirmPayment records a confirmed bonus purchase and grants the
// entitlement. In production this is called by the payment provider's
// confirmation callback; the grant is keyed to the authenticated user
// so a stolen callback cannot credit someone else.
func (h *BonusHandler) ConfirmPayment(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	defID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bonus id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	def, err := h.Bonuses.GetDefinition(ctx, defID)
	if err != nil {
		return bookingError(c, err)
	}
	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	pb, err := h.Svc.GrantBonus(ctx, *user, *def, time.Now().UTC())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toProductBonusPart(*pb))
}
