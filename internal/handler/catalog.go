package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/model"
	"github.com/mgarsanz/unisport/internal/repository"
)

// CatalogHandler exposes the sport catalog: public browsing of
// activities, facilities and their sessions, and the administrative
// endpoints that create them and generate bookable sessions.
type CatalogHandler struct {
	Catalog *repository.CatalogRepo
	Bonuses *repository.BonusRepo
	Svc     *booking.Service
}

func NewCatalogHandler(cat *repository.CatalogRepo, b *repository.BonusRepo, svc *booking.Service) *CatalogHandler {
	return &CatalogHandler{Catalog: cat, Bonuses: b, Svc: svc}
}

// ----- public browse -----

type activityPart struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type facilityPart struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	HourPriceCents uint32 `json:"hour_price_cents"`
	Type           string `json:"type"`
}

// ListActivities returns all activities.
func (h *CatalogHandler) ListActivities(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Catalog.ListActivities(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]activityPart, 0, len(rows))
	for _, a := range rows {
		out = append(out, activityPart{ID: a.ID, Name: a.Name, Location: a.Location, Description: a.Description, Type: string(a.Type)})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": out})
}

// ListFacilities returns all facilities.
func (h *CatalogHandler) ListFacilities(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Catalog.ListFacilities(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]facilityPart, 0, len(rows))
	for _, f := range rows {
		out = append(out, facilityPart{ID: f.ID, Name: f.Name, Description: f.Description, HourPriceCents: f.HourPriceCents, Type: string(f.Type)})
	}
	return c.JSON(http.StatusOK, echo.Map{"facilities": out})
}

// ActivitySessions lists an activity's sessions from a date onward
// (default today).
func (h *CatalogHandler) ActivitySessions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	return h.listSessions(c, model.ActivityTarget(id))
}

// FacilitySessions lists a facility's sessions from a date onward
// (default today).
func (h *CatalogHandler) FacilitySessions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	return h.listSessions(c, model.FacilityTarget(id))
}

func (h *CatalogHandler) listSessions(c echo.Context, target model.SessionTarget) error {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if q := c.QueryParam("from"); q != "" {
		parsed, err := parseDate(q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		from = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Catalog.ListSessions(ctx, target, from)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]sessionPart, 0, len(rows))
	for _, s := range rows {
		out = append(out, toSessionPart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// ----- admin: catalog writes -----

type createActivityReq struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Type        string `json:"type"` // TERRESTRIAL | AQUATIC
}

// CreateActivity registers a new activity.
func (h *CatalogHandler) CreateActivity(c echo.Context) error {
	var req createActivityReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	typ := model.ActivityType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ != model.ActivityTerrestrial && typ != model.ActivityAquatic {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	a := &model.Activity{Name: req.Name, Location: req.Location, Description: req.Description, Type: typ}
	if err := h.Catalog.CreateActivity(ctx, a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, activityPart{ID: a.ID, Name: a.Name, Location: a.Location, Description: a.Description, Type: string(a.Type)})
}

type createFacilityReq struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	HourPriceCents uint32 `json:"hour_price_cents"`
	Type           string `json:"type"` // INDOOR | OUTDOOR
	Units          uint32 `json:"units"`
}

// CreateFacility registers a facility. Multi-unit facilities are
// expanded into independent single-unit rows so each court or lane
// books separately.
func (h *CatalogHandler) CreateFacility(c echo.Context) error {
	var req createFacilityReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	typ := model.FacilityType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ != model.FacilityIndoor && typ != model.FacilityOutdoor {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f := &model.Facility{Name: req.Name, Description: req.Description, HourPriceCents: req.HourPriceCents, Type: typ, Units: req.Units}
	created, err := h.Catalog.CreateFacility(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	out := make([]facilityPart, 0, len(created))
	for _, u := range created {
		out = append(out, facilityPart{ID: u.ID, Name: u.Name, Description: u.Description, HourPriceCents: u.HourPriceCents, Type: string(u.Type)})
	}
	return c.JSON(http.StatusCreated, echo.Map{"facilities": out})
}

type scheduleReq struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday ... 6 = Saturday
	HourBegin string `json:"hour_begin"`  // HH:MM
	HourEnd   string `json:"hour_end"`    // HH:MM
}

func (r scheduleReq) toModel() (model.Schedule, error) {
	begin, err := model.ParseTimeOfDay(r.HourBegin)
	if err != nil {
		return model.Schedule{}, err
	}
	end, err := model.ParseTimeOfDay(r.HourEnd)
	if err != nil {
		return model.Schedule{}, err
	}
	return model.Schedule{DayOfWeek: time.Weekday(r.DayOfWeek), HourBegin: begin, HourEnd: end}, nil
}

// AddActivitySchedule attaches a weekly schedule to an activity.
func (h *CatalogHandler) AddActivitySchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	return h.addSchedule(c, model.ActivityTarget(id))
}

// AddFacilitySchedule attaches a weekly schedule to a facility.
func (h *CatalogHandler) AddFacilitySchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	return h.addSchedule(c, model.FacilityTarget(id))
}

func (h *CatalogHandler) addSchedule(c echo.Context, target model.SessionTarget) error {
	var req scheduleReq
	if err := c.Bind(&req); err != nil || req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s, err := req.toModel()
	if err != nil || s.HourEnd <= s.HourBegin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hours"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Catalog.AddSchedule(ctx, target, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": s.ID})
}

type createBonusReq struct {
	Kind       string `json:"kind"` // SINGLE | SEMESTER | ANNUAL
	PriceCents uint32 `json:"price_cents"`
}

// CreateBonus puts a bonus definition on sale for an activity.
func (h *CatalogHandler) CreateBonus(c echo.Context) error {
	activityID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	var req createBonusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind := model.BonusKind(strings.ToUpper(strings.TrimSpace(req.Kind)))
	if kind != model.BonusSingle && kind != model.BonusSemester && kind != model.BonusAnnual {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bonus kind"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b := &model.Bonus{ActivityID: activityID, Kind: kind, PriceCents: req.PriceCents}
	if err := h.Bonuses.CreateDefinition(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, bonusDefPart{ID: b.ID, ActivityID: b.ActivityID, Kind: string(b.Kind), PriceCents: b.PriceCents})
}

// ----- admin: session generation -----

type generateReq struct {
	From     string `json:"from"` // YYYY-MM-DD inclusive
	To       string `json:"to"`   // YYYY-MM-DD inclusive
	Capacity int    `json:"capacity"`
}

// GenerateActivitySessions materializes an activity's weekly schedules
// into concrete sessions over a date range.
func (h *CatalogHandler) GenerateActivitySessions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	var req generateReq
	if err := c.Bind(&req); err != nil || req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	schedules, err := h.Catalog.SchedulesFor(ctx, model.ActivityTarget(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	sessions := booking.ActivitySessions(id, schedules, req.Capacity, from, to)
	if err := h.Svc.CreateSessions(ctx, sessions); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(sessions)})
}

// GenerateFacilitySessions materializes a facility's weekly schedules
// into one-hour capacity-1 sessions over a date range.
func (h *CatalogHandler) GenerateFacilitySessions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility id"})
	}
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	schedules, err := h.Catalog.SchedulesFor(ctx, model.FacilityTarget(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	sessions := booking.FacilitySessions(id, schedules, from, to)
	if err := h.Svc.CreateSessions(ctx, sessions); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(sessions)})
}

func parseRange(fromStr, toStr string) (from, to time.Time, err error) {
	if from, err = parseDate(fromStr); err != nil {
		return
	}
	if to, err = parseDate(toStr); err != nil {
		return
	}
	if to.Before(from) {
		err = echo.ErrBadRequest
	}
	return
}
