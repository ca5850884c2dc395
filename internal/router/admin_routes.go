package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/handler"
	"github.com/mgarsanz/unisport/internal/middleware"
)

// RegisterAdmin registers the catalog management routes. Every route
// in the group requires a valid access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, cat *handler.CatalogHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	g.POST("/activities", cat.CreateActivity)
	g.POST("/facilities", cat.CreateFacility)
	g.POST("/activities/:id/schedules", cat.AddActivitySchedule)
	g.POST("/facilities/:id/schedules", cat.AddFacilitySchedule)
	g.POST("/activities/:id/bonuses", cat.CreateBonus)
	g.POST("/activities/:id/sessions/generate", cat.GenerateActivitySessions)
	g.POST("/facilities/:id/sessions/generate", cat.GenerateFacilitySessions)
}
