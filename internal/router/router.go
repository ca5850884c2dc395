package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/mgarsanz/unisport/internal/handler"    // import the handlers that implement business logic
	"github.com/mgarsanz/unisport/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog browse routes.
// The optional cache middleware is applied to every route in the group
// since catalog reads are hot and rarely change.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, b *handler.BonusHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/activities", cat.ListActivities)
	g.GET("/facilities", cat.ListFacilities)
	g.GET("/activities/:id/sessions", cat.ActivitySessions)
	g.GET("/facilities/:id/sessions", cat.FacilitySessions)
	g.GET("/activities/:id/bonuses", b.Definitions)
}
