package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mgarsanz/unisport/internal/handler"
	"github.com/mgarsanz/unisport/internal/middleware"
)

// RegisterUser registers the booking routes available to authenticated
// users. The optional rate-limit middleware guards the mutating
// endpoints, where capacity races concentrate.
func RegisterUser(e *echo.Echo, bk *handler.BookingHandler, wl *handler.WaitlistHandler,
	bn *handler.BonusHandler, nt *handler.NotificationHandler, jwtSecret string, rl echo.MiddlewareFunc) {

	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("USER", "ADMIN"),
	)
	if rl != nil {
		g.Use(rl)
	}

	// Activity sessions
	g.POST("/sessions/:id/reserve", bk.ReserveSession)
	g.DELETE("/reservations/:id", bk.Cancel)
	g.GET("/reservations/upcoming", bk.Upcoming)
	g.GET("/reservations/past", bk.Past)

	// Facility rental cart
	g.POST("/facilities/cart/check", bk.CheckCart)
	g.POST("/facilities/cart/reserve", bk.ReserveCart)

	// Waiting list
	g.POST("/sessions/:id/waitlist", wl.Join)
	g.DELETE("/sessions/:id/waitlist", wl.Leave)

	// Bonuses
	g.GET("/bonuses", bn.Mine)
	g.POST("/bonuses/:id/confirm-payment", bn.ConfirmPayment)

	// Notifications
	g.GET("/notifications", nt.List)
	g.POST("/notifications/:id/read", nt.MarkRead)
}
