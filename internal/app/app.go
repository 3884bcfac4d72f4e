// Package app exposes the booking service over HTTP with gin.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/conflict"
	"holiday-booking/internal/grouping"
	"holiday-booking/internal/pricing"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the collaborators the handlers need. OAuth, Hub and DB are
// optional.
type App struct {
	Bookings  *booking.Service
	Pricing   *pricing.Engine
	Phases    *pricing.Admin
	Conflicts *conflict.Detector
	Grouper   *grouping.Grouper

	OAuth    *oauth2.Config
	Hub      http.Handler
	DB       Pinger
	FeedName string
	Auth     AuthConfig
	Logger   *slog.Logger
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Router builds the gin engine with every route mounted.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.logger()))

	router.GET("/healthz", a.HealthHandler)
	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	public := router.Group("/api")
	{
		public.POST("/requests", a.CreateRequestHandler)
		public.GET("/quote", a.QuoteHandler)
		public.GET("/availability.ics", a.AvailabilityFeedHandler)
	}

	admin := router.Group("/api", AuthMiddleware(a.Auth))
	{
		bookings := admin.Group("/bookings")
		{
			bookings.GET("", a.ListBookingsHandler)
			bookings.POST("", a.CreateBookingHandler)
			bookings.GET("/:id", a.GetBookingHandler)
			bookings.PATCH("/:id", a.EditBookingHandler)
			bookings.DELETE("/:id", a.DeleteBookingHandler)
			bookings.POST("/:id/approve", a.ApproveBookingHandler)
			bookings.POST("/:id/reject", a.RejectBookingHandler)
			bookings.POST("/:id/cancel", a.CancelBookingHandler)
		}

		admin.GET("/conflicts", a.ListConflictsHandler)
		admin.POST("/conflicts/ignore", a.IgnoreConflictHandler)
		admin.DELETE("/conflicts/ignore/:key", a.UnignoreConflictHandler)

		events := admin.Group("/events")
		{
			events.POST("/group", a.GroupEventsHandler)
			events.POST("/ungroup", a.UngroupEventsHandler)
			events.POST("/:id/check", a.CheckEventHandler)
		}

		phases := admin.Group("/pricing/phases")
		{
			phases.GET("", a.ListPhasesHandler)
			phases.POST("", a.CreatePhaseHandler)
			phases.PUT("/:id", a.UpdatePhaseHandler)
			phases.DELETE("/:id", a.DeletePhaseHandler)
		}
		admin.GET("/pricing/settings", a.GetSettingsHandler)
		admin.PUT("/pricing/settings", a.UpdateSettingsHandler)

		admin.POST("/access-codes", a.CreateAccessCodeHandler)
		admin.GET("/calendar/auth", a.GoogleAuthHandler)

		if a.Hub != nil {
			admin.GET("/ws", gin.WrapH(a.Hub))
		}
	}
	return router
}

// GET /healthz
func (a *App) HealthHandler(c *gin.Context) {
	if a.DB != nil {
		if err := a.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
