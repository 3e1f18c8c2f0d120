// Package api wires the conversions-tracker routes and HTTP server.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/handler"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/middleware"
)

// RouteConfig holds the handlers and limits used by SetupRoutes.
type RouteConfig struct {
	Events          *handler.EventsHandler
	PixelScript     *handler.PixelScriptHandler
	Metrics         http.Handler
	MaxEventsPerMin int
	RateLimitWindow time.Duration
	// Done stops the rate limiter janitor.
	Done <-chan struct{}
}

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, rc RouteConfig) {
	router.GET("/pixel.js", rc.PixelScript.HandleScript)
	if rc.Metrics != nil {
		router.GET("/metrics", gin.WrapH(rc.Metrics))
	}

	// Event ingestion with bot filter and rate limiting
	v1 := router.Group("/api/v1")
	v1.Use(middleware.BotFilter())
	v1.Use(middleware.RateLimiter(rc.MaxEventsPerMin, rc.RateLimitWindow, rc.Done))
	v1.POST("/events", rc.Events.HandleTrack)
}
