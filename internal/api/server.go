package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/config"
	infragin "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/tracker"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// NewServer creates the HTTP server. The /health check reports degraded
// while Conversions API credentials are missing.
func NewServer(
	cfg *config.Config,
	t *tracker.Tracker,
	routes RouteConfig,
	log infralogger.Logger,
) *infragin.Server {
	return infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithHealthCheck("conversions_api", conversionsCheck(t)).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, routes)
		}).
		Build()
}

func conversionsCheck(t *tracker.Tracker) infragin.HealthChecker {
	return func() infragin.CheckResult {
		if !t.ServerConfigured() {
			return infragin.CheckResult{
				Status:  infragin.HealthStatusDegraded,
				Message: "access token or pixel id missing; server events are skipped",
			}
		}
		return infragin.CheckResult{Status: infragin.HealthStatusHealthy}
	}
}
