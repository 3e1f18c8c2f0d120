package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/api"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/handler"
	infraconfig "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/config"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/metrics"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profiling server (if enabled)
	profiling.StartPprofServer(log)

	return runServer(cfg, log)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath("config.yml")
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(cfg *config.Config, log logger.Logger) int {
	telemetry := metrics.NewProvider()

	conv := cfg.Conversions
	t := tracker.New(tracker.Config{
		PixelID:       conv.PixelID,
		AccessToken:   conv.AccessToken,
		TestEventCode: conv.TestEventCode,
		Debug:         &conv.Debug,
		BaseURL:       conv.BaseURL,
		APIVersion:    conv.APIVersion,
		Timeout:       conv.Timeout,
		GeoFallback:   cfg.Tracking.GeoFallback,
	}, tracker.WithLogger(log), tracker.WithTelemetry(telemetry))

	if !t.ServerConfigured() {
		log.Warn("Conversions API credentials missing, server events will be skipped")
	}

	// done channel signals background goroutines (rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	server := api.NewServer(cfg, t, api.RouteConfig{
		Events:          handler.NewEventsHandler(t, log, cfg.Tracking.TrackBots),
		PixelScript:     handler.NewPixelScriptHandler(t, log),
		Metrics:         telemetry.Handler(),
		MaxEventsPerMin: cfg.RateLimit.MaxEventsPerMinute,
		RateLimitWindow: cfg.RateLimit.Window(),
		Done:            done,
	}, log)

	log.Info("Conversions-tracker starting",
		logger.Int("port", cfg.Service.Port),
		logger.Bool("server_events", t.ServerConfigured()),
		logger.Bool("geo_fallback", cfg.Tracking.GeoFallback),
	)

	if err := server.Run(); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Conversions-tracker exited cleanly")
	return 0
}
