// Package config holds the conversions-tracker service configuration.
package config

import (
	"time"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	infraconfig "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/config"
)

// Default configuration values.
const (
	defaultServiceName  = "conversions-tracker"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
	defaultTimeout      = 10 * time.Second

	defaultMaxEventsPerMinute = 60
	defaultWindowSeconds      = 60
)

// Config holds the application configuration.
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Conversions ConversionsConfig `yaml:"conversions"`
	Tracking    TrackingConfig    `yaml:"tracking"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"CONVERSIONS_TRACKER_PORT" yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"                yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"             yaml:"cors_origins"`
}

// ConversionsConfig holds the pixel and Conversions API settings. Missing
// credentials are allowed; server dispatches are then skipped.
type ConversionsConfig struct {
	PixelID       string        `env:"FACEBOOK_PIXEL_ID"              yaml:"pixel_id"`
	AccessToken   string        `env:"FACEBOOK_CONVERSIONS_API_TOKEN" yaml:"access_token"`
	TestEventCode string        `env:"FACEBOOK_TEST_EVENT_CODE"       yaml:"test_event_code"`
	Debug         bool          `env:"FACEBOOK_DEBUG"                 yaml:"debug"`
	APIVersion    string        `env:"FACEBOOK_API_VERSION"           yaml:"api_version"`
	BaseURL       string        `env:"FACEBOOK_GRAPH_URL"             yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TrackingConfig holds enrichment and filtering policy.
type TrackingConfig struct {
	// GeoFallback fills user city/state/country from proxy geo headers.
	GeoFallback bool `env:"TRACKING_GEO_FALLBACK" yaml:"geo_fallback"`
	// TrackBots keeps the server channel for bot user agents.
	TrackBots bool `env:"TRACKING_TRACK_BOTS" yaml:"track_bots"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	MaxEventsPerMinute int `yaml:"max_events_per_minute"`
	WindowSeconds      int `yaml:"window_seconds"`
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// LoadOptional is Load without requiring the file to exist.
func LoadOptional(path string) (*Config, error) {
	return infraconfig.LoadOptionalWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setConversionsDefaults(&cfg.Conversions)
	setRateLimitDefaults(&cfg.RateLimit)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

// setConversionsDefaults applies default values to ConversionsConfig.
func setConversionsDefaults(c *ConversionsConfig) {
	if c.APIVersion == "" {
		c.APIVersion = capi.DefaultAPIVersion
	}
	if c.BaseURL == "" {
		c.BaseURL = capi.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// setRateLimitDefaults applies default values to RateLimitConfig.
func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxEventsPerMinute == 0 {
		rl.MaxEventsPerMinute = defaultMaxEventsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

// setLoggingDefaults applies default values to LoggingConfig.
func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateAbsoluteURL("conversions.base_url", c.Conversions.BaseURL); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("conversions.api_version", c.Conversions.APIVersion); err != nil {
		return err
	}
	if c.Conversions.Timeout < 0 {
		return &infraconfig.ValidationError{
			Field:   "conversions.timeout",
			Message: "must not be negative",
		}
	}
	if c.RateLimit.MaxEventsPerMinute < 0 || c.RateLimit.WindowSeconds < 0 {
		return &infraconfig.ValidationError{
			Field:   "rate_limit",
			Message: "must not be negative",
		}
	}
	return infraconfig.ValidateLogLevel("logging.level", c.Logging.Level)
}
