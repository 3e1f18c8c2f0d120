// Package tracker is the entry point for tracking an event end to end:
// it resolves credentials, normalizes the caller's partial event and
// dispatches it to the browser pixel and the conversions API.
package tracker

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/dispatch"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/enrich"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/metrics"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/normalize"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/pixel"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
)

// Process-wide defaults read when a Config field is left empty.
const (
	EnvPixelID       = "FACEBOOK_PIXEL_ID"
	EnvAccessToken   = "FACEBOOK_CONVERSIONS_API_TOKEN"
	EnvTestEventCode = "FACEBOOK_TEST_EVENT_CODE"
	EnvDebug         = "FACEBOOK_DEBUG"
)

// Config holds the tracker settings. Empty fields fall back to the
// environment once, in New.
type Config struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	// Debug is nil when not set explicitly.
	Debug       *bool
	BaseURL     string
	APIVersion  string
	Timeout     time.Duration
	GeoFallback bool
}

// DebugEnabled reports the resolved debug flag.
func (c Config) DebugEnabled() bool {
	return c.Debug != nil && *c.Debug
}

func (c Config) withDefaults(getenv func(string) string) Config {
	if c.PixelID == "" {
		c.PixelID = getenv(EnvPixelID)
	}
	if c.AccessToken == "" {
		c.AccessToken = getenv(EnvAccessToken)
	}
	if c.TestEventCode == "" {
		c.TestEventCode = getenv(EnvTestEventCode)
	}
	if c.Debug == nil {
		debug, _ := strconv.ParseBool(getenv(EnvDebug))
		c.Debug = &debug
	}
	return c
}

// Result is a normalized event with the outcome of its dispatch.
type Result struct {
	Event   domain.TrackingEvent
	Outcome dispatch.Outcome
}

// Tracker tracks events. It is safe for concurrent use.
type Tracker struct {
	cfg         Config
	log         infralogger.Logger
	normalizer  *normalize.Normalizer
	coordinator *dispatch.Coordinator
	pixel       *pixel.Pixel
	metrics     *metrics.Metrics
}

type options struct {
	log        infralogger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	sender     dispatch.Sender
	agent      pixel.Agent
	getenv     func(string) string
	normalizer []normalize.Option
}

// Option configures a Tracker.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log infralogger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTelemetry records metrics and spans through p.
func WithTelemetry(p *metrics.Provider) Option {
	return func(o *options) {
		o.metrics = p.Metrics
		o.tracer = p.Tracer
	}
}

// WithSender replaces the Graph API transport.
func WithSender(sender dispatch.Sender) Option {
	return func(o *options) { o.sender = sender }
}

// WithAgent sets the process-wide pixel agent.
func WithAgent(agent pixel.Agent) Option {
	return func(o *options) { o.agent = agent }
}

// WithEnv replaces os.Getenv as the source of defaults.
func WithEnv(getenv func(string) string) Option {
	return func(o *options) { o.getenv = getenv }
}

// WithNormalizerOptions passes options to the event normalizer.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(o *options) { o.normalizer = append(o.normalizer, opts...) }
}

// New creates a Tracker. Missing credentials are not an error: server
// dispatches are then reported as skipped.
func New(cfg Config, opts ...Option) *Tracker {
	o := options{
		log:    infralogger.NewNop(),
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.withDefaults(o.getenv)
	debug := cfg.DebugEnabled()

	sender := o.sender
	if sender == nil {
		sender = capi.NewClient(capi.Config{
			PixelID:       cfg.PixelID,
			AccessToken:   cfg.AccessToken,
			TestEventCode: cfg.TestEventCode,
			BaseURL:       cfg.BaseURL,
			APIVersion:    cfg.APIVersion,
			Timeout:       cfg.Timeout,
			Debug:         debug,
		}, o.log)
	}

	coordinatorOpts := []dispatch.Option{
		dispatch.WithLogger(o.log),
		dispatch.WithMetrics(o.metrics),
		dispatch.WithDebug(debug),
	}
	if o.tracer != nil {
		coordinatorOpts = append(coordinatorOpts, dispatch.WithTracer(o.tracer))
	}

	normalizerOpts := append([]normalize.Option{
		normalize.WithPolicy(enrich.Policy{GeoFallback: cfg.GeoFallback}),
	}, o.normalizer...)

	var px *pixel.Pixel
	if o.agent != nil {
		px = pixel.New(o.agent, o.log, debug)
	}

	return &Tracker{
		cfg:        cfg,
		log:        o.log,
		normalizer: normalize.New(normalizerOpts...),
		coordinator: dispatch.New(sender, dispatch.Credentials{
			PixelID:     cfg.PixelID,
			AccessToken: cfg.AccessToken,
		}, coordinatorOpts...),
		pixel:   px,
		metrics: o.metrics,
	}
}

// Config returns the resolved configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// ServerConfigured reports whether server dispatches can be delivered.
func (t *Tracker) ServerConfigured() bool {
	return t.cfg.PixelID != "" && t.cfg.AccessToken != ""
}

// Pixel returns the process-wide pixel, or nil when no agent was given.
func (t *Tracker) Pixel() *pixel.Pixel {
	return t.pixel
}

// NewPixel wraps agent with the tracker's logger and debug setting.
func (t *Tracker) NewPixel(agent pixel.Agent) *pixel.Pixel {
	return pixel.New(agent, t.log, t.cfg.DebugEnabled())
}

// BootstrapScript renders the pixel loader for the configured pixel id.
func (t *Tracker) BootstrapScript() ([]byte, error) {
	return pixel.BootstrapScript(t.cfg.PixelID)
}

// Normalize resolves partial; rc nil is clean mode.
func (t *Tracker) Normalize(partial domain.PartialEvent, rc *requestctx.RequestContext) (domain.TrackingEvent, error) {
	ev, err := t.normalizer.Normalize(partial, rc)
	if err != nil {
		return domain.TrackingEvent{}, err
	}
	t.metrics.RecordNormalized(ev.EventName.IsStandard())
	return ev, nil
}

// Dispatch emits ev on channels, using px for the browser channel.
func (t *Tracker) Dispatch(ctx context.Context, px *pixel.Pixel, ev *domain.TrackingEvent, channels dispatch.Channel) dispatch.Outcome {
	return t.coordinator.Dispatch(ctx, px, ev, channels)
}

// Track normalizes partial and dispatches it through the process-wide pixel.
func (t *Tracker) Track(
	ctx context.Context,
	partial domain.PartialEvent,
	rc *requestctx.RequestContext,
	channels dispatch.Channel,
) (Result, error) {
	return t.TrackWithPixel(ctx, t.pixel, partial, rc, channels)
}

// TrackWithPixel is Track with an explicit browser pixel.
func (t *Tracker) TrackWithPixel(
	ctx context.Context,
	px *pixel.Pixel,
	partial domain.PartialEvent,
	rc *requestctx.RequestContext,
	channels dispatch.Channel,
) (Result, error) {
	ev, err := t.Normalize(partial, rc)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Event:   ev,
		Outcome: t.Dispatch(ctx, px, &ev, channels),
	}, nil
}
