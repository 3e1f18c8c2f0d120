// Package dispatch delivers one normalized event to the browser pixel
// and the conversions API. The two channels are independent: each makes at
// most one attempt and reports its own outcome, and both carry the same
// event_id so the destination can deduplicate them.
package dispatch

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/metrics"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/pixel"
)

// ErrNotConfigured is the error of a skipped server dispatch: the access
// token or the pixel id is missing.
var ErrNotConfigured = errors.New("conversions API access token or pixel id not configured")

// Channel selects delivery channels.
type Channel uint8

// Channels.
const (
	ChannelBrowser Channel = 1 << iota
	ChannelServer

	ChannelBoth = ChannelBrowser | ChannelServer
)

// Has reports whether c includes other.
func (c Channel) Has(other Channel) bool {
	return c&other != 0
}

// ServerStatus is the terminal state of a server dispatch.
type ServerStatus string

// Server statuses.
const (
	StatusDelivered ServerStatus = "delivered"
	StatusSkipped   ServerStatus = "skipped"
	StatusFailed    ServerStatus = "failed"
)

// Sender performs the server-side network call.
type Sender interface {
	Send(ctx context.Context, ev *domain.TrackingEvent) (*capi.Response, error)
}

// Credentials gate the server channel.
type Credentials struct {
	PixelID     string
	AccessToken string
}

// Configured reports whether both values are set.
func (c Credentials) Configured() bool {
	return c.PixelID != "" && c.AccessToken != ""
}

// BrowserResult is the outcome of a browser emission. Emitted is false
// when the pixel was not loaded; that is not an error.
type BrowserResult struct {
	Emitted bool                `json:"emitted"`
	Event   domain.BrowserEvent `json:"event"`
}

// ServerResult is the outcome of a server emission. Err is set for the
// skipped and failed statuses.
type ServerResult struct {
	Status   ServerStatus   `json:"status"`
	Response *capi.Response `json:"response,omitempty"`
	Err      error          `json:"-"`
}

// Outcome holds the results of the requested channels.
type Outcome struct {
	Browser *BrowserResult
	Server  *ServerResult
}

// Coordinator owns the two delivery channels.
type Coordinator struct {
	sender  Sender
	creds   Credentials
	log     infralogger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	debug   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(log infralogger.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer wraps server emissions in spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = tracer }
}

// WithDebug logs server failures.
func WithDebug(debug bool) Option {
	return func(c *Coordinator) { c.debug = debug }
}

// New creates a Coordinator delivering server events through sender.
func New(sender Sender, creds Credentials, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender: sender,
		creds:  creds,
		log:    infralogger.NewNop(),
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmitBrowser hands the browser-safe subset of ev to px.
func (c *Coordinator) EmitBrowser(px *pixel.Pixel, ev *domain.TrackingEvent) BrowserResult {
	browserEvent := ev.BrowserEvent()
	emitted := px.Track(browserEvent)

	outcome := "emitted"
	if !emitted {
		outcome = "suppressed"
	}
	c.metrics.RecordDispatch("browser", outcome)

	return BrowserResult{Emitted: emitted, Event: browserEvent}
}

// EmitServer delivers ev to the conversions API. It never panics on
// delivery problems; they are reported in the result.
func (c *Coordinator) EmitServer(ctx context.Context, ev *domain.TrackingEvent) ServerResult {
	if !c.creds.Configured() || c.sender == nil {
		c.metrics.RecordDispatch("server", string(StatusSkipped))
		return ServerResult{Status: StatusSkipped, Err: ErrNotConfigured}
	}

	ctx, span := c.tracer.Start(ctx, "conversions.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("event.name", string(ev.EventName)),
			attribute.String("event.id", ev.EventID),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.sender.Send(ctx, ev)
	c.metrics.ObserveServer(time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.RecordDispatch("server", string(StatusFailed))
		if c.debug {
			c.log.Error("Conversions API delivery failed",
				infralogger.String("event_name", string(ev.EventName)),
				infralogger.String("event_id", ev.EventID),
				infralogger.Error(err),
			)
		}
		return ServerResult{Status: StatusFailed, Err: err}
	}

	if resp != nil {
		span.SetAttributes(attribute.Int("events.received", resp.EventsReceived))
	}
	c.metrics.RecordDispatch("server", string(StatusDelivered))
	return ServerResult{Status: StatusDelivered, Response: resp}
}

// Dispatch emits ev on the requested channels. The browser emission runs
// first because it does not block; a failure on one channel never affects
// the other.
func (c *Coordinator) Dispatch(ctx context.Context, px *pixel.Pixel, ev *domain.TrackingEvent, channels Channel) Outcome {
	var out Outcome
	if channels.Has(ChannelBrowser) {
		browser := c.EmitBrowser(px, ev)
		out.Browser = &browser
	}
	if channels.Has(ChannelServer) {
		server := c.EmitServer(ctx, ev)
		out.Server = &server
	}
	return out
}
