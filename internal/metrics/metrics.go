// Package metrics provides Prometheus metrics and tracing for event dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "conversions-tracker"

// Metrics holds the dispatch metrics.
type Metrics struct {
	EventsNormalized *prometheus.CounterVec
	DispatchTotal    *prometheus.CounterVec
	ServerDuration   prometheus.Histogram
}

// Provider bundles the tracer, metrics and the registry they live in.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider registers metrics on a fresh registry that also carries the
// Go and process collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  New(reg),
		registry: reg,
	}
}

// Handler serves the provider's registry for /metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// New registers the dispatch metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsNormalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_events_normalized_total",
			Help: "Events normalized, by standard or custom event name",
		}, []string{"kind"}),
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_dispatch_total",
			Help: "Dispatch outcomes per channel (emitted, suppressed, delivered, skipped, failed)",
		}, []string{"channel", "outcome"}),
		ServerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conversions_server_dispatch_duration_seconds",
			Help:    "Round trip time of server channel deliveries",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
	}
}

// RecordNormalized counts one normalized event.
func (m *Metrics) RecordNormalized(standard bool) {
	if m == nil {
		return
	}
	kind := "custom"
	if standard {
		kind = "standard"
	}
	m.EventsNormalized.WithLabelValues(kind).Inc()
}

// RecordDispatch counts one channel outcome.
func (m *Metrics) RecordDispatch(channel, outcome string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(channel, outcome).Inc()
}

// ObserveServer records the duration of a server delivery attempt.
func (m *Metrics) ObserveServer(d time.Duration) {
	if m == nil {
		return
	}
	m.ServerDuration.Observe(d.Seconds())
}
