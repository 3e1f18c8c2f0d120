package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/metrics"
)

func TestMetrics_RecordDispatch(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordDispatch("server", "skipped")
	m.RecordDispatch("server", "skipped")
	m.RecordDispatch("browser", "emitted")

	assert.InDelta(t, 2, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("server", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("browser", "emitted")), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordDispatch("server", "failed")
		m.RecordNormalized(true)
		m.ObserveServer(time.Second)
	})
}

func TestProvider_Handler(t *testing.T) {
	p := metrics.NewProvider()
	p.Metrics.RecordNormalized(false)

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `conversions_events_normalized_total{kind="custom"} 1`)
}
