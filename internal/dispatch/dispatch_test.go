package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/dispatch"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/metrics"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/normalize"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/pixel"
)

type fakeSender struct {
	mu     sync.Mutex
	calls  int
	events []domain.TrackingEvent
	err    error
}

func (f *fakeSender) Send(_ context.Context, ev *domain.TrackingEvent) (*capi.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.events = append(f.events, *ev)
	if f.err != nil {
		return nil, f.err
	}
	return &capi.Response{EventsReceived: 1}, nil
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var configured = dispatch.Credentials{PixelID: "123", AccessToken: "token"}

func loadedPixel(t *testing.T) (*pixel.Pixel, *pixel.Recorder) {
	t.Helper()

	rec := pixel.NewRecorder()
	px := pixel.New(rec, nil, false)
	px.MarkLoaded()
	return px, rec
}

func normalized(t *testing.T, partial domain.PartialEvent) *domain.TrackingEvent {
	t.Helper()

	ev, err := normalize.Normalize(partial, nil)
	require.NoError(t, err)
	return &ev
}

func TestEmitServer_SkipsWithoutCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds dispatch.Credentials
	}{
		{name: "missing token", creds: dispatch.Credentials{PixelID: "123"}},
		{name: "missing pixel id", creds: dispatch.Credentials{AccessToken: "token"}},
		{name: "missing both", creds: dispatch.Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			c := dispatch.New(sender, tt.creds)

			result := c.EmitServer(context.Background(), normalized(t, domain.PartialEvent{EventName: domain.EventLead}))

			assert.Equal(t, dispatch.StatusSkipped, result.Status)
			assert.ErrorIs(t, result.Err, dispatch.ErrNotConfigured)
			assert.Equal(t, 0, sender.Calls(), "transport must not be invoked")
		})
	}
}

func TestEmitServer_Delivered(t *testing.T) {
	sender := &fakeSender{}
	c := dispatch.New(sender, configured)

	result := c.EmitServer(context.Background(), normalized(t, domain.PartialEvent{EventName: domain.EventLead}))

	assert.Equal(t, dispatch.StatusDelivered, result.Status)
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Response.EventsReceived)
	assert.Equal(t, 1, sender.Calls())
}

func TestEmitServer_FailureIsAValue(t *testing.T) {
	boom := errors.New("connection reset")
	sender := &fakeSender{err: boom}
	c := dispatch.New(sender, configured, dispatch.WithDebug(true))

	var result dispatch.ServerResult
	assert.NotPanics(t, func() {
		result = c.EmitServer(context.Background(), normalized(t, domain.PartialEvent{EventName: domain.EventLead}))
	})

	assert.Equal(t, dispatch.StatusFailed, result.Status)
	assert.ErrorIs(t, result.Err, boom)
	assert.Equal(t, 1, sender.Calls(), "no automatic retry")
}

func TestDispatch_SharesEventID(t *testing.T) {
	sender := &fakeSender{}
	px, rec := loadedPixel(t)
	c := dispatch.New(sender, configured)

	ev := normalized(t, domain.PartialEvent{EventName: domain.EventPurchase, EventID: domain.Ptr("abc")})
	out := c.Dispatch(context.Background(), px, ev, dispatch.ChannelBoth)

	require.NotNil(t, out.Browser)
	require.NotNil(t, out.Server)
	assert.Equal(t, "abc", out.Browser.Event.EventID)
	require.Len(t, sender.events, 1)
	assert.Equal(t, "abc", sender.events[0].EventID)

	cmds := rec.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, map[string]string{"eventID": "abc"}, cmds[0].Args[3])
}

func TestDispatch_ChannelsAreIndependent(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	px, _ := loadedPixel(t)
	c := dispatch.New(sender, configured)

	out := c.Dispatch(context.Background(), px, normalized(t, domain.PartialEvent{EventName: domain.EventLead}), dispatch.ChannelBoth)

	assert.True(t, out.Browser.Emitted)
	assert.Equal(t, dispatch.StatusFailed, out.Server.Status)
}

func TestDispatch_BrowserNotLoadedIsNoop(t *testing.T) {
	rec := pixel.NewRecorder()
	px := pixel.New(rec, nil, false)
	c := dispatch.New(&fakeSender{}, configured)

	out := c.Dispatch(context.Background(), px, normalized(t, domain.PartialEvent{EventName: domain.EventLead}), dispatch.ChannelBrowser)

	require.NotNil(t, out.Browser)
	assert.False(t, out.Browser.Emitted)
	assert.Nil(t, out.Server)
	assert.Empty(t, rec.Commands())
}

func TestDispatch_ServerOnly(t *testing.T) {
	sender := &fakeSender{}
	c := dispatch.New(sender, configured)

	out := c.Dispatch(context.Background(), nil, normalized(t, domain.PartialEvent{EventName: domain.EventLead}), dispatch.ChannelServer)

	assert.Nil(t, out.Browser)
	require.NotNil(t, out.Server)
	assert.Equal(t, 1, sender.Calls())
}

func TestEmitBrowser_OmitsServerFields(t *testing.T) {
	px, rec := loadedPixel(t)
	c := dispatch.New(nil, dispatch.Credentials{})

	ev := normalized(t, domain.PartialEvent{
		EventName:  domain.EventLead,
		UserData:   domain.UserData{Email: domain.Ptr("x@example.com")},
		CustomData: map[string]any{"currency": "USD"},
	})
	result := c.EmitBrowser(px, ev)

	assert.Equal(t, map[string]any{"currency": "USD"}, result.Event.CustomData)
	for _, arg := range rec.Commands()[0].Args {
		assert.NotContains(t, arg, "user_data")
	}
}

func TestDispatch_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := dispatch.New(&fakeSender{}, dispatch.Credentials{}, dispatch.WithMetrics(m))

	c.EmitServer(context.Background(), normalized(t, domain.PartialEvent{EventName: domain.EventLead}))

	assert.InDelta(t, 1, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("server", "skipped")), 0)
}

func TestChannel_Has(t *testing.T) {
	assert.True(t, dispatch.ChannelBoth.Has(dispatch.ChannelBrowser))
	assert.True(t, dispatch.ChannelBoth.Has(dispatch.ChannelServer))
	assert.False(t, dispatch.ChannelServer.Has(dispatch.ChannelBrowser))
}
