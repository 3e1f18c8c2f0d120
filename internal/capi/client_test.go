package capi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	infraerrors "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/errors"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
)

func testEvent(t *testing.T) *domain.TrackingEvent {
	t.Helper()

	data, err := domain.DecodeCustomData(domain.EventPurchase, map[string]any{
		"value":    19.99,
		"currency": "USD",
		"coupon":   "SPRING",
	})
	require.NoError(t, err)

	return &domain.TrackingEvent{
		EventName:      domain.EventPurchase,
		EventID:        "abc",
		EventTime:      1_700_000_000,
		EventSourceURL: domain.Ptr("https://shop.example/checkout"),
		ActionSource:   domain.ActionSourceWebsite,
		CustomData:     data,
		UserData: domain.UserData{
			Email:           domain.Ptr(" Jane@Example.com "),
			ClientIPAddress: domain.Ptr("1.2.3.4"),
			Fbp:             domain.Ptr("fb.1.111.222"),
		},
	}
}

func TestClient_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events_received":1,"messages":[],"fbtrace_id":"trace-1"}`))
	}))
	defer srv.Close()

	client := capi.NewClient(capi.Config{
		PixelID:       "123",
		AccessToken:   "token",
		TestEventCode: "TEST42",
		BaseURL:       srv.URL,
	}, infralogger.NewNop())

	resp, err := client.Send(context.Background(), testEvent(t))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.EventsReceived)
	assert.Equal(t, "trace-1", resp.FBTraceID)
	assert.Equal(t, "/"+capi.DefaultAPIVersion+"/123/events", gotPath)
	assert.Equal(t, "token", gotBody["access_token"])
	assert.Equal(t, "TEST42", gotBody["test_event_code"])

	data := gotBody["data"].([]any)
	require.Len(t, data, 1)
	event := data[0].(map[string]any)
	assert.Equal(t, "abc", event["event_id"])
	assert.Equal(t, "Purchase", event["event_name"])
	assert.Equal(t, "website", event["action_source"])
	assert.Equal(t, "SPRING", event["custom_data"].(map[string]any)["coupon"])
}

func TestClient_SendGraphError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190,"fbtrace_id":"T1"}}`))
	}))
	defer srv.Close()

	client := capi.NewClient(capi.Config{PixelID: "123", AccessToken: "bad", BaseURL: srv.URL}, nil)

	_, err := client.Send(context.Background(), testEvent(t))
	require.Error(t, err)

	httpErr, ok := infraerrors.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, 190, httpErr.Code)
	assert.Equal(t, "OAuthException", httpErr.Type)
	assert.Equal(t, "T1", httpErr.TraceID)
}

func TestClient_SendHonorsCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := capi.NewClient(capi.Config{PixelID: "123", AccessToken: "t", BaseURL: srv.URL}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, testEvent(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_Endpoint(t *testing.T) {
	client := capi.NewClient(capi.Config{
		PixelID:    "987",
		BaseURL:    "https://graph.example/",
		APIVersion: "v20.0",
	}, nil)

	assert.Equal(t, "https://graph.example/v20.0/987/events", client.Endpoint())
}
