// Package capi is the server-side conversions transport: it encodes
// events for the Graph API and posts them to /{pixel_id}/events.
package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	infraerrors "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/http"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
)

// Graph API defaults.
const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"
)

// Config configures a Client.
type Config struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	BaseURL       string
	APIVersion    string
	// Timeout bounds one request. Zero uses the shared client default.
	Timeout time.Duration
	Debug   bool
}

// Response is the Graph API reply to an events call.
type Response struct {
	EventsReceived int      `json:"events_received"`
	Messages       []string `json:"messages,omitempty"`
	FBTraceID      string   `json:"fbtrace_id,omitempty"`
}

// Client posts events to the conversions endpoint. It makes exactly one
// attempt per event.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        infralogger.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, log infralogger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if log == nil {
		log = infralogger.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: infrahttp.NewClient(infrahttp.ClientConfig{Timeout: cfg.Timeout}),
		log:        log,
	}
}

// Endpoint returns the events URL for the configured pixel.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/%s/%s/events",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		c.cfg.APIVersion,
		url.PathEscape(c.cfg.PixelID),
	)
}

// Send delivers ev. Non-2xx replies are returned as *errors.HTTPError.
func (c *Client) Send(ctx context.Context, ev *domain.TrackingEvent) (*Response, error) {
	payload := BuildRequest(ev, c.cfg.TestEventCode)
	payload.AccessToken = c.cfg.AccessToken

	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return nil, fmt.Errorf("marshal event: %w", marshalErr)
	}

	if c.cfg.Debug {
		c.log.Debug("Conversions API request",
			infralogger.String("endpoint", c.Endpoint()),
			infralogger.String("event_name", string(ev.EventName)),
			infralogger.String("event_id", ev.EventID),
			infralogger.String("test_event_code", c.cfg.TestEventCode),
		)
	}

	return c.doPost(ctx, body)
}

func (c *Client) doPost(ctx context.Context, body []byte) (*Response, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("send request: %w", doErr)
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return nil, httpErr
	}

	var out Response
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if c.cfg.Debug {
		c.log.Debug("Conversions API response",
			infralogger.Int("events_received", out.EventsReceived),
			infralogger.String("fbtrace_id", out.FBTraceID),
		)
	}
	return &out, nil
}
