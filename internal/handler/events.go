// Package handler implements the conversions-tracker HTTP handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/dispatch"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/middleware"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/normalize"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/pixel"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/tracker"
)

// Channel names accepted in a track request.
const (
	channelBrowser = "browser"
	channelServer  = "server"
)

// TrackRequest is the body of POST /api/v1/events.
type TrackRequest struct {
	Event domain.PartialEvent `json:"event"`
	// Channels defaults to both when empty.
	Channels []string `json:"channels,omitempty"`
	// Clean skips request-derived enrichment.
	Clean bool `json:"clean,omitempty"`
	// PixelLoaded reports that the caller's page has loaded the pixel.
	PixelLoaded bool `json:"pixel_loaded,omitempty"`
}

// TrackResponse reports the event id and each requested channel's outcome.
type TrackResponse struct {
	EventID string           `json:"event_id"`
	Browser *BrowserResponse `json:"browser,omitempty"`
	Server  *ServerResponse  `json:"server,omitempty"`
}

// BrowserResponse carries the browser payload and, when emitted, the fbq
// calls the page should replay.
type BrowserResponse struct {
	Emitted bool                `json:"emitted"`
	Event   domain.BrowserEvent `json:"event"`
	Script  string              `json:"script,omitempty"`
}

// ServerResponse is the server channel outcome.
type ServerResponse struct {
	Status   dispatch.ServerStatus `json:"status"`
	Response *capi.Response        `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// EventsHandler handles tracking requests.
type EventsHandler struct {
	tracker   *tracker.Tracker
	log       infralogger.Logger
	trackBots bool
}

// NewEventsHandler creates an EventsHandler. Unless trackBots is set,
// bot traffic is never sent to the server channel.
func NewEventsHandler(t *tracker.Tracker, log infralogger.Logger, trackBots bool) *EventsHandler {
	return &EventsHandler{tracker: t, log: log, trackBots: trackBots}
}

// HandleTrack normalizes the posted event and dispatches it.
func (h *EventsHandler) HandleTrack(c *gin.Context) {
	var req TrackRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	channels, err := parseChannels(req.Channels)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if channels.Has(dispatch.ChannelServer) && middleware.IsBot(c) && !h.trackBots {
		channels &^= dispatch.ChannelServer
	}

	var rc *requestctx.RequestContext
	if !req.Clean {
		derived := requestctx.FromRequest(c.Request)
		rc = &derived
	}

	recorder := pixel.NewRecorder()
	px := h.tracker.NewPixel(recorder)
	if req.PixelLoaded {
		px.MarkLoaded()
	}

	result, err := h.tracker.TrackWithPixel(c.Request.Context(), px, req.Event, rc, channels)
	if err != nil {
		h.writeTrackError(c, err)
		return
	}

	resp := TrackResponse{EventID: result.Event.EventID}
	if b := result.Outcome.Browser; b != nil {
		resp.Browser = &BrowserResponse{Emitted: b.Emitted, Event: b.Event}
		if b.Emitted {
			script, scriptErr := recorder.Script()
			if scriptErr != nil {
				h.log.Warn("Failed to render pixel script", infralogger.Error(scriptErr))
			}
			resp.Browser.Script = script
		}
	}
	if s := result.Outcome.Server; s != nil {
		resp.Server = &ServerResponse{Status: s.Status, Response: s.Response}
		if s.Err != nil {
			resp.Server.Error = s.Err.Error()
		}
	}

	infralogger.FromContext(c.Request.Context()).Debug("Event tracked",
		infralogger.String("event_name", string(result.Event.EventName)),
		infralogger.String("event_id", result.Event.EventID),
	)

	c.JSON(http.StatusOK, resp)
}

// decodeJSON keeps numbers as json.Number so custom_data extension values
// reach the server payload in their original text form.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func (h *EventsHandler) writeTrackError(c *gin.Context, err error) {
	var shapeErr *domain.ShapeError
	if errors.Is(err, normalize.ErrMissingEventName) || errors.As(err, &shapeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Error("Failed to track event", infralogger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func parseChannels(names []string) (dispatch.Channel, error) {
	if len(names) == 0 {
		return dispatch.ChannelBoth, nil
	}

	var channels dispatch.Channel
	for _, name := range names {
		switch name {
		case channelBrowser:
			channels |= dispatch.ChannelBrowser
		case channelServer:
			channels |= dispatch.ChannelServer
		default:
			return 0, fmt.Errorf("unknown channel %q", name)
		}
	}
	return channels, nil
}
