package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/capi"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/dispatch"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/tracker"
)

var errServerFailed = errors.New("server dispatch failed")

type sendOptions struct {
	eventName    string
	eventID      string
	sourceURL    string
	actionSource string
	customData   string
	userData     string
	testCode     string
	dryRun       bool
}

// sendResult is printed after a real send.
type sendResult struct {
	EventID  string                `json:"event_id"`
	Status   dispatch.ServerStatus `json:"status"`
	Response *capi.Response        `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func newSendCommand(d *deps) *cobra.Command {
	o := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one server event",
		Long: `Normalizes one event and sends it to the Conversions API.

Example:
  trackctl send --event-name Purchase --custom-data '{"value": 10, "currency": "USD"}' \
    --user-data '{"email": "jane@example.com"}' --test-code TEST123

  # Print the request body instead of sending it
  trackctl send --event-name Lead --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, d, o)
		},
	}

	addSendFlags(cmd.Flags(), o)
	if err := cmd.MarkFlagRequired("event-name"); err != nil {
		return nil
	}
	return cmd
}

func addSendFlags(fs *pflag.FlagSet, o *sendOptions) {
	fs.StringVarP(&o.eventName, "event-name", "e", "", "event name, standard or custom (required)")
	fs.StringVar(&o.eventID, "event-id", "", "deduplication id (generated when empty)")
	fs.StringVar(&o.sourceURL, "source-url", "", "event source URL")
	fs.StringVar(&o.actionSource, "action-source", "", "action source (default website)")
	fs.StringVar(&o.customData, "custom-data", "", "custom data as a JSON object")
	fs.StringVar(&o.userData, "user-data", "", "user data as a JSON object")
	fs.StringVar(&o.testCode, "test-code", "", "test event code, overrides config")
	fs.BoolVar(&o.dryRun, "dry-run", false, "print the request body without sending it")
}

func runSend(cmd *cobra.Command, d *deps, o *sendOptions) error {
	partial, err := o.partialEvent()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOptional(d.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return fmt.Errorf("validate config: %w", validationErr)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Conversions.Debug,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	tr := newTracker(cfg, o.testCode, log, d.trackerOpts)

	if o.dryRun {
		ev, normErr := tr.Normalize(partial, nil)
		if normErr != nil {
			return normErr
		}
		return writeJSON(d, capi.BuildRequest(&ev, tr.Config().TestEventCode))
	}

	res, err := tr.Track(cmd.Context(), partial, nil, dispatch.ChannelServer)
	if err != nil {
		return err
	}

	server := res.Outcome.Server
	out := sendResult{EventID: res.Event.EventID, Status: server.Status, Response: server.Response}
	if server.Err != nil {
		out.Error = server.Err.Error()
	}
	if writeErr := writeJSON(d, out); writeErr != nil {
		return writeErr
	}
	if server.Status == dispatch.StatusFailed {
		return errServerFailed
	}
	return nil
}

func newTracker(cfg *config.Config, testCode string, log logger.Logger, extra []tracker.Option) *tracker.Tracker {
	conv := cfg.Conversions
	if testCode != "" {
		conv.TestEventCode = testCode
	}

	opts := append([]tracker.Option{tracker.WithLogger(log)}, extra...)
	return tracker.New(tracker.Config{
		PixelID:       conv.PixelID,
		AccessToken:   conv.AccessToken,
		TestEventCode: conv.TestEventCode,
		Debug:         &conv.Debug,
		BaseURL:       conv.BaseURL,
		APIVersion:    conv.APIVersion,
		Timeout:       conv.Timeout,
		GeoFallback:   cfg.Tracking.GeoFallback,
	}, opts...)
}

func (o *sendOptions) partialEvent() (domain.PartialEvent, error) {
	partial := domain.PartialEvent{EventName: domain.EventName(o.eventName)}

	if o.eventID != "" {
		partial.EventID = domain.Ptr(o.eventID)
	}
	if o.sourceURL != "" {
		partial.EventSourceURL = domain.Ptr(o.sourceURL)
	}
	if o.actionSource != "" {
		partial.ActionSource = domain.Ptr(o.actionSource)
	}
	if o.customData != "" {
		if err := decodeNumbers(o.customData, &partial.CustomData); err != nil {
			return partial, fmt.Errorf("parse --custom-data: %w", err)
		}
	}
	if o.userData != "" {
		if err := json.Unmarshal([]byte(o.userData), &partial.UserData); err != nil {
			return partial, fmt.Errorf("parse --user-data: %w", err)
		}
	}
	return partial, nil
}

// decodeNumbers keeps numbers as json.Number so large integers are sent as
// typed.
func decodeNumbers(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	return dec.Decode(v)
}

func writeJSON(d *deps, v any) error {
	enc := json.NewEncoder(d.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
