// Package normalize turns a caller's partial event into a canonical
// TrackingEvent: identifier, timestamp, source URL and action source
// defaults, custom data partitioning and user data enrichment.
package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/enrich"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
)

// ErrMissingEventName is returned for an event without a name.
var ErrMissingEventName = errors.New("event_name is required")

// Normalizer builds TrackingEvents. The zero value is not usable; use New.
type Normalizer struct {
	now    func() time.Time
	newID  func() (string, error)
	policy enrich.Policy
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the clock used for event_time.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator overrides the event_id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(n *Normalizer) { n.newID = newID }
}

// WithPolicy sets the user data merge policy.
func WithPolicy(policy enrich.Policy) Option {
	return func(n *Normalizer) { n.policy = policy }
}

// New returns a Normalizer using the wall clock and UUIDv7 event ids.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   time.Now,
		newID: NewEventID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewEventID returns a time-ordered UUIDv7 string.
func NewEventID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate event id: %w", err)
	}
	return id.String(), nil
}

var defaultNormalizer = New()

// Normalize normalizes with the default Normalizer.
func Normalize(partial domain.PartialEvent, rc *requestctx.RequestContext) (domain.TrackingEvent, error) {
	return defaultNormalizer.Normalize(partial, rc)
}

// Normalize resolves partial into a TrackingEvent. rc carries the inbound
// request signals; nil means clean mode, where only caller-supplied
// values are used. An empty event_id is treated as omitted.
func (n *Normalizer) Normalize(partial domain.PartialEvent, rc *requestctx.RequestContext) (domain.TrackingEvent, error) {
	if partial.EventName == "" {
		return domain.TrackingEvent{}, ErrMissingEventName
	}

	customData, err := domain.DecodeCustomData(partial.EventName, partial.CustomData)
	if err != nil {
		return domain.TrackingEvent{}, err
	}

	eventID := ""
	if partial.EventID != nil {
		eventID = *partial.EventID
	}
	if eventID == "" {
		if eventID, err = n.newID(); err != nil {
			return domain.TrackingEvent{}, err
		}
	}

	eventTime := n.now().Unix()
	if partial.EventTime != nil {
		eventTime = *partial.EventTime
	}

	actionSource := domain.DefaultActionSource
	if partial.ActionSource != nil {
		actionSource = domain.ActionSource(*partial.ActionSource)
	}

	return domain.TrackingEvent{
		EventName:      partial.EventName,
		EventID:        eventID,
		EventTime:      eventTime,
		EventSourceURL: enrich.SourceURL(partial.EventSourceURL, rc),
		ActionSource:   actionSource,
		CustomData:     customData,
		UserData:       enrich.MergeUserData(partial.UserData, rc, n.policy),
		ServerOptions:  partial.ServerOptions,
	}, nil
}
