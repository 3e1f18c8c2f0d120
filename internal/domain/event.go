// Package domain defines the tracking event model shared by the browser
// pixel and the server-side conversions channel.
package domain

// EventName is the name of a tracking event. Any string is valid; the
// constants below are the standard names with a typed custom data schema.
type EventName string

// Standard event names.
const (
	EventAddPaymentInfo       EventName = "AddPaymentInfo"
	EventAddToCart            EventName = "AddToCart"
	EventAddToWishlist        EventName = "AddToWishlist"
	EventCompleteRegistration EventName = "CompleteRegistration"
	EventContact              EventName = "Contact"
	EventCustomizeProduct     EventName = "CustomizeProduct"
	EventDonate               EventName = "Donate"
	EventFindLocation         EventName = "FindLocation"
	EventInitiateCheckout     EventName = "InitiateCheckout"
	EventLead                 EventName = "Lead"
	EventPageView             EventName = "PageView"
	EventPurchase             EventName = "Purchase"
	EventSchedule             EventName = "Schedule"
	EventSearch               EventName = "Search"
	EventStartTrial           EventName = "StartTrial"
	EventSubmitApplication    EventName = "SubmitApplication"
	EventSubscribe            EventName = "Subscribe"
	EventViewContent          EventName = "ViewContent"
)

// IsStandard reports whether n is one of the standard event names.
func (n EventName) IsStandard() bool {
	_, ok := variantFactories[n]
	return ok
}

// ActionSource tells the destination where a conversion happened.
type ActionSource string

// Action sources.
const (
	ActionSourceApp               ActionSource = "app"
	ActionSourceChat              ActionSource = "chat"
	ActionSourceEmail             ActionSource = "email"
	ActionSourceOther             ActionSource = "other"
	ActionSourcePhoneCall         ActionSource = "phone_call"
	ActionSourcePhysicalStore     ActionSource = "physical_store"
	ActionSourceSystemGenerated   ActionSource = "system_generated"
	ActionSourceWebsite           ActionSource = "website"
	ActionSourceBusinessMessaging ActionSource = "business_messaging"
)

// DefaultActionSource is used when the caller does not name one.
const DefaultActionSource = ActionSourceWebsite

// ServerOptions are server-channel scalars passed through to the
// conversions endpoint unchanged. They never reach the browser pixel.
type ServerOptions struct {
	OptOut                       *bool    `json:"opt_out,omitempty"`
	DataProcessingOptions        []string `json:"data_processing_options,omitempty"`
	DataProcessingOptionsCountry *int     `json:"data_processing_options_country,omitempty"`
	DataProcessingOptionsState   *int     `json:"data_processing_options_state,omitempty"`
	AdvancedMeasurementTable     *string  `json:"advanced_measurement_table,omitempty"`
	AdvertiserTrackingEnabled    *bool    `json:"advertiser_tracking_enabled,omitempty"`
	MessagingChannel             *string  `json:"messaging_channel,omitempty"`
}

// PartialEvent is an event as described by a caller. Only EventName is
// required; everything else is defaulted or derived during normalization.
type PartialEvent struct {
	EventName      EventName      `json:"event_name"`
	EventID        *string        `json:"event_id,omitempty"`
	EventTime      *int64         `json:"event_time,omitempty"`
	EventSourceURL *string        `json:"event_source_url,omitempty"`
	ActionSource   *string        `json:"action_source,omitempty"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
	UserData       UserData       `json:"user_data"`
	ServerOptions
}

// TrackingEvent is a fully resolved event. One TrackingEvent describes one
// user action; both delivery channels derive their payload from it.
type TrackingEvent struct {
	EventName      EventName
	EventID        string
	EventTime      int64
	EventSourceURL *string
	ActionSource   ActionSource
	CustomData     CustomData
	UserData       UserData
	ServerOptions
}

// BrowserEvent is the subset of a TrackingEvent that is safe to hand to
// the browser pixel.
type BrowserEvent struct {
	EventName  EventName      `json:"event_name"`
	CustomData map[string]any `json:"custom_data,omitempty"`
	EventID    string         `json:"event_id"`
}

// BrowserEvent returns the browser-safe projection of e.
func (e *TrackingEvent) BrowserEvent() BrowserEvent {
	return BrowserEvent{
		EventName:  e.EventName,
		CustomData: FlattenCustomData(e.CustomData),
		EventID:    e.EventID,
	}
}
