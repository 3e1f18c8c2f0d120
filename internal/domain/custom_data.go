package domain

import (
	"encoding/json"
	"errors"
	"maps"
	"reflect"
	"strings"
	"sync"
)

// CustomData is the event-specific payload. Each standard event name has
// its own variant carrying the typed attributes of its schema; every
// variant also keeps unrecognized keys in an extension bag.
//
// The set of variants is closed: only types in this package implement it.
type CustomData interface {
	// Properties returns the extension keys that are not part of the
	// variant's typed schema. The map must not be modified.
	Properties() map[string]any
	customData()
}

// Extensions is the extension bag embedded by every CustomData variant.
type Extensions struct {
	props map[string]any
}

// Properties implements CustomData.
func (e Extensions) Properties() map[string]any { return e.props }

func (Extensions) customData() {}

func (e *Extensions) setProperties(props map[string]any) { e.props = props }

type propertySetter interface {
	setProperties(map[string]any)
}

// AddPaymentInfoData is the custom data of AddPaymentInfo.
type AddPaymentInfoData struct {
	ContentIDs ContentIDs `json:"content_ids,omitempty"`
	Contents   []Content  `json:"contents,omitempty"`
	Currency   *string    `json:"currency,omitempty"`
	Value      *float64   `json:"value,omitempty"`
	OrderID    *string    `json:"order_id,omitempty"`
	Extensions
}

// AddToCartData is the custom data of AddToCart.
type AddToCartData struct {
	ContentIDs      ContentIDs `json:"content_ids,omitempty"`
	ContentType     *string    `json:"content_type,omitempty"`
	ContentName     *string    `json:"content_name,omitempty"`
	ContentCategory *string    `json:"content_category,omitempty"`
	Contents        []Content  `json:"contents,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	Value           *float64   `json:"value,omitempty"`
	ItemNumber      *string    `json:"item_number,omitempty"`
	Extensions
}

// AddToWishlistData is the custom data of AddToWishlist.
type AddToWishlistData struct {
	ContentIDs      ContentIDs `json:"content_ids,omitempty"`
	ContentName     *string    `json:"content_name,omitempty"`
	ContentCategory *string    `json:"content_category,omitempty"`
	Contents        []Content  `json:"contents,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	Value           *float64   `json:"value,omitempty"`
	ItemNumber      *string    `json:"item_number,omitempty"`
	Extensions
}

// CompleteRegistrationData is the custom data of CompleteRegistration.
type CompleteRegistrationData struct {
	Currency *string  `json:"currency,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Status   *bool    `json:"status,omitempty"`
	Extensions
}

// InitiateCheckoutData is the custom data of InitiateCheckout.
type InitiateCheckoutData struct {
	ContentIDs ContentIDs `json:"content_ids,omitempty"`
	Contents   []Content  `json:"contents,omitempty"`
	Currency   *string    `json:"currency,omitempty"`
	NumItems   *int       `json:"num_items,omitempty"`
	Value      *float64   `json:"value,omitempty"`
	OrderID    *string    `json:"order_id,omitempty"`
	Extensions
}

// LeadData is the custom data of Lead.
type LeadData struct {
	Currency *string  `json:"currency,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Extensions
}

// PurchaseData is the custom data of Purchase. Currency and value are
// expected by the destination but are not enforced here.
type PurchaseData struct {
	ContentIDs       ContentIDs `json:"content_ids,omitempty"`
	ContentType      *string    `json:"content_type,omitempty"`
	Contents         []Content  `json:"contents,omitempty"`
	Currency         *string    `json:"currency,omitempty"`
	Value            *float64   `json:"value,omitempty"`
	OrderID          *string    `json:"order_id,omitempty"`
	DeliveryCategory *string    `json:"delivery_category,omitempty"`
	Extensions
}

// SearchData is the custom data of Search.
type SearchData struct {
	ContentIDs   ContentIDs `json:"content_ids,omitempty"`
	ContentType  *string    `json:"content_type,omitempty"`
	Contents     []Content  `json:"contents,omitempty"`
	Currency     *string    `json:"currency,omitempty"`
	SearchString *string    `json:"search_string,omitempty"`
	Value        *float64   `json:"value,omitempty"`
	Extensions
}

// StartTrialData is the custom data of StartTrial.
type StartTrialData struct {
	Currency     *string  `json:"currency,omitempty"`
	PredictedLTV *float64 `json:"predicted_ltv,omitempty"`
	Value        *float64 `json:"value,omitempty"`
	Extensions
}

// SubscribeData is the custom data of Subscribe.
type SubscribeData struct {
	Currency     *string  `json:"currency,omitempty"`
	PredictedLTV *float64 `json:"predicted_ltv,omitempty"`
	Value        *float64 `json:"value,omitempty"`
	Extensions
}

// PageViewData is the custom data of PageView.
type PageViewData struct {
	ContentIDs  ContentIDs `json:"content_ids,omitempty"`
	ContentType *string    `json:"content_type,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Value       *float64   `json:"value,omitempty"`
	Extensions
}

// ViewContentData is the custom data of ViewContent.
type ViewContentData struct {
	ContentIDs  ContentIDs `json:"content_ids,omitempty"`
	ContentType *string    `json:"content_type,omitempty"`
	Contents    []Content  `json:"contents,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Value       *float64   `json:"value,omitempty"`
	ItemNumber  *string    `json:"item_number,omitempty"`
	Extensions
}

// Standard events without typed attributes.
type (
	ContactData           struct{ Extensions }
	CustomizeProductData  struct{ Extensions }
	DonateData            struct{ Extensions }
	FindLocationData      struct{ Extensions }
	ScheduleData          struct{ Extensions }
	SubmitApplicationData struct{ Extensions }
)

// CustomEventData is the custom data of a non-standard event name. All of
// its keys live in the extension bag.
type CustomEventData struct {
	Extensions
}

var variantFactories = map[EventName]func() CustomData{
	EventAddPaymentInfo:       func() CustomData { return &AddPaymentInfoData{} },
	EventAddToCart:            func() CustomData { return &AddToCartData{} },
	EventAddToWishlist:        func() CustomData { return &AddToWishlistData{} },
	EventCompleteRegistration: func() CustomData { return &CompleteRegistrationData{} },
	EventContact:              func() CustomData { return &ContactData{} },
	EventCustomizeProduct:     func() CustomData { return &CustomizeProductData{} },
	EventDonate:               func() CustomData { return &DonateData{} },
	EventFindLocation:         func() CustomData { return &FindLocationData{} },
	EventInitiateCheckout:     func() CustomData { return &InitiateCheckoutData{} },
	EventLead:                 func() CustomData { return &LeadData{} },
	EventPageView:             func() CustomData { return &PageViewData{} },
	EventPurchase:             func() CustomData { return &PurchaseData{} },
	EventSchedule:             func() CustomData { return &ScheduleData{} },
	EventSearch:               func() CustomData { return &SearchData{} },
	EventStartTrial:           func() CustomData { return &StartTrialData{} },
	EventSubmitApplication:    func() CustomData { return &SubmitApplicationData{} },
	EventSubscribe:            func() CustomData { return &SubscribeData{} },
	EventViewContent:          func() CustomData { return &ViewContentData{} },
}

// DecodeCustomData partitions raw into the typed attributes of name's
// variant and an extension bag holding every other key unchanged. A known
// key whose value has the wrong shape yields a *ShapeError; nothing else
// is validated.
func DecodeCustomData(name EventName, raw map[string]any) (CustomData, error) {
	factory, ok := variantFactories[name]
	if !ok {
		data := &CustomEventData{}
		if len(raw) > 0 {
			data.setProperties(maps.Clone(raw))
		}
		return data, nil
	}

	data := factory()
	keys := knownKeys(reflect.TypeOf(data).Elem())

	known := make(map[string]any)
	var extra map[string]any
	for k, v := range raw {
		if _, isKnown := keys[k]; isKnown {
			known[k] = v
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}

	if len(known) > 0 {
		encoded, err := json.Marshal(known)
		if err != nil {
			return nil, &ShapeError{Field: "custom_data", Err: err}
		}
		if err = json.Unmarshal(encoded, data); err != nil {
			return nil, shapeErrorFrom(err)
		}
	}
	data.(propertySetter).setProperties(extra)

	return data, nil
}

// FlattenCustomData renders data as a single JSON-ready map: the typed
// attributes that are present plus the extension bag. It returns nil for
// nil or empty data.
func FlattenCustomData(data CustomData) map[string]any {
	if data == nil {
		return nil
	}

	out := maps.Clone(data.Properties())
	if out == nil {
		out = make(map[string]any)
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		name, ok := jsonName(field)
		if !ok {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Pointer:
			if fv.IsNil() {
				continue
			}
			out[name] = fv.Elem().Interface()
		case reflect.Slice:
			if fv.IsNil() {
				continue
			}
			out[name] = fv.Interface()
		default:
			out[name] = fv.Interface()
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

var knownKeyCache sync.Map // reflect.Type -> map[string]struct{}

func knownKeys(t reflect.Type) map[string]struct{} {
	if cached, ok := knownKeyCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		if name, ok := jsonName(t.Field(i)); ok {
			keys[name] = struct{}{}
		}
	}
	knownKeyCache.Store(t, keys)
	return keys
}

func jsonName(field reflect.StructField) (string, bool) {
	if field.Anonymous || !field.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}

func shapeErrorFrom(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ShapeError{Field: typeErr.Field, Err: err}
	}
	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr
	}
	return &ShapeError{Field: "custom_data", Err: err}
}
