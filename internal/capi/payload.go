package capi

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
)

// Request is the body of a POST /{pixel_id}/events call.
type Request struct {
	Data          []ServerEvent `json:"data"`
	TestEventCode string        `json:"test_event_code,omitempty"`
	AccessToken   string        `json:"access_token,omitempty"`
}

// ServerEvent is one event in wire form.
type ServerEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	EventSourceURL *string        `json:"event_source_url,omitempty"`
	ActionSource   string         `json:"action_source,omitempty"`
	UserData       map[string]any `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
	domain.ServerOptions
}

// BuildRequest converts ev into its wire request. The access token is not
// included; Client.Send adds it.
func BuildRequest(ev *domain.TrackingEvent, testEventCode string) Request {
	return Request{
		Data:          []ServerEvent{buildServerEvent(ev)},
		TestEventCode: testEventCode,
	}
}

func buildServerEvent(ev *domain.TrackingEvent) ServerEvent {
	return ServerEvent{
		EventName:      string(ev.EventName),
		EventTime:      ev.EventTime,
		EventID:        ev.EventID,
		EventSourceURL: ev.EventSourceURL,
		ActionSource:   string(ev.ActionSource),
		UserData:       encodeUserData(&ev.UserData),
		CustomData:     domain.FlattenCustomData(ev.CustomData),
		ServerOptions:  ev.ServerOptions,
	}
}

type normalizer func(string) string

// userField describes how one user data field is encoded.
type userField struct {
	key       string
	value     *string
	normalize normalizer
	hashed    bool
	list      bool
}

// encodeUserData renders user data under the Graph API keys. Personal
// fields are normalized then hashed; network and cookie fields are sent
// in clear. Fields that normalize to "" are omitted.
func encodeUserData(u *domain.UserData) map[string]any {
	fields := []userField{
		{key: "em", value: u.Email, normalize: normalizeEmail, hashed: true, list: true},
		{key: "ph", value: u.Phone, normalize: digitsOnly, hashed: true, list: true},
		{key: "ge", value: u.Gender, normalize: normalizeGender, hashed: true, list: true},
		{key: "fn", value: u.FirstName, normalize: lowerTrim, hashed: true, list: true},
		{key: "ln", value: u.LastName, normalize: lowerTrim, hashed: true, list: true},
		{key: "db", value: u.DateOfBirth, normalize: digitsOnly, hashed: true, list: true},
		{key: "ct", value: u.City, normalize: lowerNoSpace, hashed: true, list: true},
		{key: "st", value: u.State, normalize: lowerNoSpace, hashed: true, list: true},
		{key: "zp", value: u.Zip, normalize: normalizeZip, hashed: true, list: true},
		{key: "country", value: u.Country, normalize: lowerNoSpace, hashed: true, list: true},
		{key: "external_id", value: u.ExternalID, normalize: strings.TrimSpace, hashed: true, list: true},
		{key: "dobd", value: u.Dobd, normalize: twoDigits, hashed: true},
		{key: "dobm", value: u.Dobm, normalize: twoDigits, hashed: true},
		{key: "doby", value: u.Doby, normalize: digitsOnly, hashed: true},
		{key: "client_ip_address", value: u.ClientIPAddress, normalize: strings.TrimSpace},
		{key: "client_user_agent", value: u.ClientUserAgent},
		{key: "fbp", value: u.Fbp},
		{key: "fbc", value: u.Fbc},
		{key: "subscription_id", value: u.SubscriptionID},
		{key: "fb_login_id", value: u.FbLoginID},
		{key: "lead_id", value: u.LeadID},
		{key: "madid", value: u.Madid},
		{key: "anon_id", value: u.AnonID},
		{key: "app_user_id", value: u.AppUserID},
		{key: "ctwa_clid", value: u.CtwaClid},
		{key: "page_id", value: u.PageID},
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := *f.value
		if f.hashed {
			if lower := strings.ToLower(strings.TrimSpace(v)); isSHA256(lower) {
				out[f.key] = wrap(lower, f.list)
				continue
			}
		}
		if f.normalize != nil {
			v = f.normalize(v)
		}
		if v == "" {
			continue
		}
		if f.hashed {
			v = hashValue(v)
		}
		out[f.key] = wrap(v, f.list)
	}
	return out
}

func wrap(v string, list bool) any {
	if list {
		return []string{v}
	}
	return v
}

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

func isSHA256(v string) bool {
	return sha256Pattern.MatchString(v)
}

func hashValue(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

func lowerTrim(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeEmail(v string) string {
	return lowerTrim(v)
}

func lowerNoSpace(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), ""))
}

func digitsOnly(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, v)
}

func normalizeGender(v string) string {
	v = lowerTrim(v)
	switch {
	case strings.HasPrefix(v, "f"):
		return "f"
	case strings.HasPrefix(v, "m"):
		return "m"
	default:
		return ""
	}
}

func normalizeZip(v string) string {
	v = lowerNoSpace(v)
	if before, _, found := strings.Cut(v, "-"); found {
		return before
	}
	return v
}

func twoDigits(v string) string {
	v = digitsOnly(v)
	if len(v) == 1 {
		return "0" + v
	}
	return v
}
