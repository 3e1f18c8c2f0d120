// Package requestctx reads the ambient signals of an inbound HTTP request
// (client IP, user agent, referrer, first-party cookies and coarse geo).
package requestctx

import (
	"net/http"
	"strings"
)

// UnknownIP is reported when no proxy header names the client address.
const UnknownIP = "0.0.0.0"

// First-party cookies set by the browser pixel.
const (
	BrowserIDCookie = "_fbp"
	ClickIDCookie   = "_fbc"
)

// Geo headers in lookup order: edge proxy, CDN, generic.
var (
	cityHeaders    = []string{"X-Vercel-IP-City", "CF-IPCity", "X-City"}
	regionHeaders  = []string{"X-Vercel-IP-Country-Region", "CF-Region", "X-Region"}
	countryHeaders = []string{"X-Vercel-IP-Country", "CF-IPCountry", "X-Country"}
)

// RequestContext is the read-only view of one inbound request. Optional
// fields are nil when the request does not carry them.
type RequestContext struct {
	IP        string
	UserAgent *string
	Referrer  *string
	Fbp       *string
	Fbc       *string
	City      *string
	Region    *string
	Country   *string
}

// FromRequest derives a RequestContext from r. Calling it without a
// request is a programming error and panics.
func FromRequest(r *http.Request) RequestContext {
	if r == nil {
		panic("requestctx: FromRequest called outside of a request")
	}

	return RequestContext{
		IP:        clientIP(r.Header),
		UserAgent: header(r.Header, "User-Agent"),
		Referrer:  header(r.Header, "Referer"),
		Fbp:       cookie(r, BrowserIDCookie),
		Fbc:       cookie(r, ClickIDCookie),
		City:      firstHeader(r.Header, cityHeaders),
		Region:    firstHeader(r.Header, regionHeaders),
		Country:   firstHeader(r.Header, countryHeaders),
	}
}

// clientIP resolves x-forwarded-for (first hop), then x-real-ip. A blank
// first hop falls through to x-real-ip.
func clientIP(h http.Header) string {
	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := header(h, "X-Real-IP"); realIP != nil {
		return *realIP
	}
	return UnknownIP
}

// header returns the first value of name, or nil when the header is not
// sent at all. A header sent with an empty value is reported as "".
func header(h http.Header, name string) *string {
	values := h.Values(name)
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func firstHeader(h http.Header, names []string) *string {
	for _, name := range names {
		if v := header(h, name); v != nil {
			return v
		}
	}
	return nil
}

func cookie(r *http.Request, name string) *string {
	c, err := r.Cookie(name)
	if err != nil {
		return nil
	}
	v := c.Value
	return &v
}
