// Package enrich merges caller-supplied user data with the signals of the
// inbound request. A caller value always wins, including an explicit empty
// string; the request value fills only fields the caller left unset.
package enrich

import (
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
)

// Policy controls which request-derived fields take part in the merge.
type Policy struct {
	// GeoFallback fills city, state and country from proxy geo headers.
	GeoFallback bool
}

// MergeUserData resolves every field as explicit, else derived, else
// absent. A nil rc is the clean mode: the result is exactly explicit.
func MergeUserData(explicit domain.UserData, rc *requestctx.RequestContext, policy Policy) domain.UserData {
	merged := explicit
	if rc == nil {
		return merged
	}

	ip := rc.IP
	merged.ClientIPAddress = coalesce(explicit.ClientIPAddress, &ip)
	merged.ClientUserAgent = coalesce(explicit.ClientUserAgent, rc.UserAgent)
	merged.Fbp = coalesce(explicit.Fbp, rc.Fbp)
	merged.Fbc = coalesce(explicit.Fbc, rc.Fbc)

	if policy.GeoFallback {
		merged.City = coalesce(explicit.City, rc.City)
		merged.State = coalesce(explicit.State, rc.Region)
		merged.Country = coalesce(explicit.Country, rc.Country)
	}

	return merged
}

// SourceURL resolves the event source URL the same way: explicit, else
// the request referrer, else absent.
func SourceURL(explicit *string, rc *requestctx.RequestContext) *string {
	if rc == nil {
		return explicit
	}
	return coalesce(explicit, rc.Referrer)
}

func coalesce[T any](explicit, derived *T) *T {
	if explicit != nil {
		return explicit
	}
	return derived
}
