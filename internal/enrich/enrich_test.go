package enrich_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/enrich"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
)

func fullContext() *requestctx.RequestContext {
	return &requestctx.RequestContext{
		IP:        "1.2.3.4",
		UserAgent: domain.Ptr("Mozilla/5.0"),
		Referrer:  domain.Ptr("https://shop.example/"),
		Fbp:       domain.Ptr("fb.1.111.222"),
		Fbc:       domain.Ptr("fb.1.111.click"),
		City:      domain.Ptr("Paris"),
		Region:    domain.Ptr("IDF"),
		Country:   domain.Ptr("FR"),
	}
}

func TestMergeUserData_FillsOmittedFields(t *testing.T) {
	merged := enrich.MergeUserData(domain.UserData{}, fullContext(), enrich.Policy{})

	require.NotNil(t, merged.Fbp)
	assert.Equal(t, "fb.1.111.222", *merged.Fbp)
	require.NotNil(t, merged.Fbc)
	assert.Equal(t, "fb.1.111.click", *merged.Fbc)
	require.NotNil(t, merged.ClientIPAddress)
	assert.Equal(t, "1.2.3.4", *merged.ClientIPAddress)
	require.NotNil(t, merged.ClientUserAgent)
	assert.Equal(t, "Mozilla/5.0", *merged.ClientUserAgent)
}

func TestMergeUserData_PerFieldNotWholesale(t *testing.T) {
	explicit := domain.UserData{Email: domain.Ptr("x@example.com")}

	merged := enrich.MergeUserData(explicit, fullContext(), enrich.Policy{})

	require.NotNil(t, merged.Email)
	assert.Equal(t, "x@example.com", *merged.Email)
	require.NotNil(t, merged.Fbp)
	assert.Equal(t, "fb.1.111.222", *merged.Fbp)
	require.NotNil(t, merged.ClientIPAddress)
}

func TestMergeUserData_ExplicitEmptyStringWins(t *testing.T) {
	explicit := domain.UserData{
		Fbp:  domain.Ptr(""),
		City: domain.Ptr(""),
	}

	merged := enrich.MergeUserData(explicit, fullContext(), enrich.Policy{GeoFallback: true})

	require.NotNil(t, merged.Fbp)
	assert.Empty(t, *merged.Fbp)
	require.NotNil(t, merged.City)
	assert.Empty(t, *merged.City)
}

func TestMergeUserData_CleanModeUsesOnlyExplicit(t *testing.T) {
	explicit := domain.UserData{Email: domain.Ptr("x@example.com")}

	merged := enrich.MergeUserData(explicit, nil, enrich.Policy{GeoFallback: true})

	assert.Equal(t, explicit, merged)
	assert.Nil(t, merged.ClientIPAddress)
	assert.Nil(t, merged.ClientUserAgent)
	assert.Nil(t, merged.Fbp)
	assert.Nil(t, merged.Fbc)
}

func TestMergeUserData_GeoFallbackDisabled(t *testing.T) {
	merged := enrich.MergeUserData(domain.UserData{}, fullContext(), enrich.Policy{GeoFallback: false})

	assert.Nil(t, merged.City)
	assert.Nil(t, merged.State)
	assert.Nil(t, merged.Country)
}

func TestMergeUserData_GeoFallbackEnabled(t *testing.T) {
	merged := enrich.MergeUserData(
		domain.UserData{Country: domain.Ptr("DE")},
		fullContext(),
		enrich.Policy{GeoFallback: true},
	)

	require.NotNil(t, merged.City)
	assert.Equal(t, "Paris", *merged.City)
	require.NotNil(t, merged.State)
	assert.Equal(t, "IDF", *merged.State)
	require.NotNil(t, merged.Country)
	assert.Equal(t, "DE", *merged.Country)
}

func TestMergeUserData_SentinelIPStillFills(t *testing.T) {
	rc := &requestctx.RequestContext{IP: requestctx.UnknownIP}

	merged := enrich.MergeUserData(domain.UserData{}, rc, enrich.Policy{})

	require.NotNil(t, merged.ClientIPAddress)
	assert.Equal(t, "0.0.0.0", *merged.ClientIPAddress)
	assert.Nil(t, merged.Fbp)
}

func TestSourceURL(t *testing.T) {
	rc := fullContext()

	got := enrich.SourceURL(nil, rc)
	require.NotNil(t, got)
	assert.Equal(t, "https://shop.example/", *got)

	got = enrich.SourceURL(domain.Ptr(""), rc)
	require.NotNil(t, got)
	assert.Empty(t, *got)

	assert.Nil(t, enrich.SourceURL(nil, nil))
}
