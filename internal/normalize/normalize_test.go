package normalize_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/enrich"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/normalize"
	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/requestctx"
)

var fixedNow = time.Date(2026, 3, 1, 12, 30, 45, 999_000_000, time.UTC)

func newNormalizer(opts ...normalize.Option) *normalize.Normalizer {
	base := []normalize.Option{
		normalize.WithClock(func() time.Time { return fixedNow }),
		normalize.WithIDGenerator(func() (string, error) { return "generated-id", nil }),
	}
	return normalize.New(append(base, opts...)...)
}

func requestContext() *requestctx.RequestContext {
	return &requestctx.RequestContext{
		IP:        "1.2.3.4",
		UserAgent: domain.Ptr("Mozilla/5.0"),
		Referrer:  domain.Ptr("https://shop.example/product/1"),
		Fbp:       domain.Ptr("fb.1.111.222"),
		City:      domain.Ptr("Paris"),
	}
}

func TestNormalize_Defaults(t *testing.T) {
	ev, err := newNormalizer().Normalize(domain.PartialEvent{EventName: domain.EventPageView}, requestContext())
	require.NoError(t, err)

	assert.Equal(t, "generated-id", ev.EventID)
	assert.Equal(t, fixedNow.Unix(), ev.EventTime)
	assert.Equal(t, domain.ActionSourceWebsite, ev.ActionSource)
	require.NotNil(t, ev.EventSourceURL)
	assert.Equal(t, "https://shop.example/product/1", *ev.EventSourceURL)
	require.NotNil(t, ev.UserData.Fbp)
	assert.Equal(t, "fb.1.111.222", *ev.UserData.Fbp)
}

func TestNormalize_ExplicitValuesKept(t *testing.T) {
	partial := domain.PartialEvent{
		EventName:      domain.EventLead,
		EventID:        domain.Ptr("abc"),
		EventTime:      domain.Ptr(int64(1_700_000_000)),
		EventSourceURL: domain.Ptr("https://landing.example/"),
		ActionSource:   domain.Ptr(string(domain.ActionSourceEmail)),
	}

	ev, err := newNormalizer().Normalize(partial, requestContext())
	require.NoError(t, err)

	assert.Equal(t, "abc", ev.EventID)
	assert.Equal(t, int64(1_700_000_000), ev.EventTime)
	assert.Equal(t, "https://landing.example/", *ev.EventSourceURL)
	assert.Equal(t, domain.ActionSourceEmail, ev.ActionSource)
}

func TestNormalize_ExplicitEmptyActionSourceKept(t *testing.T) {
	partial := domain.PartialEvent{
		EventName:    domain.EventLead,
		ActionSource: domain.Ptr(""),
	}

	ev, err := newNormalizer().Normalize(partial, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSource(""), ev.ActionSource)
}

func TestNormalize_EmptyEventIDIsGenerated(t *testing.T) {
	ev, err := newNormalizer().Normalize(domain.PartialEvent{
		EventName: domain.EventLead,
		EventID:   domain.Ptr(""),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "generated-id", ev.EventID)
}

func TestNormalize_MissingEventName(t *testing.T) {
	_, err := newNormalizer().Normalize(domain.PartialEvent{}, nil)

	assert.ErrorIs(t, err, normalize.ErrMissingEventName)
}

func TestNormalize_IDGeneratorError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	n := newNormalizer(normalize.WithIDGenerator(func() (string, error) { return "", boom }))

	_, err := n.Normalize(domain.PartialEvent{EventName: domain.EventLead}, nil)

	assert.ErrorIs(t, err, boom)
}

func TestNormalize_ShapeErrorPropagates(t *testing.T) {
	_, err := newNormalizer().Normalize(domain.PartialEvent{
		EventName:  domain.EventPurchase,
		CustomData: map[string]any{"currency": 978},
	}, nil)

	var shapeErr *domain.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "currency", shapeErr.Field)
}

func TestNormalize_NoBusinessValidation(t *testing.T) {
	ev, err := newNormalizer().Normalize(domain.PartialEvent{
		EventName:  domain.EventPurchase,
		CustomData: map[string]any{"value": 42},
	}, nil)
	require.NoError(t, err)

	purchase := ev.CustomData.(*domain.PurchaseData)
	assert.Nil(t, purchase.Currency)
}

func TestNormalize_CleanModeHasOnlyExplicitUserData(t *testing.T) {
	explicit := domain.UserData{Email: domain.Ptr("x@example.com")}

	ev, err := newNormalizer(normalize.WithPolicy(enrich.Policy{GeoFallback: true})).Normalize(
		domain.PartialEvent{EventName: domain.EventLead, UserData: explicit},
		nil,
	)
	require.NoError(t, err)

	assert.Equal(t, explicit, ev.UserData)
	assert.Nil(t, ev.EventSourceURL)
}

func TestNormalize_CustomDataRoundTrip(t *testing.T) {
	ev, err := newNormalizer().Normalize(domain.PartialEvent{
		EventName: domain.EventAddToCart,
		CustomData: map[string]any{
			"value":         10.1,
			"currency":      "USD",
			"my_custom_key": "x",
		},
	}, nil)
	require.NoError(t, err)

	cart := ev.CustomData.(*domain.AddToCartData)
	assert.InDelta(t, 10.1, *cart.Value, 1e-9)
	assert.Equal(t, "USD", *cart.Currency)
	assert.Equal(t, "x", cart.Properties()["my_custom_key"])
}

func TestNormalize_PassesServerOptionsThrough(t *testing.T) {
	opts := domain.ServerOptions{
		OptOut:                       domain.Ptr(false),
		DataProcessingOptions:        []string{"LDU"},
		DataProcessingOptionsCountry: domain.Ptr(1),
		DataProcessingOptionsState:   domain.Ptr(1000),
	}

	ev, err := newNormalizer().Normalize(domain.PartialEvent{
		EventName:     domain.EventLead,
		ServerOptions: opts,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, opts, ev.ServerOptions)
}

func TestNormalize_GeneratedIDsUniqueAndSortable(t *testing.T) {
	const count = 10_000
	n := normalize.New()

	ids := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for range count {
		ev, err := n.Normalize(domain.PartialEvent{EventName: domain.EventPageView}, nil)
		require.NoError(t, err)
		ids = append(ids, ev.EventID)
		seen[ev.EventID] = struct{}{}
	}

	assert.Len(t, seen, count)
	assert.True(t, slices.IsSorted(ids), "UUIDv7 ids must sort by generation time")
}

func TestNormalize_PackageLevel(t *testing.T) {
	ev, err := normalize.Normalize(domain.PartialEvent{EventName: "Custom"}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.IsType(t, &domain.CustomEventData{}, ev.CustomData)
}
