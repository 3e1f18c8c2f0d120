package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
)

func TestDecodeCustomData_PartitionsKnownAndExtensionKeys(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventAddToCart, map[string]any{
		"value":         10.1,
		"currency":      "USD",
		"my_custom_key": "x",
	})
	require.NoError(t, err)

	cart, ok := data.(*domain.AddToCartData)
	require.True(t, ok, "expected *AddToCartData, got %T", data)
	require.NotNil(t, cart.Value)
	assert.InDelta(t, 10.1, *cart.Value, 1e-9)
	require.NotNil(t, cart.Currency)
	assert.Equal(t, "USD", *cart.Currency)
	assert.Equal(t, map[string]any{"my_custom_key": "x"}, cart.Properties())
}

func TestDecodeCustomData_KeepsContentsInOrder(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventPurchase, map[string]any{
		"contents": []any{
			map[string]any{"id": "B", "quantity": 2, "item_price": 5.5},
			map[string]any{"id": "A", "quantity": 1, "delivery_category": "curbside"},
		},
	})
	require.NoError(t, err)

	purchase := data.(*domain.PurchaseData)
	require.Len(t, purchase.Contents, 2)
	assert.Equal(t, "B", purchase.Contents[0].ID)
	assert.Equal(t, 2, purchase.Contents[0].Quantity)
	assert.Equal(t, "A", purchase.Contents[1].ID)
	require.NotNil(t, purchase.Contents[1].DeliveryCategory)
	assert.Equal(t, domain.DeliveryCurbside, *purchase.Contents[1].DeliveryCategory)
}

func TestDecodeCustomData_ContentsDropUndefinedKeys(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventPurchase, map[string]any{
		"contents": []any{
			map[string]any{"id": "a", "quantity": 1, "color": "red"},
		},
	})
	require.NoError(t, err)

	flat := domain.FlattenCustomData(data)
	assert.Equal(t, []domain.Content{{ID: "a", Quantity: 1}}, flat["contents"])
	assert.NotContains(t, flat, "color")
}

func TestDecodeCustomData_ContentIDsAcceptNumbers(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventViewContent, map[string]any{
		"content_ids": []any{123, "SKU-9"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ContentIDs{"123", "SKU-9"}, data.(*domain.ViewContentData).ContentIDs)
}

func TestDecodeCustomData_ShapeMismatch(t *testing.T) {
	_, err := domain.DecodeCustomData(domain.EventPurchase, map[string]any{
		"value": "ten",
	})
	require.Error(t, err)

	var shapeErr *domain.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "value", shapeErr.Field)
}

func TestDecodeCustomData_CustomNameKeepsEverythingAsExtensions(t *testing.T) {
	raw := map[string]any{"value": 3, "currency": "EUR", "plan": "pro"}
	data, err := domain.DecodeCustomData("UpgradedPlan", raw)
	require.NoError(t, err)

	_, ok := data.(*domain.CustomEventData)
	require.True(t, ok)
	assert.Equal(t, raw, data.Properties())

	raw["plan"] = "mutated"
	assert.Equal(t, "pro", data.Properties()["plan"], "extension bag must not alias caller input")
}

func TestDecodeCustomData_KeepsExplicitZeroValue(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventLead, map[string]any{"value": 0})
	require.NoError(t, err)

	flat := domain.FlattenCustomData(data)
	assert.Equal(t, map[string]any{"value": float64(0)}, flat)
}

func TestFlattenCustomData(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventSearch, map[string]any{
		"search_string": "shoes",
		"source":        "header",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"search_string": "shoes",
		"source":        "header",
	}, domain.FlattenCustomData(data))

	empty, err := domain.DecodeCustomData(domain.EventContact, nil)
	require.NoError(t, err)
	assert.Nil(t, domain.FlattenCustomData(empty))
	assert.Nil(t, domain.FlattenCustomData(nil))
}

func TestEventName_IsStandard(t *testing.T) {
	assert.True(t, domain.EventPurchase.IsStandard())
	assert.True(t, domain.EventSubmitApplication.IsStandard())
	assert.False(t, domain.EventName("UpgradedPlan").IsStandard())
}

func TestTrackingEvent_BrowserEventOmitsServerFields(t *testing.T) {
	data, err := domain.DecodeCustomData(domain.EventLead, map[string]any{"currency": "USD"})
	require.NoError(t, err)

	ev := domain.TrackingEvent{
		EventName:    domain.EventLead,
		EventID:      "abc",
		EventTime:    1700000000,
		ActionSource: domain.ActionSourceWebsite,
		CustomData:   data,
		UserData:     domain.UserData{Email: domain.Ptr("a@example.com")},
		ServerOptions: domain.ServerOptions{
			OptOut: domain.Ptr(true),
		},
	}

	browser := ev.BrowserEvent()
	assert.Equal(t, domain.BrowserEvent{
		EventName:  domain.EventLead,
		CustomData: map[string]any{"currency": "USD"},
		EventID:    "abc",
	}, browser)
}
