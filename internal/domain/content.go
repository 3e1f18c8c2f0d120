package domain

import (
	"encoding/json"
	"fmt"
)

// Delivery categories for Purchase events and line items.
const (
	DeliveryInStore      = "in_store"
	DeliveryCurbside     = "curbside"
	DeliveryHomeDelivery = "home_delivery"
)

// Content types.
const (
	ContentTypeProduct      = "product"
	ContentTypeProductGroup = "product_group"
)

// Content is one line item of a cart or order. Keys other than the fields
// below are dropped when a line item is decoded.
type Content struct {
	ID               string   `json:"id"`
	Quantity         int      `json:"quantity"`
	ItemPrice        *float64 `json:"item_price,omitempty"`
	Title            *string  `json:"title,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Brand            *string  `json:"brand,omitempty"`
	Category         *string  `json:"category,omitempty"`
	DeliveryCategory *string  `json:"delivery_category,omitempty"`
}

// ContentIDs is a list of product identifiers. Callers may send strings
// or numbers; numbers are kept in their JSON text form.
type ContentIDs []string

// UnmarshalJSON accepts an array of strings and/or numbers.
func (ids *ContentIDs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ShapeError{Field: "content_ids", Err: err}
	}
	if raw == nil {
		*ids = nil
		return nil
	}

	out := make(ContentIDs, 0, len(raw))
	for i, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && string(item) != "null" {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil || n == "" {
			return &ShapeError{
				Field: fmt.Sprintf("content_ids[%d]", i),
				Err:   fmt.Errorf("want string or number, got %s", item),
			}
		}
		out = append(out, n.String())
	}
	*ids = out
	return nil
}
