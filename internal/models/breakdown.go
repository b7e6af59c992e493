package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PriceBreakdown is the derived monetary state of a cart. Every field is
// rounded to two decimal places by the pricing engine.
type PriceBreakdown struct {
	ItemsPrice           decimal.Decimal `json:"items_price"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	DiscountedItemsPrice decimal.Decimal `json:"discounted_items_price"`
	ShippingPrice        decimal.Decimal `json:"shipping_price"`
	TaxPrice             decimal.Decimal `json:"tax_price"`
	TotalPrice           decimal.Decimal `json:"total_price"`
}

// MarshalJSON renders amounts as fixed two-decimal strings ("125.00"), so
// persisted and displayed values round-trip without drift.
func (b PriceBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ItemsPrice           string `json:"items_price"`
		DiscountAmount       string `json:"discount_amount"`
		DiscountedItemsPrice string `json:"discounted_items_price"`
		ShippingPrice        string `json:"shipping_price"`
		TaxPrice             string `json:"tax_price"`
		TotalPrice           string `json:"total_price"`
	}{
		ItemsPrice:           b.ItemsPrice.StringFixed(2),
		DiscountAmount:       b.DiscountAmount.StringFixed(2),
		DiscountedItemsPrice: b.DiscountedItemsPrice.StringFixed(2),
		ShippingPrice:        b.ShippingPrice.StringFixed(2),
		TaxPrice:             b.TaxPrice.StringFixed(2),
		TotalPrice:           b.TotalPrice.StringFixed(2),
	})
}
