// Package pricing derives cart totals and decides coupon eligibility. Nothing
// in this package performs I/O: every function is a plain computation over
// the values it is given.
package pricing

import (
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/shopspring/decimal"
)

type Engine struct {
	rates Rates
}

func NewEngine(rates Rates) *Engine {
	return &Engine{rates: rates}
}

func (e *Engine) Rates() Rates {
	return e.rates
}

// PriceItems returns a copy of items with UnitPrice derived from BasePrice,
// customizations and the active promotions. The input is not modified.
func (e *Engine) PriceItems(items []models.LineItem) []models.LineItem {
	prices := e.rates.Promotions.EffectivePrices(items)

	priced := make([]models.LineItem, len(items))
	for i, item := range items {
		item.UnitPrice = prices[i]
		priced[i] = item
	}

	return priced
}

// ComputeBreakdown is total: it never fails and never returns negative
// amounts for validated input. The applied coupon is trusted as given;
// re-checking eligibility is the caller's job.
func (e *Engine) ComputeBreakdown(items []models.LineItem, coupon *models.AppliedCoupon) models.PriceBreakdown {

	prices := e.rates.Promotions.EffectivePrices(items)

	itemsPrice := decimal.Zero
	for i, item := range items {
		itemsPrice = itemsPrice.Add(prices[i].Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	itemsPrice = round(itemsPrice)

	discount := e.discount(itemsPrice, coupon)

	discounted := round(itemsPrice.Sub(discount))
	if discounted.IsNegative() {
		discounted = round(decimal.Zero)
	}

	shipping := round(e.rates.FlatShippingRate)
	if discounted.GreaterThan(e.rates.FreeShippingThreshold) {
		shipping = round(decimal.Zero)
	}
	if e.rates.WaiveShippingOnEmptyCart && len(items) == 0 {
		shipping = round(decimal.Zero)
	}

	tax := round(e.rates.TaxRate.Mul(discounted))

	return models.PriceBreakdown{
		ItemsPrice:           itemsPrice,
		DiscountAmount:       discount,
		DiscountedItemsPrice: discounted,
		ShippingPrice:        shipping,
		TaxPrice:             tax,
		TotalPrice:           round(discounted.Add(shipping).Add(tax)),
	}
}

// discount never exceeds itemsPrice and is never negative.
func (e *Engine) discount(itemsPrice decimal.Decimal, coupon *models.AppliedCoupon) decimal.Decimal {
	if coupon == nil {
		return round(decimal.Zero)
	}

	var amount decimal.Decimal

	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		amount = itemsPrice.Mul(coupon.DiscountValue).Div(hundred)
	case models.DiscountTypeFixedAmount:
		amount = decimal.Min(coupon.DiscountValue, itemsPrice)
	default:
		return round(decimal.Zero)
	}

	amount = round(amount)

	if amount.IsNegative() {
		return round(decimal.Zero)
	}
	if amount.GreaterThan(itemsPrice) {
		return itemsPrice
	}

	return amount
}

// round rounds half away from zero to cents, which is half-up for the
// non-negative amounts the engine works with.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
