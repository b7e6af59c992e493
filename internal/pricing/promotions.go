package pricing

import (
	"strings"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/shopspring/decimal"
)

// Promotions are overlays on the effective unit price. They always start from
// a line item's BasePrice, so running them any number of times gives the same
// result.
type Promotions struct {
	Enabled bool

	// Multi-suit bundle: BundleMinItems or more line items in BundleCategory
	// each get BundleDiscountPercent off.
	BundleCategory        string
	BundleMinItems        int
	BundleDiscountPercent decimal.Decimal

	// Free-accessory bundle: one item of each category makes the shirt and tie
	// line items free.
	AccessoryAnchor string
	AccessoryShirt  string
	AccessoryTie    string
}

// ListPrice is the base price plus the customization surcharge.
func ListPrice(item models.LineItem) decimal.Decimal {
	price := item.BasePrice
	if item.Customizations != nil {
		price = price.Add(item.Customizations.CustomizationPrice)
	}

	return price
}

// EffectivePrices returns the unit price of each item, index-aligned with
// items, rounded to cents.
func (p Promotions) EffectivePrices(items []models.LineItem) []decimal.Decimal {

	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = round(ListPrice(item))
	}

	if !p.Enabled {
		return prices
	}

	bundleActive := p.bundleActive(items)
	accessoriesFree := p.accessoriesFree(items)
	keep := hundred.Sub(p.BundleDiscountPercent).Div(hundred)

	for i, item := range items {
		switch {
		case accessoriesFree && (sameCategory(item.Category, p.AccessoryShirt) || sameCategory(item.Category, p.AccessoryTie)):
			prices[i] = round(decimal.Zero)
		case bundleActive && sameCategory(item.Category, p.BundleCategory):
			prices[i] = round(ListPrice(item).Mul(keep))
		}
	}

	return prices
}

func (p Promotions) bundleActive(items []models.LineItem) bool {
	if p.BundleCategory == "" || p.BundleMinItems < 1 {
		return false
	}

	count := 0
	for _, item := range items {
		if sameCategory(item.Category, p.BundleCategory) {
			count++
		}
	}

	return count >= p.BundleMinItems
}

func (p Promotions) accessoriesFree(items []models.LineItem) bool {
	if p.AccessoryAnchor == "" || p.AccessoryShirt == "" || p.AccessoryTie == "" {
		return false
	}

	var anchor, shirt, tie bool
	for _, item := range items {
		anchor = anchor || sameCategory(item.Category, p.AccessoryAnchor)
		shirt = shirt || sameCategory(item.Category, p.AccessoryShirt)
		tie = tie || sameCategory(item.Category, p.AccessoryTie)
	}

	return anchor && shirt && tie
}

func sameCategory(category, target string) bool {
	return target != "" && strings.EqualFold(strings.TrimSpace(category), target)
}
