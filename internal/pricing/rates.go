package pricing

import (
	"fmt"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/config"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rates are the externally configured constants of the engine.
type Rates struct {
	FreeShippingThreshold    decimal.Decimal
	FlatShippingRate         decimal.Decimal
	TaxRate                  decimal.Decimal
	WaiveShippingOnEmptyCart bool
	Promotions               Promotions
}

func DefaultRates() Rates {
	return Rates{
		FreeShippingThreshold: decimal.RequireFromString("100.00"),
		FlatShippingRate:      decimal.RequireFromString("10.00"),
		TaxRate:               decimal.RequireFromString("0.15"),
		Promotions:            DefaultPromotions(),
	}
}

func DefaultPromotions() Promotions {
	return Promotions{
		Enabled:               true,
		BundleCategory:        "suits",
		BundleMinItems:        2,
		BundleDiscountPercent: decimal.NewFromInt(30),
		AccessoryAnchor:       "suits",
		AccessoryShirt:        "shirts",
		AccessoryTie:          "ties",
	}
}

// RatesFromConfig parses the decimal strings of the pricing section.
func RatesFromConfig(cfg config.Pricing) (Rates, error) {

	threshold, err := parseAmount("free_shipping_threshold", cfg.FreeShippingThreshold)
	if err != nil {
		return Rates{}, err
	}

	flat, err := parseAmount("flat_shipping_rate", cfg.FlatShippingRate)
	if err != nil {
		return Rates{}, err
	}

	tax, err := parseAmount("tax_rate", cfg.TaxRate)
	if err != nil {
		return Rates{}, err
	}

	bundlePercent, err := parseAmount("promotions.bundle_discount_percent", cfg.Promotions.BundleDiscountPercent)
	if err != nil {
		return Rates{}, err
	}

	if bundlePercent.GreaterThan(hundred) {
		return Rates{}, &FieldError{Field: "promotions.bundle_discount_percent", Reason: "must not exceed 100"}
	}

	return Rates{
		FreeShippingThreshold:    threshold,
		FlatShippingRate:         flat,
		TaxRate:                  tax,
		WaiveShippingOnEmptyCart: cfg.WaiveShippingOnEmptyCart,
		Promotions: Promotions{
			Enabled:               !cfg.Promotions.Disabled,
			BundleCategory:        cfg.Promotions.BundleCategory,
			BundleMinItems:        cfg.Promotions.BundleMinItems,
			BundleDiscountPercent: bundlePercent,
			AccessoryAnchor:       cfg.Promotions.AccessoryAnchor,
			AccessoryShirt:        cfg.Promotions.AccessoryShirt,
			AccessoryTie:          cfg.Promotions.AccessoryTie,
		},
	}, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing config %s: %w", field, err)
	}

	if value.IsNegative() {
		return decimal.Zero, &FieldError{Field: field, Reason: "must not be negative"}
	}

	return value, nil
}
