package pricing

import (
	"fmt"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/shopspring/decimal"
)

// FieldError names the input field that made a pricing input invalid.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field '%s': %s", e.Field, e.Reason)
}

func ValidateItems(items []models.LineItem) error {
	for i, item := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		switch {
		case item.ProductID == "":
			return &FieldError{Field: field("product_id"), Reason: "is required"}
		case item.BasePrice.IsNegative():
			return &FieldError{Field: field("base_price"), Reason: "must not be negative"}
		case !wholeCents(item.BasePrice):
			return &FieldError{Field: field("base_price"), Reason: "must have at most 2 decimal places"}
		case item.Quantity < 1:
			return &FieldError{Field: field("quantity"), Reason: "must be at least 1"}
		case item.CountInStock > 0 && item.Quantity > item.CountInStock:
			return &FieldError{Field: field("quantity"), Reason: fmt.Sprintf("exceeds available stock of %d", item.CountInStock)}
		case item.Customizations != nil && item.Customizations.CustomizationPrice.IsNegative():
			return &FieldError{Field: field("customizations.customization_price"), Reason: "must not be negative"}
		case item.Customizations != nil && !wholeCents(item.Customizations.CustomizationPrice):
			return &FieldError{Field: field("customizations.customization_price"), Reason: "must have at most 2 decimal places"}
		}
	}

	return nil
}

func ValidateAppliedCoupon(c *models.AppliedCoupon) error {
	if c == nil {
		return nil
	}

	return validateDiscount("applied_coupon", c.DiscountType, c.DiscountValue, c.MinimumPurchaseAmount)
}

// ValidateCoupon checks an administrator-defined coupon before it is stored.
func ValidateCoupon(c *models.Coupon) error {
	if c.Code == "" {
		return &FieldError{Field: "code", Reason: "is required"}
	}

	if err := validateDiscount("", c.DiscountType, c.DiscountValue, c.MinimumPurchaseAmount); err != nil {
		return err
	}

	switch {
	case c.ValidUntil.Before(c.ValidFrom):
		return &FieldError{Field: "valid_until", Reason: "must not be before valid_from"}
	case c.UsageLimitPerCoupon != nil && *c.UsageLimitPerCoupon < 0:
		return &FieldError{Field: "usage_limit_per_coupon", Reason: "must not be negative"}
	case c.UsageLimitPerUser != nil && *c.UsageLimitPerUser < 0:
		return &FieldError{Field: "usage_limit_per_user", Reason: "must not be negative"}
	case c.TimesUsed < 0:
		return &FieldError{Field: "times_used", Reason: "must not be negative"}
	}

	return nil
}

func validateDiscount(prefix string, discountType models.DiscountType, value, minimum decimal.Decimal) error {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	switch discountType {
	case models.DiscountTypePercentage:
		if value.GreaterThan(hundred) {
			return &FieldError{Field: field("discount_value"), Reason: "percentage must not exceed 100"}
		}
	case models.DiscountTypeFixedAmount:
	default:
		return &FieldError{Field: field("discount_type"), Reason: fmt.Sprintf("unknown discount type %q", discountType)}
	}

	if !value.IsPositive() {
		return &FieldError{Field: field("discount_value"), Reason: "must be greater than 0"}
	}

	if !wholeCents(value) {
		return &FieldError{Field: field("discount_value"), Reason: "must have at most 2 decimal places"}
	}

	if minimum.IsNegative() {
		return &FieldError{Field: field("minimum_purchase_amount"), Reason: "must not be negative"}
	}

	if !wholeCents(minimum) {
		return &FieldError{Field: field("minimum_purchase_amount"), Reason: "must have at most 2 decimal places"}
	}

	return nil
}

// wholeCents reports whether d fits a NUMERIC(12,2) column without rounding.
// Trailing zeros such as 1.500 are accepted.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
