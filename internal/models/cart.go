package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Customizations is a free-form tailoring record (monogram, lapel, fit ...)
// with its own surcharge added on top of the base price.
type Customizations struct {
	Details            map[string]any  `json:"details,omitempty"`
	CustomizationPrice decimal.Decimal `json:"customization_price"`
}

// LineItem is one distinct entry of a cart. BasePrice is the catalog price and
// never changes after the item is created; UnitPrice is derived on every
// pricing pass and is only stored for display.
type LineItem struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Image          string          `json:"image,omitempty"`
	Category       string          `json:"category"`
	BasePrice      decimal.Decimal `json:"base_price"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	CountInStock   int             `json:"count_in_stock"`
	SelectedSize   string          `json:"selected_size,omitempty"`
	SelectedColor  *Color          `json:"selected_color,omitempty"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

// LineItemKey identifies a line item inside a cart.
type LineItemKey struct {
	ProductID                 string
	SelectedSize              string
	CustomizationsFingerprint string
}

type Cart struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	Items         []LineItem     `json:"items"`
	AppliedCoupon *AppliedCoupon `json:"applied_coupon,omitempty"`
	Breakdown     PriceBreakdown `json:"breakdown"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type AddItemRequest struct {
	ProductID      string          `json:"product_id" validate:"required,max=64"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	SelectedSize   string          `json:"selected_size,omitempty" validate:"omitempty,max=32"`
	SelectedColor  *Color          `json:"selected_color,omitempty"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

// ItemSelector addresses an existing line item by its identity key.
type ItemSelector struct {
	ProductID      string          `json:"product_id" validate:"required,max=64"`
	SelectedSize   string          `json:"selected_size,omitempty" validate:"omitempty,max=32"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

type UpdateItemRequest struct {
	ItemSelector
	Quantity          *int            `json:"quantity,omitempty" validate:"omitempty,min=1"`
	SelectedColor     *Color          `json:"selected_color,omitempty"`
	NewCustomizations *Customizations `json:"new_customizations,omitempty"`
}

type RemoveItemRequest struct {
	ItemSelector
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=64"`
}

// QuoteItem is an ad-hoc line for a stateless price quote.
type QuoteItem struct {
	ProductID      string          `json:"product_id" validate:"required,max=64"`
	Category       string          `json:"category" validate:"max=64"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	SelectedSize   string          `json:"selected_size,omitempty" validate:"omitempty,max=32"`
	Customizations *Customizations `json:"customizations,omitempty"`
}

type QuoteRequest struct {
	Items      []QuoteItem `json:"items" validate:"required,min=1,dive"`
	CouponCode string      `json:"coupon_code,omitempty" validate:"omitempty,min=3,max=64"`
}

type QuoteResponse struct {
	Items       []LineItem     `json:"items"`
	Breakdown   PriceBreakdown `json:"breakdown"`
	Eligibility *Eligibility   `json:"eligibility,omitempty"`
}
