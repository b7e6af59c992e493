package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

type RejectionReason string

// Rejection reasons, listed in evaluation order.
const (
	RejectionNotFound         RejectionReason = "NOT_FOUND"
	RejectionInactive         RejectionReason = "INACTIVE"
	RejectionNotYetValid      RejectionReason = "NOT_YET_VALID"
	RejectionExpired          RejectionReason = "EXPIRED"
	RejectionBelowMinimum     RejectionReason = "BELOW_MINIMUM"
	RejectionCouponExhausted  RejectionReason = "COUPON_EXHAUSTED"
	RejectionUserLimitReached RejectionReason = "USER_LIMIT_REACHED"
)

type Coupon struct {
	ID                    uuid.UUID       `json:"id"`
	Code                  string          `json:"code"`
	Description           string          `json:"description,omitempty"`
	DiscountType          DiscountType    `json:"discount_type"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimum_purchase_amount"`
	IsActive              bool            `json:"is_active"`
	ValidFrom             time.Time       `json:"valid_from"`
	ValidUntil            time.Time       `json:"valid_until"`
	UsageLimitPerCoupon   *int            `json:"usage_limit_per_coupon"`
	UsageLimitPerUser     *int            `json:"usage_limit_per_user"`
	TimesUsed             int             `json:"times_used"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// AppliedCoupon is the snapshot of a coupon stored on the cart at apply time.
type AppliedCoupon struct {
	Code                  string          `json:"code"`
	DiscountType          DiscountType    `json:"discount_type"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimum_purchase_amount"`
}

// Eligibility is the outcome of a coupon check. A rejection is a normal
// result, not an error.
type Eligibility struct {
	Eligible bool            `json:"eligible"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Coupon   *AppliedCoupon  `json:"coupon,omitempty"`
}

type CouponRedemption struct {
	CouponID   uuid.UUID `json:"coupon_id"`
	UserID     uuid.UUID `json:"user_id"`
	OrderID    uuid.UUID `json:"order_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type CreateCouponRequest struct {
	Code                  string          `json:"code" validate:"required,min=3,max=64"`
	Description           string          `json:"description,omitempty" validate:"max=500"`
	DiscountType          DiscountType    `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	MinimumPurchaseAmount decimal.Decimal `json:"minimum_purchase_amount"`
	IsActive              *bool           `json:"is_active,omitempty"`
	ValidFrom             time.Time       `json:"valid_from" validate:"required"`
	ValidUntil            time.Time       `json:"valid_until" validate:"required,gtefield=ValidFrom"`
	UsageLimitPerCoupon   *int            `json:"usage_limit_per_coupon,omitempty" validate:"omitempty,gte=0"`
	UsageLimitPerUser     *int            `json:"usage_limit_per_user,omitempty" validate:"omitempty,gte=0"`
}

type UpdateCouponRequest struct {
	Description           *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	DiscountType          *DiscountType    `json:"discount_type,omitempty" validate:"omitempty,oneof=percentage fixed_amount"`
	DiscountValue         *decimal.Decimal `json:"discount_value,omitempty"`
	MinimumPurchaseAmount *decimal.Decimal `json:"minimum_purchase_amount,omitempty"`
	IsActive              *bool            `json:"is_active,omitempty"`
	ValidFrom             *time.Time       `json:"valid_from,omitempty"`
	ValidUntil            *time.Time       `json:"valid_until,omitempty"`
	UsageLimitPerCoupon   *int             `json:"usage_limit_per_coupon,omitempty" validate:"omitempty,gte=0"`
	UsageLimitPerUser     *int             `json:"usage_limit_per_user,omitempty" validate:"omitempty,gte=0"`
}

type ValidateCouponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=64"`
	// Subtotal is taken from the caller's cart when omitted.
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
}
