package pricing

import (
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckEligibility decides whether coupon may be applied to a cart with the
// given subtotal. The first failing rule wins, in this order: not found,
// inactive, not yet valid, expired, below minimum, coupon exhausted, user
// limit reached.
//
// The same function serves the advisory check when a coupon is applied to a
// cart and the authoritative check inside order placement.
func CheckEligibility(coupon *models.Coupon, subtotal decimal.Decimal, userID uuid.UUID, userUsageCount int, now time.Time) models.Eligibility {

	switch {
	case coupon == nil:
		return rejected(models.RejectionNotFound)
	case !coupon.IsActive:
		return rejected(models.RejectionInactive)
	case now.Before(coupon.ValidFrom):
		return rejected(models.RejectionNotYetValid)
	case now.After(coupon.ValidUntil):
		return rejected(models.RejectionExpired)
	case subtotal.LessThan(coupon.MinimumPurchaseAmount):
		return rejected(models.RejectionBelowMinimum)
	case coupon.UsageLimitPerCoupon != nil && coupon.TimesUsed >= *coupon.UsageLimitPerCoupon:
		return rejected(models.RejectionCouponExhausted)
	case coupon.UsageLimitPerUser != nil && userUsageCount >= *coupon.UsageLimitPerUser:
		return rejected(models.RejectionUserLimitReached)
	}

	return models.Eligibility{Eligible: true, Coupon: Snapshot(coupon)}
}

// Snapshot copies the fields a cart keeps about its applied coupon.
func Snapshot(coupon *models.Coupon) *models.AppliedCoupon {
	return &models.AppliedCoupon{
		Code:                  coupon.Code,
		DiscountType:          coupon.DiscountType,
		DiscountValue:         coupon.DiscountValue,
		MinimumPurchaseAmount: coupon.MinimumPurchaseAmount,
	}
}

// NormalizeCode gives coupon codes their canonical, case-insensitive form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func rejected(reason models.RejectionReason) models.Eligibility {
	return models.Eligibility{Eligible: false, Reason: reason}
}
