package service_test

import (
	"context"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quoteItem(productID string, price string, qty int) models.QuoteItem {
	return models.QuoteItem{
		ProductID: productID,
		Category:  "misc",
		BasePrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success - Identical line replaces the earlier one", func(t *testing.T) {
		d := newDeps()

		resp, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items: []models.QuoteItem{quoteItem("A", "20.00", 1), quoteItem("A", "20.00", 2)},
		})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 2, resp.Items[0].Quantity)
		assert.Equal(t, "40.00", resp.Breakdown.ItemsPrice.StringFixed(2))
		assert.Equal(t, "10.00", resp.Breakdown.ShippingPrice.StringFixed(2))
		assert.Equal(t, "6.00", resp.Breakdown.TaxPrice.StringFixed(2))
		assert.Equal(t, "56.00", resp.Breakdown.TotalPrice.StringFixed(2))
		assert.Nil(t, resp.Eligibility)
		d.assertExpectations(t)
	})

	t.Run("Success - Eligible coupon is discounted", func(t *testing.T) {
		d := newDeps()
		d.cacheMiss()
		coupon := activeCoupon("TENOFF", models.DiscountTypeFixedAmount, "10", "50")
		d.coupons.On("GetCouponByCode", mock.Anything, "TENOFF").Return(coupon, nil).Once()
		d.coupons.On("CountUserRedemptions", mock.Anything, coupon.ID, userID).Return(0, nil).Once()

		resp, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items:      []models.QuoteItem{quoteItem("A", "120.00", 1)},
			CouponCode: "tenoff",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Eligibility)
		assert.True(t, resp.Eligibility.Eligible)
		assert.Equal(t, "10.00", resp.Breakdown.DiscountAmount.StringFixed(2))
		assert.Equal(t, "110.00", resp.Breakdown.DiscountedItemsPrice.StringFixed(2))
		assert.Equal(t, "0.00", resp.Breakdown.ShippingPrice.StringFixed(2))
	})

	t.Run("Success - Ineligible coupon is reported but not applied", func(t *testing.T) {
		d := newDeps()
		d.cacheMiss()
		coupon := activeCoupon("TENOFF", models.DiscountTypeFixedAmount, "10", "50")
		d.coupons.On("GetCouponByCode", mock.Anything, "TENOFF").Return(coupon, nil).Once()
		d.coupons.On("CountUserRedemptions", mock.Anything, coupon.ID, userID).Return(0, nil).Once()

		resp, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items:      []models.QuoteItem{quoteItem("A", "20.00", 1)},
			CouponCode: "TENOFF",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Eligibility)
		assert.False(t, resp.Eligibility.Eligible)
		assert.Equal(t, models.RejectionBelowMinimum, resp.Eligibility.Reason)
		assert.True(t, resp.Breakdown.DiscountAmount.IsZero())
	})

	t.Run("Success - Unknown coupon", func(t *testing.T) {
		d := newDeps()
		d.cacheMiss()
		d.coupons.On("GetCouponByCode", mock.Anything, "NOPE").Return(nil, errNoRows).Once()

		resp, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items:      []models.QuoteItem{quoteItem("A", "20.00", 1)},
			CouponCode: "nope",
		})

		require.NoError(t, err)
		assert.Equal(t, models.RejectionNotFound, resp.Eligibility.Reason)
		d.coupons.AssertNotCalled(t, "CountUserRedemptions", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Negative price", func(t *testing.T) {
		d := newDeps()

		_, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items: []models.QuoteItem{quoteItem("A", "-1.00", 1)},
		})

		appErr := requireAppError(t, err, appErrors.ErrCodeValidation)
		assert.Contains(t, appErr.Message, "base_price")
	})

	t.Run("Failure - Coupon lookup fails", func(t *testing.T) {
		d := newDeps()
		d.cacheMiss()
		d.coupons.On("GetCouponByCode", mock.Anything, "TENOFF").Return(nil, errDB).Once()

		_, err := d.quoteService().Quote(ctx, userID, &models.QuoteRequest{
			Items:      []models.QuoteItem{quoteItem("A", "20.00", 1)},
			CouponCode: "TENOFF",
		})

		requireAppError(t, err, appErrors.ErrCodeDatabaseError)
	})
}
