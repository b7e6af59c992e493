package service

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/observability"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// QuoteService prices an ad-hoc cart without touching any stored cart.
type QuoteService interface {
	Quote(ctx context.Context, userID uuid.UUID, req *models.QuoteRequest) (*models.QuoteResponse, error)
}

type quoteService struct {
	couponRepo repository.CouponRepository
	cache      cache.Cache
	engine     *pricing.Engine
	now        func() time.Time
}

func NewQuoteService(couponRepo repository.CouponRepository, cache cache.Cache, engine *pricing.Engine) QuoteService {
	return &quoteService{couponRepo: couponRepo, cache: cache, engine: engine, now: time.Now}
}

// Quote discounts only when the coupon is eligible; the eligibility result is
// returned either way.
func (s *quoteService) Quote(ctx context.Context, userID uuid.UUID, req *models.QuoteRequest) (*models.QuoteResponse, error) {

	ctx, span := observability.Tracer().Start(ctx, "pricing.quote")
	defer span.End()

	items := make([]models.LineItem, 0, len(req.Items))
	for _, qi := range req.Items {
		items, _ = pricing.Upsert(items, models.LineItem{
			ProductID:      qi.ProductID,
			Name:           qi.ProductID,
			Category:       qi.Category,
			BasePrice:      qi.BasePrice,
			Quantity:       qi.Quantity,
			SelectedSize:   qi.SelectedSize,
			Customizations: qi.Customizations,
		})
	}

	if err := pricing.ValidateItems(items); err != nil {
		return nil, validationFailure(err)
	}

	resp := &models.QuoteResponse{Items: s.engine.PriceItems(items)}

	var applied *models.AppliedCoupon

	if req.CouponCode != "" {
		code := pricing.NormalizeCode(req.CouponCode)

		coupon, err := lookupCoupon(ctx, s.couponRepo, s.cache, code)
		if err != nil {
			return nil, err
		}

		usage := 0
		if coupon != nil {
			usage, err = s.couponRepo.CountUserRedemptions(ctx, coupon.ID, userID)
			if err != nil {
				return nil, appErrors.DatabaseError("Failed to count coupon redemptions").WithError(err)
			}
		}

		subtotal := s.engine.ComputeBreakdown(items, nil).ItemsPrice

		eligibility := pricing.CheckEligibility(coupon, subtotal, userID, usage, s.now())
		metrics.RecordCouponCheck("quote", eligibilityResult(eligibility))

		resp.Eligibility = &eligibility
		applied = eligibility.Coupon
	}

	resp.Breakdown = s.engine.ComputeBreakdown(items, applied)

	span.SetAttributes(
		attribute.Int("quote.items", len(items)),
		attribute.String("quote.total", resp.Breakdown.TotalPrice.StringFixed(2)),
	)

	return resp, nil
}
