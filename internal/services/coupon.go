package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, code string, req *models.UpdateCouponRequest) (*models.Coupon, error)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
	ListCoupons(ctx context.Context, page, size int) ([]*models.Coupon, int, error)
	ValidateCoupon(ctx context.Context, userID uuid.UUID, req *models.ValidateCouponRequest) (*models.Eligibility, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	cache      cache.Cache
	engine     *pricing.Engine
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository, cache cache.Cache, engine *pricing.Engine) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		cache:      cache,
		engine:     engine,
		now:        time.Now,
	}
}

func (s *couponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {

	logger := middleware.LoggerFromContext(ctx)

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.now()

	coupon := &models.Coupon{
		ID:                    uuid.New(),
		Code:                  pricing.NormalizeCode(req.Code),
		Description:           utils.SanitizeText(req.Description),
		DiscountType:          req.DiscountType,
		DiscountValue:         req.DiscountValue,
		MinimumPurchaseAmount: req.MinimumPurchaseAmount,
		IsActive:              isActive,
		ValidFrom:             req.ValidFrom,
		ValidUntil:            req.ValidUntil,
		UsageLimitPerCoupon:   req.UsageLimitPerCoupon,
		UsageLimitPerUser:     req.UsageLimitPerUser,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := pricing.ValidateCoupon(coupon); err != nil {
		return nil, validationFailure(err)
	}

	if err := s.couponRepo.CreateCoupon(ctx, coupon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.DuplicateEntryError("Coupon code already exists").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to create coupon").WithError(err)
	}

	logger.Info("Coupon created", slog.String("code", coupon.Code), slog.String("couponId", coupon.ID.String()))

	return coupon, nil
}

// UpdateCoupon changes the mutable fields; the code and the usage counter are
// never touched here.
func (s *couponService) UpdateCoupon(ctx context.Context, code string, req *models.UpdateCouponRequest) (*models.Coupon, error) {

	code = pricing.NormalizeCode(code)

	coupon, err := s.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Coupon not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to retrieve coupon").WithError(err)
	}

	if req.Description != nil {
		coupon.Description = utils.SanitizeText(*req.Description)
	}
	if req.DiscountType != nil {
		coupon.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MinimumPurchaseAmount != nil {
		coupon.MinimumPurchaseAmount = *req.MinimumPurchaseAmount
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		coupon.ValidUntil = *req.ValidUntil
	}
	if req.UsageLimitPerCoupon != nil {
		coupon.UsageLimitPerCoupon = req.UsageLimitPerCoupon
	}
	if req.UsageLimitPerUser != nil {
		coupon.UsageLimitPerUser = req.UsageLimitPerUser
	}

	if err := pricing.ValidateCoupon(coupon); err != nil {
		return nil, validationFailure(err)
	}

	coupon.UpdatedAt = s.now()

	if err := s.couponRepo.UpdateCoupon(ctx, coupon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Coupon not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to update coupon").WithError(err)
	}

	if err := s.cache.Delete(ctx, cache.Key(cache.CouponKeyPrefix, code)); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to evict coupon from cache", slog.String("code", code), slog.Any("error", err))
	}

	return coupon, nil
}

func (s *couponService) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {

	coupon, err := s.couponRepo.GetCouponByCode(ctx, pricing.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Coupon not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to retrieve coupon").WithError(err)
	}

	return coupon, nil
}

func (s *couponService) ListCoupons(ctx context.Context, page, size int) ([]*models.Coupon, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	coupons, total, err := s.couponRepo.ListCoupons(ctx, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to list coupons").WithError(err)
	}

	return coupons, total, nil
}

// ValidateCoupon is advisory: a rejection is returned as a result, not an
// error. Without an explicit subtotal the caller's cart is used.
func (s *couponService) ValidateCoupon(ctx context.Context, userID uuid.UUID, req *models.ValidateCouponRequest) (*models.Eligibility, error) {

	code := pricing.NormalizeCode(req.Code)

	subtotal, err := s.subtotal(ctx, userID, req.Subtotal)
	if err != nil {
		return nil, err
	}

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

	eligibility := pricing.CheckEligibility(coupon, subtotal, userID, usage, s.now())
	metrics.RecordCouponCheck("validate", eligibilityResult(eligibility))

	return &eligibility, nil
}

func (s *couponService) subtotal(ctx context.Context, userID uuid.UUID, given *decimal.Decimal) (decimal.Decimal, error) {

	if given != nil {
		if given.IsNegative() {
			return decimal.Zero, appErrors.AddValidationError("subtotal", "must not be negative")
		}
		return *given, nil
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, appErrors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	return s.engine.ComputeBreakdown(cart.Items, nil).ItemsPrice, nil
}
