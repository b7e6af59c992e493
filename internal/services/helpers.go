package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
)

// validationFailure turns a pricing.FieldError into a VALIDATION_ERROR. Any
// other error is reported as an internal one.
func validationFailure(err error) error {
	var fieldErr *pricing.FieldError
	if errors.As(err, &fieldErr) {
		return appErrors.AddValidationError(fieldErr.Field, fieldErr.Reason).WithError(err)
	}

	return appErrors.InternalError("Failed to validate pricing input").WithError(err)
}

// lookupCoupon reads a coupon through the cache. A missing coupon is (nil, nil)
// so that the eligibility check can report NOT_FOUND itself.
func lookupCoupon(ctx context.Context, repo repository.CouponRepository, c cache.Cache, code string) (*models.Coupon, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.CouponKeyPrefix, code)

	var cached models.Coupon
	found, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Coupon cache read failed, falling back to database", slog.String("code", code), slog.Any("error", err))
	} else if found {
		return &cached, nil
	}

	coupon, err := repo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.DatabaseError("Failed to retrieve coupon").WithError(err)
	}

	if err := c.Set(ctx, key, coupon, 0); err != nil {
		logger.Warn("Failed to cache coupon", slog.String("code", code), slog.Any("error", err))
	}

	return coupon, nil
}

func eligibilityResult(e models.Eligibility) string {
	if e.Eligible {
		return "eligible"
	}
	return string(e.Reason)
}
