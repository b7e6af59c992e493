package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/observability"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, req *models.RemoveItemRequest) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, req *models.ApplyCouponRequest) (*models.Cart, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	rateLimiter repository.RateLimitRepository
	cache       cache.Cache
	engine      *pricing.Engine
	now         func() time.Time
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	rateLimiter repository.RateLimitRepository,
	cache cache.Cache,
	engine *pricing.Engine,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		rateLimiter: rateLimiter,
		cache:       cache,
		engine:      engine,
		now:         time.Now,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, created, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if created {
		if err := s.recompute(ctx, cart, "create"); err != nil {
			return nil, err
		}
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("productId", req.ProductID))

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to retrieve product").WithError(err)
	}

	if product.Status != models.ProductStatusActive {
		return nil, appErrors.BadRequestError("Product is not available")
	}

	if product.StockQuantity < req.Quantity {
		return nil, appErrors.BadRequestError("Insufficient stock").
			WithDetail(fmt.Sprintf("requested %d, available %d", req.Quantity, product.StockQuantity))
	}

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := models.LineItem{
		ProductID:      product.ID,
		Name:           utils.SanitizeText(product.Name),
		Image:          product.Image,
		Category:       product.Category,
		BasePrice:      product.Price,
		Quantity:       req.Quantity,
		CountInStock:   product.StockQuantity,
		SelectedSize:   utils.SanitizeText(req.SelectedSize),
		SelectedColor:  sanitizeColor(req.SelectedColor),
		Customizations: sanitizeCustomizations(req.Customizations),
	}

	var replaced bool
	cart.Items, replaced = pricing.Upsert(cart.Items, item)
	cart.AppliedCoupon = nil

	if err := s.recompute(ctx, cart, "add_item"); err != nil {
		return nil, err
	}

	logger.Info("Item added to cart", slog.Bool("replaced", replaced), slog.Int("quantity", req.Quantity))

	return cart, nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.Cart, error) {

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := pricing.Find(cart.Items, selectorKey(req.ItemSelector))
	if idx < 0 {
		return nil, appErrors.NotFoundError("Item not found in the cart")
	}

	items := make([]models.LineItem, len(cart.Items))
	copy(items, cart.Items)

	item := items[idx]
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.SelectedColor != nil {
		item.SelectedColor = sanitizeColor(req.SelectedColor)
	}
	if req.NewCustomizations != nil {
		item.Customizations = sanitizeCustomizations(req.NewCustomizations)
	}

	// a new customization can collide with another entry of the same product and size
	rest := append(items[:idx:idx], items[idx+1:]...)
	if other := pricing.Find(rest, pricing.KeyOf(item)); other >= 0 {
		return nil, appErrors.ConflictError("An identical item is already in the cart")
	}
	items[idx] = item

	cart.Items = items

	if err := s.recompute(ctx, cart, "update_item"); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, req *models.RemoveItemRequest) (*models.Cart, error) {

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, removed := pricing.Remove(cart.Items, selectorKey(req.ItemSelector))
	if !removed {
		return nil, appErrors.NotFoundError("Item not found in the cart")
	}

	cart.Items = items
	cart.AppliedCoupon = nil

	if err := s.recompute(ctx, cart, "remove_item"); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = []models.LineItem{}
	cart.AppliedCoupon = nil

	if err := s.recompute(ctx, cart, "clear"); err != nil {
		return nil, err
	}

	return cart, nil
}

// ApplyCoupon runs the advisory eligibility check. It is repeated, and may
// still fail, when the order is placed.
func (s *cartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, req *models.ApplyCouponRequest) (*models.Cart, error) {

	logger := middleware.LoggerFromContext(ctx)

	allowed, remaining, retryAfter, err := s.rateLimiter.CheckCouponRateLimit(ctx, userID.String())
	if err != nil {
		return nil, appErrors.InternalError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		logger.Warn("Coupon attempts rate limited", slog.Int("retryAfter", retryAfter))
		return nil, appErrors.TooManyRequestsError("Too many coupon attempts. Please try again later.").
			WithDetail(fmt.Sprintf("retry after %d seconds", retryAfter))
	}

	code := pricing.NormalizeCode(req.Code)

	cart, _, err := s.loadCart(ctx, userID)
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

	subtotal := s.engine.ComputeBreakdown(cart.Items, nil).ItemsPrice

	eligibility := pricing.CheckEligibility(coupon, subtotal, userID, usage, s.now())
	metrics.RecordCouponCheck("apply", eligibilityResult(eligibility))

	if !eligibility.Eligible {
		logger.Info("Coupon rejected",
			slog.String("code", code),
			slog.String("reason", string(eligibility.Reason)),
			slog.Int("attemptsLeft", remaining),
		)
		return nil, appErrors.CouponRejectedError(string(eligibility.Reason))
	}

	cart.AppliedCoupon = eligibility.Coupon

	if err := s.recompute(ctx, cart, "apply_coupon"); err != nil {
		return nil, err
	}

	logger.Info("Coupon applied", slog.String("code", code))

	return cart, nil
}

func (s *cartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, _, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AppliedCoupon = nil

	if err := s.recompute(ctx, cart, "remove_coupon"); err != nil {
		return nil, err
	}

	return cart, nil
}

// loadCart reads the cart through the cache and starts an empty one for users
// who have none yet. created reports the latter.
func (s *cartService) loadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, bool, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.CartKeyPrefix, userID.String())

	var cached models.Cart
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Cart cache read failed, falling back to database", slog.Any("error", err))
	} else if found {
		return &cached, false, nil
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, false, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	now := s.now()

	return &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     []models.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

// recompute prices the cart, persists it and refreshes the cached copy. A
// failed cache write leaves a stale entry, so it is dropped instead.
func (s *cartService) recompute(ctx context.Context, cart *models.Cart, operation string) error {

	ctx, span := observability.Tracer().Start(ctx, "cart.recompute")
	defer span.End()
	span.SetAttributes(attribute.String("cart.operation", operation), attribute.Int("cart.items", len(cart.Items)))

	logger := middleware.LoggerFromContext(ctx)

	if err := pricing.ValidateItems(cart.Items); err != nil {
		return validationFailure(err)
	}

	if err := pricing.ValidateAppliedCoupon(cart.AppliedCoupon); err != nil {
		return validationFailure(err)
	}

	cart.Items = s.engine.PriceItems(cart.Items)
	cart.Breakdown = s.engine.ComputeBreakdown(cart.Items, cart.AppliedCoupon)
	cart.UpdatedAt = s.now()

	if err := s.cartRepo.SaveCart(ctx, cart); err != nil {
		return appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	key := cache.Key(cache.CartKeyPrefix, cart.UserID.String())
	if err := s.cache.Set(ctx, key, cart, 0); err != nil {
		logger.Warn("Failed to cache cart", slog.Any("error", err))
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			logger.Error("Failed to evict stale cart from cache", slog.Any("error", delErr))
		}
	}

	metrics.RecordCartRecomputation(operation)
	span.SetAttributes(attribute.String("cart.total", cart.Breakdown.TotalPrice.StringFixed(2)))

	return nil
}

func sanitizeColor(c *models.Color) *models.Color {
	if c == nil {
		return nil
	}

	return &models.Color{
		ID:   utils.SanitizeText(c.ID),
		Name: utils.SanitizeText(c.Name),
		Hex:  utils.SanitizeText(c.Hex),
	}
}

// selectorKey normalizes a selector the way AddItem normalizes a new line, so
// the payload that created a line item also addresses it.
func selectorKey(sel models.ItemSelector) models.LineItemKey {
	sel.SelectedSize = utils.SanitizeText(sel.SelectedSize)
	sel.Customizations = sanitizeCustomizations(sel.Customizations)

	return pricing.SelectorKey(sel)
}

func sanitizeCustomizations(c *models.Customizations) *models.Customizations {
	if c == nil {
		return nil
	}

	return &models.Customizations{
		Details:            utils.SanitizeDetails(c.Details),
		CustomizationPrice: c.CustomizationPrice,
	}
}
