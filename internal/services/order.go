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
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, customerID, id uuid.UUID) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cache       cache.Cache
	engine      *pricing.Engine
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cache cache.Cache,
	engine *pricing.Engine,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cache,
		engine:      engine,
		now:         time.Now,
	}
}

// PlaceOrder turns the caller's cart into an order. The applied coupon is
// re-checked against the locked coupon row, and the redemption, order and
// cart removal commit or roll back together.
func (s *orderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req *models.PlaceOrderRequest) (*models.Order, error) {

	ctx, span := observability.Tracer().Start(ctx, "order.place")
	defer span.End()

	logger := middleware.LoggerFromContext(ctx)

	cart, err := s.cartRepo.GetCartByUserID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ValidationError("Cannot place an order with an empty cart")
		}
		return nil, appErrors.DatabaseError("Failed to retrieve cart").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, appErrors.ValidationError("Cannot place an order with an empty cart")
	}

	if err := s.checkStock(ctx, cart.Items); err != nil {
		return nil, err
	}

	if err := pricing.ValidateItems(cart.Items); err != nil {
		return nil, validationFailure(err)
	}

	var (
		order    *models.Order
		redeemed *models.Coupon
	)

	err = s.orderRepo.WithinCheckout(ctx, func(tx repository.CheckoutTx) error {

		var applied *models.AppliedCoupon
		redeemed = nil

		if cart.AppliedCoupon != nil {
			coupon, err := tx.GetCouponForUpdate(ctx, pricing.NormalizeCode(cart.AppliedCoupon.Code))
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return appErrors.DatabaseError("Failed to lock coupon").WithError(err)
			}

			usage := 0
			if coupon != nil {
				usage, err = tx.CountUserRedemptions(ctx, coupon.ID, customerID)
				if err != nil {
					return appErrors.DatabaseError("Failed to count coupon redemptions").WithError(err)
				}
			}

			subtotal := s.engine.ComputeBreakdown(cart.Items, nil).ItemsPrice

			eligibility := pricing.CheckEligibility(coupon, subtotal, customerID, usage, s.now())
			metrics.RecordCouponCheck("checkout", eligibilityResult(eligibility))

			if !eligibility.Eligible {
				return appErrors.CouponRejectedError(string(eligibility.Reason))
			}

			applied = eligibility.Coupon
			redeemed = coupon
		}

		priced := s.engine.PriceItems(cart.Items)

		order = &models.Order{
			ID:              uuid.New(),
			CustomerID:      customerID,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			Breakdown:       s.engine.ComputeBreakdown(priced, applied),
			ShippingAddress: &req.ShippingAddress,
		}

		if applied != nil {
			order.CouponCode = applied.Code
		}

		order.Items = make([]models.OrderItem, 0, len(priced))
		for _, item := range priced {
			order.Items = append(order.Items, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      item.ProductID,
				Name:           item.Name,
				Category:       item.Category,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				SelectedSize:   item.SelectedSize,
				SelectedColor:  item.SelectedColor,
				Customizations: item.Customizations,
			})
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return appErrors.DatabaseError("Failed to create order").WithError(err)
		}

		if redeemed != nil {
			if err := tx.IncrementCouponUsage(ctx, redeemed.ID); err != nil {
				if errors.Is(err, repository.ErrCouponExhausted) {
					return appErrors.CouponRejectedError(string(models.RejectionCouponExhausted)).WithError(err)
				}
				return appErrors.DatabaseError("Failed to redeem coupon").WithError(err)
			}

			redemption := &models.CouponRedemption{CouponID: redeemed.ID, UserID: customerID, OrderID: order.ID}
			if err := tx.RecordRedemption(ctx, redemption); err != nil {
				return appErrors.DatabaseError("Failed to record coupon redemption").WithError(err)
			}
		}

		if err := tx.DeleteCart(ctx, customerID); err != nil {
			return appErrors.DatabaseError("Failed to clear cart").WithError(err)
		}

		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")

		if _, ok := appErrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, appErrors.DatabaseError("Failed to place order").WithError(err)
	}

	if err := s.cache.Delete(ctx, cache.Key(cache.CartKeyPrefix, customerID.String())); err != nil {
		logger.Warn("Failed to evict cart from cache", slog.Any("error", err))
	}

	if redeemed != nil {
		if err := s.cache.Delete(ctx, cache.Key(cache.CouponKeyPrefix, redeemed.Code)); err != nil {
			logger.Warn("Failed to evict coupon from cache", slog.Any("error", err))
		}
		metrics.RecordCouponRedemption(string(redeemed.DiscountType))
	}

	metrics.RecordOrderPlaced(order.Breakdown.TotalPrice.InexactFloat64())

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.total", order.Breakdown.TotalPrice.StringFixed(2)),
		attribute.String("order.coupon", order.CouponCode),
	)

	logger.Info("Order placed",
		slog.String("orderId", order.ID.String()),
		slog.String("total", order.Breakdown.TotalPrice.StringFixed(2)),
		slog.String("coupon", order.CouponCode),
	)

	return order, nil
}

func (s *orderService) checkStock(ctx context.Context, items []models.LineItem) error {

	for _, item := range items {
		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.NotFoundError("Product not found: " + item.ProductID).WithError(err)
			}
			return appErrors.DatabaseError("Failed to retrieve product").WithError(err)
		}

		if product.StockQuantity < item.Quantity {
			return appErrors.BadRequestError("Insufficient stock for product: " + item.ProductID).
				WithDetail(fmt.Sprintf("requested %d, available %d", item.Quantity, product.StockQuantity))
		}
	}

	return nil
}

// GetOrderByID only returns orders owned by customerID; other orders look
// exactly like missing ones.
func (s *orderService) GetOrderByID(ctx context.Context, customerID, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to retrieve order").WithError(err)
	}

	if order.CustomerID != customerID {
		return nil, appErrors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *orderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 10 {
		size = 10
	}

	orders, total, err := s.orderRepo.ListOrdersByCustomer(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to list orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to retrieve order").WithError(err)
	}

	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusDelivered {
		return nil, appErrors.ConflictError(fmt.Sprintf("Order is already %s", order.Status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = req.Status
	order.UpdatedAt = s.now()

	return order, nil
}
