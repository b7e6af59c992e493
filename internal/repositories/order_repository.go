package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/google/uuid"
)

// ErrCouponExhausted is returned by IncrementCouponUsage when the guarded
// update matched no row because the coupon reached its usage limit.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

// CheckoutTx is the set of statements order placement runs inside one
// transaction.
type CheckoutTx interface {
	GetCouponForUpdate(ctx context.Context, code string) (*models.Coupon, error)
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) error
	RecordRedemption(ctx context.Context, redemption *models.CouponRedemption) error
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

type OrderRepository interface {
	// WithinCheckout commits when fn returns nil and rolls back otherwise.
	WithinCheckout(ctx context.Context, fn func(tx CheckoutTx) error) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) WithinCheckout(ctx context.Context, fn func(tx CheckoutTx) error) error {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("layer", "repository"), slog.String("method", "WithinCheckout"))

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("failed to rollback transaction", slog.Any("error", rbErr))
			} else {
				logger.Debug("transaction rolled back")
			}
		}
	}()

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit checkout transaction", slog.Any("error", err))
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	committed = true
	logger.Debug("checkout transaction committed")

	return nil
}

type checkoutTx struct {
	tx *sql.Tx
}

// GetCouponForUpdate locks the coupon row until the transaction ends, so
// concurrent checkouts redeeming the same code are serialized.
func (t *checkoutTx) GetCouponForUpdate(ctx context.Context, code string) (*models.Coupon, error) {

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`

	coupon, err := scanCoupon(t.tx.QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock coupon: %w", err)
	}

	return coupon, nil
}

func (t *checkoutTx) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	return countUserRedemptions(ctx, t.tx, couponID, userID)
}

func (t *checkoutTx) IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) error {

	query := `
		UPDATE coupons
		SET times_used = times_used + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit_per_coupon IS NULL OR times_used < usage_limit_per_coupon)
	`

	result, err := t.tx.ExecContext(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrCouponExhausted
	}

	return nil
}

func (t *checkoutTx) RecordRedemption(ctx context.Context, redemption *models.CouponRedemption) error {

	query := `
		INSERT INTO coupon_redemptions (coupon_id, user_id, order_id, redeemed_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING redeemed_at
	`

	err := t.tx.QueryRowContext(ctx, query, redemption.CouponID, redemption.UserID, redemption.OrderID).Scan(&redemption.RedeemedAt)
	if err != nil {
		return fmt.Errorf("failed to record coupon redemption: %w", err)
	}

	return nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, order *models.Order) error {

	breakdownJSON, err := json.Marshal(order.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal order breakdown: %w", err)
	}

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (id, customer_id, status, payment_status, coupon_code, breakdown, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = t.tx.QueryRowContext(ctx, query, order.ID, order.CustomerID, order.Status, order.PaymentStatus,
		order.CouponCode, breakdownJSON, addressJSON).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]

		colorJSON, err := json.Marshal(item.SelectedColor)
		if err != nil {
			return fmt.Errorf("failed to marshal item color: %w", err)
		}

		customJSON, err := json.Marshal(item.Customizations)
		if err != nil {
			return fmt.Errorf("failed to marshal item customizations: %w", err)
		}

		query := `
			INSERT INTO order_items (id, order_id, product_id, name, category, quantity, unit_price,
				selected_size, selected_color, customizations, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			RETURNING created_at
		`

		err = t.tx.QueryRowContext(ctx, query, item.ID, order.ID, item.ProductID, item.Name, item.Category,
			item.Quantity, item.UnitPrice, item.SelectedSize, colorJSON, customJSON).Scan(&item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	return nil
}

func (t *checkoutTx) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	return deleteCart(ctx, t.tx, userID)
}

const orderColumns = `id, customer_id, status, payment_status, COALESCE(coupon_code, ''), breakdown, shipping_address, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {

	order := &models.Order{}

	var breakdownJSON, addressJSON []byte

	err := row.Scan(&order.ID, &order.CustomerID, &order.Status, &order.PaymentStatus, &order.CouponCode,
		&breakdownJSON, &addressJSON, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdownJSON, &order.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order breakdown: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	query := `
		SELECT id, product_id, name, category, quantity, unit_price, selected_size, selected_color, customizations, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	for rows.Next() {

		var item models.OrderItem
		var colorJSON, customJSON []byte

		err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Category, &item.Quantity, &item.UnitPrice,
			&item.SelectedSize, &colorJSON, &customJSON, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		if len(colorJSON) > 0 {
			if err := json.Unmarshal(colorJSON, &item.SelectedColor); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item color: %w", err)
			}
		}

		if len(customJSON) > 0 {
			if err := json.Unmarshal(customJSON, &item.Customizations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item customizations: %w", err)
			}
		}

		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersByCustomer returns order headers, newest first, without items.
func (r *orderRepository) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, customerID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []*models.Order

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
