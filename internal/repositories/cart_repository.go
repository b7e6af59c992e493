package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/google/uuid"
)

type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, items, applied_coupon, breakdown, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &models.Cart{}

	var itemsJSON, couponJSON, breakdownJSON []byte

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&cart.ID, &cart.UserID, &itemsJSON, &couponJSON, &breakdownJSON, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	if len(couponJSON) > 0 {
		if err := json.Unmarshal(couponJSON, &cart.AppliedCoupon); err != nil {
			return nil, fmt.Errorf("failed to unmarshal applied coupon: %w", err)
		}
	}

	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &cart.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart breakdown: %w", err)
		}
	}

	return cart, nil
}

// SaveCart replaces the whole cart of cart.UserID. Concurrent writers are last
// writer wins.
func (r *cartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	items := cart.Items
	if items == nil {
		items = []models.LineItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	// NULL when no coupon is applied
	var couponArg any
	if cart.AppliedCoupon != nil {
		couponJSON, err := json.Marshal(cart.AppliedCoupon)
		if err != nil {
			return fmt.Errorf("failed to marshal applied coupon: %w", err)
		}
		couponArg = couponJSON
	}

	breakdownJSON, err := json.Marshal(cart.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal cart breakdown: %w", err)
	}

	query := `
		INSERT INTO carts (id, user_id, items, applied_coupon, breakdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, applied_coupon = EXCLUDED.applied_coupon,
			breakdown = EXCLUDED.breakdown, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, cart.ID, cart.UserID, itemsJSON, couponArg, breakdownJSON).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
}

func (r *cartRepository) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return deleteCart(dbCtx, r.DB, userID)
}

func deleteCart(ctx context.Context, q querier, userID uuid.UUID) error {

	if _, err := q.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return nil
}
