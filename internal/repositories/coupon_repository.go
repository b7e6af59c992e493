package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/google/uuid"
)

type CouponRepository interface {
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	UpdateCoupon(ctx context.Context, coupon *models.Coupon) error
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCoupons(ctx context.Context, page, size int) ([]*models.Coupon, int, error)
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error)
}

type couponRepository struct {
	DB *sql.DB
}

func NewCouponRepo(db *sql.DB) CouponRepository {
	return &couponRepository{DB: db}
}

const couponColumns = `id, code, description, discount_type, discount_value, minimum_purchase_amount,
		is_active, valid_from, valid_until, usage_limit_per_coupon, usage_limit_per_user,
		times_used, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {

	coupon := &models.Coupon{}

	var perCoupon, perUser sql.NullInt64

	err := row.Scan(&coupon.ID, &coupon.Code, &coupon.Description, &coupon.DiscountType, &coupon.DiscountValue,
		&coupon.MinimumPurchaseAmount, &coupon.IsActive, &coupon.ValidFrom, &coupon.ValidUntil,
		&perCoupon, &perUser, &coupon.TimesUsed, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return nil, err
	}

	coupon.UsageLimitPerCoupon = nullableInt(perCoupon)
	coupon.UsageLimitPerUser = nullableInt(perUser)

	return coupon, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}

	n := int(v.Int64)
	return &n
}

func (r *couponRepository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO coupons (id, code, description, discount_type, discount_value, minimum_purchase_amount,
			is_active, valid_from, valid_until, usage_limit_per_coupon, usage_limit_per_user, times_used,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, coupon.ID, coupon.Code, coupon.Description, coupon.DiscountType,
		coupon.DiscountValue, coupon.MinimumPurchaseAmount, coupon.IsActive, coupon.ValidFrom, coupon.ValidUntil,
		coupon.UsageLimitPerCoupon, coupon.UsageLimitPerUser).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
}

// UpdateCoupon overwrites the mutable fields. The code and usage counter are
// never changed here.
func (r *couponRepository) UpdateCoupon(ctx context.Context, coupon *models.Coupon) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE coupons
		SET description = $2, discount_type = $3, discount_value = $4, minimum_purchase_amount = $5,
			is_active = $6, valid_from = $7, valid_until = $8, usage_limit_per_coupon = $9,
			usage_limit_per_user = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, coupon.ID, coupon.Description, coupon.DiscountType, coupon.DiscountValue,
		coupon.MinimumPurchaseAmount, coupon.IsActive, coupon.ValidFrom, coupon.ValidUntil,
		coupon.UsageLimitPerCoupon, coupon.UsageLimitPerUser).Scan(&coupon.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}

	return nil
}

func (r *couponRepository) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.DB.QueryRowContext(dbCtx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return coupon, nil
}

func (r *couponRepository) ListCoupons(ctx context.Context, page, size int) ([]*models.Coupon, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(dbCtx, query, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}

	defer rows.Close()

	var coupons []*models.Coupon

	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}

		coupons = append(coupons, coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

func (r *couponRepository) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return countUserRedemptions(dbCtx, r.DB, couponID, userID)
}

func countUserRedemptions(ctx context.Context, q querier, couponID, userID uuid.UUID) (int, error) {

	var count int

	query := `SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`

	if err := q.QueryRowContext(ctx, query, couponID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count coupon redemptions: %w", err)
	}

	return count, nil
}
