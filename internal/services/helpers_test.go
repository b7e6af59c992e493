package service_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	cacheMocks "github.com/aaravmahajanofficial/storefront-pricing/internal/cache/mocks"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront-pricing/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errDB = errors.New("database connection failed")

type deps struct {
	carts    *mocks.CartRepository
	products *mocks.ProductRepository
	coupons  *mocks.CouponRepository
	orders   *mocks.OrderRepository
	tx       *mocks.CheckoutTx
	limiter  *mocks.RateLimitRepository
	cache    *cacheMocks.Cache
	engine   *pricing.Engine
}

func newDeps() *deps {
	tx := &mocks.CheckoutTx{}
	return &deps{
		carts:    &mocks.CartRepository{},
		products: &mocks.ProductRepository{},
		coupons:  &mocks.CouponRepository{},
		orders:   &mocks.OrderRepository{Tx: tx},
		tx:       tx,
		limiter:  &mocks.RateLimitRepository{},
		cache:    &cacheMocks.Cache{},
		engine:   pricing.NewEngine(pricing.DefaultRates()),
	}
}

func (d *deps) cartService() service.CartService {
	return service.NewCartService(d.carts, d.products, d.coupons, d.limiter, d.cache, d.engine)
}

func (d *deps) couponService() service.CouponService {
	return service.NewCouponService(d.coupons, d.carts, d.cache, d.engine)
}

func (d *deps) orderService() service.OrderService {
	return service.NewOrderService(d.orders, d.carts, d.products, d.cache, d.engine)
}

func (d *deps) quoteService() service.QuoteService {
	return service.NewQuoteService(d.coupons, d.cache, d.engine)
}

func (d *deps) assertExpectations(t *testing.T) {
	t.Helper()
	d.carts.AssertExpectations(t)
	d.products.AssertExpectations(t)
	d.coupons.AssertExpectations(t)
	d.orders.AssertExpectations(t)
	d.tx.AssertExpectations(t)
	d.limiter.AssertExpectations(t)
	d.cache.AssertExpectations(t)
}

// cacheMiss makes every cache read miss and every write succeed.
func (d *deps) cacheMiss() {
	d.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	d.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	d.cache.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// captureSave records the cart passed to SaveCart.
func (d *deps) captureSave(saved **models.Cart) {
	d.carts.On("SaveCart", mock.Anything, mock.AnythingOfType("*models.Cart")).
		Run(func(args mock.Arguments) {
			c := *args.Get(1).(*models.Cart)
			*saved = &c
		}).
		Return(nil).Once()
}

func lineItem(productID, category, price string, qty int) models.LineItem {
	return models.LineItem{
		ProductID:    productID,
		Name:         "Item " + productID,
		Category:     category,
		BasePrice:    decimal.RequireFromString(price),
		Quantity:     qty,
		CountInStock: 50,
	}
}

func product(id, category, price string, stock int) *models.Product {
	return &models.Product{
		ID:            id,
		Name:          "Product " + id,
		Category:      category,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Status:        models.ProductStatusActive,
	}
}

func storedCart(userID uuid.UUID, items ...models.LineItem) *models.Cart {
	return &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     items,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func intPtr(v int) *int { return &v }

func activeCoupon(code string, discountType models.DiscountType, value, minimum string) *models.Coupon {
	return &models.Coupon{
		ID:                    uuid.New(),
		Code:                  code,
		DiscountType:          discountType,
		DiscountValue:         decimal.RequireFromString(value),
		MinimumPurchaseAmount: decimal.RequireFromString(minimum),
		IsActive:              true,
		ValidFrom:             time.Now().Add(-24 * time.Hour),
		ValidUntil:            time.Now().Add(24 * time.Hour),
		UsageLimitPerCoupon:   intPtr(100),
		UsageLimitPerUser:     intPtr(1),
	}
}

func requireAppError(t *testing.T, err error, code string) *appErrors.AppError {
	t.Helper()

	require.Error(t, err)
	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)

	return appErr
}

var errNoRows = sql.ErrNoRows
