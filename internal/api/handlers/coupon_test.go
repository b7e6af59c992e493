package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupCouponTest() (*mocks.CouponService, *handlers.CouponHandler) {
	mockCouponService := new(mocks.CouponService)
	return mockCouponService, handlers.NewCouponHandler(mockCouponService)
}

func sampleCoupon() *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          "SUMMER10",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
		ValidFrom:     time.Now(),
		ValidUntil:    time.Now().Add(24 * time.Hour),
	}
}

func TestCreateCoupon(t *testing.T) {
	validBody := map[string]any{
		"code":           "summer10",
		"discount_type":  "percentage",
		"discount_value": "10",
		"valid_from":     time.Now().Format(time.RFC3339),
		"valid_until":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}

	t.Run("Success", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req, _ := createAuthenticatedRequest(http.MethodPost, "/api/v1/coupons", validBody)
		recorder := httptest.NewRecorder()

		mockCouponService.On("CreateCoupon", mock.Anything, mock.MatchedBy(func(r *models.CreateCouponRequest) bool {
			return r.Code == "summer10" && r.DiscountValue.Equal(decimal.NewFromInt(10))
		})).Return(sampleCoupon(), nil).Once()

		couponHandler.CreateCoupon()(recorder, req)

		assert.Equal(t, http.StatusCreated, recorder.Code)
		data := dataMap(t, decodeResponse(t, recorder))
		assert.Equal(t, "SUMMER10", data["code"])
		mockCouponService.AssertExpectations(t)
	})

	t.Run("Failure - Window ends before it starts", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		body := map[string]any{
			"code":           "summer10",
			"discount_type":  "percentage",
			"discount_value": "10",
			"valid_from":     time.Now().Format(time.RFC3339),
			"valid_until":    time.Now().Add(-48 * time.Hour).Format(time.RFC3339),
		}
		req, _ := createAuthenticatedRequest(http.MethodPost, "/api/v1/coupons", body)
		recorder := httptest.NewRecorder()

		couponHandler.CreateCoupon()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := decodeResponse(t, recorder)
		assert.Equal(t, appErrors.ErrCodeValidation, resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "Field ValidUntil must not be before ValidFrom")
		mockCouponService.AssertNotCalled(t, "CreateCoupon", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Duplicate", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req, _ := createAuthenticatedRequest(http.MethodPost, "/api/v1/coupons", validBody)
		recorder := httptest.NewRecorder()

		mockCouponService.On("CreateCoupon", mock.Anything, mock.Anything).
			Return(nil, appErrors.DuplicateEntryError("Coupon code already exists")).Once()

		couponHandler.CreateCoupon()(recorder, req)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestUpdateCoupon(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req, _ := createAuthenticatedRequest(http.MethodPut, "/api/v1/coupons/SUMMER10", `{"is_active":false}`)
		req.SetPathValue("code", "SUMMER10")
		recorder := httptest.NewRecorder()

		updated := sampleCoupon()
		updated.IsActive = false
		mockCouponService.On("UpdateCoupon", mock.Anything, "SUMMER10", mock.MatchedBy(func(r *models.UpdateCouponRequest) bool {
			return r.IsActive != nil && !*r.IsActive && r.DiscountValue == nil
		})).Return(updated, nil).Once()

		couponHandler.UpdateCoupon()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := dataMap(t, decodeResponse(t, recorder))
		assert.Equal(t, false, data["is_active"])
		mockCouponService.AssertExpectations(t)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req, _ := createAuthenticatedRequest(http.MethodPut, "/api/v1/coupons/NOPE", `{"is_active":true}`)
		req.SetPathValue("code", "NOPE")
		recorder := httptest.NewRecorder()

		mockCouponService.On("UpdateCoupon", mock.Anything, "NOPE", mock.Anything).
			Return(nil, appErrors.NotFoundError("Coupon not found")).Once()

		couponHandler.UpdateCoupon()(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGetCoupon(t *testing.T) {
	mockCouponService, couponHandler := setupCouponTest()
	req := createRequest(http.MethodGet, "/api/v1/coupons/SUMMER10", nil)
	req.SetPathValue("code", "SUMMER10")
	recorder := httptest.NewRecorder()

	mockCouponService.On("GetCoupon", mock.Anything, "SUMMER10").Return(sampleCoupon(), nil).Once()

	couponHandler.GetCoupon()(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	mockCouponService.AssertExpectations(t)
}

func TestListCoupons(t *testing.T) {
	mockCouponService, couponHandler := setupCouponTest()
	req := createRequest(http.MethodGet, "/api/v1/coupons?page=3&pageSize=25", nil)
	recorder := httptest.NewRecorder()

	mockCouponService.On("ListCoupons", mock.Anything, 3, 25).Return([]*models.Coupon{sampleCoupon()}, 51, nil).Once()

	couponHandler.ListCoupons()(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := dataMap(t, decodeResponse(t, recorder))
	assert.EqualValues(t, 51, data["total"])
	assert.EqualValues(t, 25, data["pageSize"])
}

func TestValidateCoupon(t *testing.T) {
	t.Run("Rejection is a 200 with a reason", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req, claims := createAuthenticatedRequest(http.MethodPost, "/api/v1/coupons/validate", `{"code":"SUMMER10","subtotal":"20.00"}`)
		recorder := httptest.NewRecorder()

		mockCouponService.On("ValidateCoupon", mock.Anything, claims.UserID, mock.MatchedBy(func(r *models.ValidateCouponRequest) bool {
			return r.Code == "SUMMER10" && r.Subtotal != nil && r.Subtotal.Equal(decimal.NewFromInt(20))
		})).Return(&models.Eligibility{Eligible: false, Reason: models.RejectionBelowMinimum}, nil).Once()

		couponHandler.ValidateCoupon()(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		data := dataMap(t, decodeResponse(t, recorder))
		assert.Equal(t, false, data["eligible"])
		assert.Equal(t, "BELOW_MINIMUM", data["reason"])
		mockCouponService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		mockCouponService, couponHandler := setupCouponTest()
		req := createRequest(http.MethodPost, "/api/v1/coupons/validate", `{"code":"SUMMER10"}`)
		recorder := httptest.NewRecorder()

		couponHandler.ValidateCoupon()(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockCouponService.AssertNotCalled(t, "ValidateCoupon", mock.Anything, mock.Anything, mock.Anything)
	})
}
