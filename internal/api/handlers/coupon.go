package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	service "github.com/aaravmahajanofficial/storefront-pricing/internal/services"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CouponHandler struct {
	couponService service.CouponService
	validator     *validator.Validate
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService, validator: validator.New()}
}

// CreateCoupon godoc
//	@Summary		Create a coupon (Admin)
//	@Tags			Coupons
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.CreateCouponRequest	true	"Coupon definition"
//	@Success		201		{object}	models.Coupon				"Created coupon"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse		"Admin privileges required"
//	@Failure		409		{object}	response.ErrorResponse		"Coupon code already exists"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/coupons [post]
func (h *CouponHandler) CreateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, logger, ok := authenticated(w, r, "coupon creation")
		if !ok {
			return
		}

		var req models.CreateCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create coupon input")
			return
		}

		coupon, err := h.couponService.CreateCoupon(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create coupon", slog.String("code", req.Code), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon created", slog.String("code", coupon.Code), slog.String("couponId", coupon.ID.String()))
		response.Success(w, http.StatusCreated, coupon)
	}
}

// UpdateCoupon godoc
//	@Summary		Update a coupon (Admin)
//	@Description	Partially updates a coupon. The code and usage counter cannot be changed.
//	@Tags			Coupons
//	@Accept			json
//	@Produce		json
//	@Param			code	path		string						true	"Coupon code"
//	@Param			coupon	body		models.UpdateCouponRequest	true	"Fields to change"
//	@Success		200		{object}	models.Coupon				"Updated coupon"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse		"Admin privileges required"
//	@Failure		404		{object}	response.ErrorResponse		"Coupon not found"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/coupons/{code} [put]
func (h *CouponHandler) UpdateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		_, logger, ok := authenticated(w, r, "coupon update")
		if !ok {
			return
		}

		code := r.PathValue("code")
		if code == "" {
			response.Error(w, errors.BadRequestError("Missing code in path"))
			return
		}

		logger = logger.With(slog.String("code", code))

		var req models.UpdateCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update coupon input")
			return
		}

		coupon, err := h.couponService.UpdateCoupon(r.Context(), code, &req)
		if err != nil {
			logger.Error("Failed to update coupon", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon updated")
		response.Success(w, http.StatusOK, coupon)
	}
}

// GetCoupon godoc
//	@Summary		Get a coupon (Admin)
//	@Tags			Coupons
//	@Produce		json
//	@Param			code	path		string					true	"Coupon code"
//	@Success		200		{object}	models.Coupon			"Coupon"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse	"Admin privileges required"
//	@Failure		404		{object}	response.ErrorResponse	"Coupon not found"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/coupons/{code} [get]
func (h *CouponHandler) GetCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		code := r.PathValue("code")
		if code == "" {
			response.Error(w, errors.BadRequestError("Missing code in path"))
			return
		}

		coupon, err := h.couponService.GetCoupon(r.Context(), code)
		if err != nil {
			logger.Warn("Failed to get coupon", slog.String("code", code), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, coupon)
	}
}

// ListCoupons godoc
//	@Summary		List coupons (Admin)
//	@Tags			Coupons
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"					minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Coupon}	"Coupons"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse							"Admin privileges required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/coupons [get]
func (h *CouponHandler) ListCoupons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := pagination(r, 100)

		coupons, total, err := h.couponService.ListCoupons(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list coupons", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupons listed", slog.Int("count", len(coupons)), slog.Int("total", total))
		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     coupons,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// ValidateCoupon godoc
//	@Summary		Check whether a coupon can be used
//	@Description	Returns an eligibility result for the caller. A rejected coupon is a 200 with eligible=false and a reason.
//	@Tags			Coupons
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.ValidateCouponRequest	true	"Code and optional subtotal"
//	@Success		200		{object}	models.Eligibility				"Eligibility result"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/coupons/validate [post]
func (h *CouponHandler) ValidateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, logger, ok := authenticated(w, r, "coupon validation")
		if !ok {
			return
		}

		var req models.ValidateCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid validate coupon input")
			return
		}

		result, err := h.couponService.ValidateCoupon(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to validate coupon", slog.String("code", req.Code), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Coupon validated",
			slog.String("code", req.Code),
			slog.Bool("eligible", result.Eligible),
			slog.String("reason", string(result.Reason)),
		)
		response.Success(w, http.StatusOK, result)
	}
}
