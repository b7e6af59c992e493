package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	service "github.com/aaravmahajanofficial/storefront-pricing/internal/services"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PricingHandler struct {
	quoteService service.QuoteService
	validator    *validator.Validate
}

func NewPricingHandler(quoteService service.QuoteService) *PricingHandler {
	return &PricingHandler{quoteService: quoteService, validator: validator.New()}
}

// Quote godoc
//	@Summary		Price an ad-hoc cart
//	@Description	Computes a price breakdown for the given items without storing anything. An ineligible coupon is reported but not discounted.
//	@Tags			Pricing
//	@Accept			json
//	@Produce		json
//	@Param			quote	body		models.QuoteRequest		true	"Items and optional coupon code"
//	@Success		200		{object}	models.QuoteResponse	"Priced items and breakdown"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/pricing/quote [post]
func (h *PricingHandler) Quote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, logger, ok := authenticated(w, r, "price quote")
		if !ok {
			return
		}

		var req models.QuoteRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid quote input")
			return
		}

		quote, err := h.quoteService.Quote(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to compute quote", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Quote computed",
			slog.Int("items", len(quote.Items)),
			slog.String("total", quote.Breakdown.TotalPrice.StringFixed(2)),
		)
		response.Success(w, http.StatusOK, quote)
	}
}
