package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/errors"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils/response"
)

// authenticated returns the caller's claims and a logger tagged with the user
// id. It writes a 401 and returns false when the request carries no claims.
func authenticated(w http.ResponseWriter, r *http.Request, action string) (*models.Claims, *slog.Logger, bool) {

	logger := middleware.LoggerFromContext(r.Context())

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized "+action+" attempt: missing user claims")
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, logger, false
	}

	return claims, logger.With(slog.String("userID", claims.UserID.String())), true
}

// pagination reads page and pageSize, falling back to defaults on bad input.
func pagination(r *http.Request, maxSize int) (int, int) {

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > maxSize {
		pageSize = 10
	}

	return page, pageSize
}
