package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/utils/response"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// createAuthenticatedRequest -> creates a request carrying user claims and a logger
func createAuthenticatedRequest(method, url string, body any) (*http.Request, *models.Claims) {
	req := createRequest(method, url, body)

	claims := &models.Claims{
		UserID: uuid.New(),
		Email:  "test@example.com",
	}

	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	return req.WithContext(ctx), claims
}

// createRequest -> creates an anonymous request with a logger in context
func createRequest(method, url string, body any) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.LoggerKey, slog.Default())
	return req.WithContext(ctx)
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

// dataMap returns the envelope's data payload as a JSON object.
func dataMap(t *testing.T, resp response.APIResponse) map[string]any {
	t.Helper()

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "expected object data, got %T", resp.Data)
	return data
}
