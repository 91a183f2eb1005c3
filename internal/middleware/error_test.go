package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

var domainSentinels = []*domain.Error{
	domain.ErrPromotionCodeRequired,
	domain.ErrPromotionNotFound,
	domain.ErrPromotionInactive,
	domain.ErrPromotionNotStarted,
	domain.ErrPromotionExpired,
	domain.ErrPromotionUsageLimit,
	domain.ErrMinimumPurchaseNotMet,
	domain.ErrPromotionExists,
	domain.ErrInvalidOrderStatus,
	domain.ErrEmptyOrder,
	domain.ErrOrderNotFound,
	domain.ErrNotOrderOwner,
	domain.ErrCannotCancelDelivered,
	domain.ErrOrderTerminal,
	domain.ErrInvalidTransition,
	domain.ErrProductNotFound,
	domain.ErrNotProductOwner,
	domain.ErrSellerOnly,
	domain.ErrAddressNotFound,
	domain.ErrCompareSelection,
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// Property: every error envelope carries success=false, a code, the message and an RFC3339 timestamp
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	statusCodes := []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
	}
	properties := gopter.NewProperties(nil)

	properties.Property("error envelopes are complete", prop.ForAll(
		func(message string, idx int) bool {
			status := statusCodes[idx]
			w := httptest.NewRecorder()
			RespondWithError(w, status, message)

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			_, tsErr := time.Parse(time.RFC3339, response.Error.Timestamp)

			return w.Code == status &&
				w.Header().Get("Content-Type") == "application/json" &&
				!response.Success &&
				response.Error.Code == http.StatusText(status) &&
				response.Error.Message == message &&
				tsErr == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.IntRange(0, len(statusCodes)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: a business error keeps its code and message however deeply it is wrapped
func TestProperty_DomainErrorsKeepTheirCode(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("status follows the kind and the code survives wrapping", prop.ForAll(
		func(idx, depth int) bool {
			sentinel := domainSentinels[idx]
			var err error = sentinel
			for i := 0; i < depth; i++ {
				err = fmt.Errorf("layer %d: %w", i, err)
			}

			w := httptest.NewRecorder()
			RespondWithDomainError(w, zap.NewNop(), err)

			var response ErrorResponse
			if json.Unmarshal(w.Body.Bytes(), &response) != nil {
				return false
			}
			return w.Code == StatusForKind(sentinel.Kind) &&
				response.Error.Code == sentinel.Code &&
				response.Error.Message == sentinel.Message
		},
		gen.IntRange(0, len(domainSentinels)-1),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "address_id", Message: "address_id must be a valid uuid"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeErrorResponse(t, w)
	assert.Equal(t, "validation failed", response.Error.Message)
	require.Contains(t, response.Error.Details, "validation_errors")
	assert.Len(t, response.Error.Details["validation_errors"], 1)
}

func TestRespondWithDomainError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ErrPromotionInactive, http.StatusBadRequest, "promotion_inactive"},
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{"forbidden", domain.ErrNotOrderOwner, http.StatusForbidden, "not_order_owner"},
		{"conflict", domain.ErrCannotCancelDelivered, http.StatusBadRequest, "cannot_cancel_delivered"},
		{"wrapped", fmt.Errorf("failed to place order: %w", domain.ErrEmptyOrder), http.StatusBadRequest, "empty_order"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithDomainError(w, logger, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)

			response := decodeErrorResponse(t, w)
			assert.False(t, response.Success)
			assert.Equal(t, tt.wantCode, response.Error.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", response.Error.Message)
			}
		})
	}
}

func TestRespondWithSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithSuccess(w, http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, w.Body.String())
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decodeErrorResponse(t, w)
	assert.Equal(t, "internal server error", response.Error.Message)
}
