package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func genUUID() gopter.Gen {
	return gen.SliceOfN(16, gen.UInt8()).Map(func(b []uint8) string {
		id, _ := uuid.FromBytes(b)
		return id.String()
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// authStatus runs a request with the given Authorization header through AuthMiddleware
func authStatus(header string) (int, *http.Request) {
	var seen *http.Request
	handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code, seen
}

// Property: Protected endpoints reject missing tokens
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(method, "/api/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "PATCH", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: Expired tokens are rejected
func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(userID string, role string) bool {
			token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"user_id": userID,
				"role":    role,
				"exp":     time.Now().Add(-time.Hour).Unix(),
			})
			code, _ := authStatus("Bearer " + token)
			return code == http.StatusUnauthorized
		},
		genUUID(),
		gen.OneConstOf("user", "seller"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: Valid tokens put the caller in the request context
func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens reach the handler with user id and role", prop.ForAll(
		func(userID string, role string) bool {
			token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
				"user_id": userID,
				"role":    role,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})

			code, seen := authStatus("Bearer " + token)
			if code != http.StatusOK || seen == nil {
				return false
			}

			ctxUserID, ok1 := GetUserID(seen.Context())
			ctxRole, ok2 := GetUserRole(seen.Context())
			id, ok3 := GetUserUUID(seen.Context())
			return ok1 && ok2 && ok3 &&
				ctxUserID == userID && ctxRole == role && id.String() == userID
		},
		genUUID(),
		gen.OneConstOf("user", "seller"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: Garbage after the Bearer scheme is rejected
func TestProperty_InvalidTokenFormatRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("invalid token formats are rejected", prop.ForAll(
		func(invalidToken string) bool {
			code, _ := authStatus("Bearer " + invalidToken)
			return code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsClaims(t *testing.T) {
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"user_id": uuid.NewString(),
			"role":    "user",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name   string
		method jwt.SigningMethod
		mutate func(jwt.MapClaims)
	}{
		{"unknown role", jwt.SigningMethodHS256, func(c jwt.MapClaims) { c["role"] = "admin" }},
		{"missing role", jwt.SigningMethodHS256, func(c jwt.MapClaims) { delete(c, "role") }},
		{"user id is not a uuid", jwt.SigningMethodHS256, func(c jwt.MapClaims) { c["user_id"] = "alice" }},
		{"missing expiry", jwt.SigningMethodHS256, func(c jwt.MapClaims) { delete(c, "exp") }},
		{"other hmac algorithm", jwt.SigningMethodHS512, func(c jwt.MapClaims) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := valid()
			tt.mutate(claims)
			code, _ := authStatus("Bearer " + signToken(t, tt.method, claims))
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "seller",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	code, _ := authStatus("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthMiddleware_HeaderFormats(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		header   string
		expected int
	}{
		{"Bearer " + token, http.StatusOK},
		{"bearer " + token, http.StatusOK},
		{token, http.StatusUnauthorized},
		{"Basic " + token, http.StatusUnauthorized},
		{"Bearer " + token + " extra", http.StatusUnauthorized},
		{"Bearer", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		code, _ := authStatus(tt.header)
		assert.Equal(t, tt.expected, code, "header %q", tt.header)
	}
}

func TestGetUserUUID(t *testing.T) {
	id := uuid.New()
	ctx := context.WithValue(context.Background(), UserIDKey, id.String())

	got, ok := GetUserUUID(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = GetUserUUID(context.WithValue(context.Background(), UserIDKey, "not-a-uuid"))
	assert.False(t, ok)

	_, ok = GetUserUUID(context.Background())
	assert.False(t, ok)
}

func TestRequireSeller(t *testing.T) {
	handler := RequireSeller(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		role     string
		setRole  bool
		expected int
	}{
		{"seller passes", "seller", true, http.StatusOK},
		{"shopper is forbidden", "user", true, http.StatusForbidden},
		{"missing role is forbidden", "", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/seller/orders", nil)
			if tt.setRole {
				req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, tt.role))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "seller_only")
			}
		})
	}
}
