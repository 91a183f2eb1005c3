package transport

import (
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// every route that evaluates a promotion code draws from one budget per user
func TestCodeLimiter_SharedAcrossCodeRoutes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := middleware.RateLimitMiddleware(client, middleware.RateLimitConfig{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:promotions",
	}, zap.NewNop())
	sellerOnly := middleware.RequireSeller(zap.NewNop())

	carts := &fakeCartService{cart: domain.NewCart()}
	orders := &fakeOrderService{}
	r := chi.NewRouter()
	NewPromotionHandler(&fakePromotionService{}, zap.NewNop()).RegisterRoutes(r, testAuth, sellerOnly, limiter)
	NewCartHandler(carts, zap.NewNop()).RegisterRoutes(r, testAuth, limiter)
	NewOrderHandler(orders, zap.NewNop()).RegisterRoutes(r, testAuth, sellerOnly, limiter)

	guesser := uuid.New()
	quote := map[string]string{"promotion_code": "GUESS1"}

	w, _ := doRequest(t, r, http.MethodPost, "/api/promotions/validate", map[string]string{"code": "GUESS0"}, guesser, domain.RoleUser)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doRequest(t, r, http.MethodPost, "/api/cart/quote", quote, guesser, domain.RoleUser)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doRequest(t, r, http.MethodPost, "/api/cart/quote", map[string]string{"promotion_code": "GUESS2"}, guesser, domain.RoleUser)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "GUESS1", carts.code)

	w, _ = doRequest(t, r, http.MethodPost, "/api/orders", map[string]interface{}{
		"address_id":     uuid.NewString(),
		"items":          []map[string]interface{}{{"product": "phone", "quantity": 1}},
		"promotion_code": "GUESS3",
	}, guesser, domain.RoleUser)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Empty(t, orders.placed.PromotionCode)

	// cart reads stay open and other users keep their own budget
	w, _ = doRequest(t, r, http.MethodPut, "/api/cart/items/phone", map[string]int{"quantity": 1}, guesser, domain.RoleUser)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doRequest(t, r, http.MethodPost, "/api/cart/quote", quote, uuid.New(), domain.RoleUser)
	assert.Equal(t, http.StatusOK, w.Code)
}
