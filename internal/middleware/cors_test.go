package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
)

func corsOrigin(cfg config.ServerConfig, origin string) string {
	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", origin)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Header().Get("Access-Control-Allow-Origin")
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.ServerConfig
		origin string
		want   string
	}{
		{"development reflects any origin", config.ServerConfig{Env: "development"}, "http://localhost:5173", "http://localhost:5173"},
		{"configured origin allowed", config.ServerConfig{Env: "production", AllowedOrigins: []string{"https://shop.example.com"}}, "https://shop.example.com", "https://shop.example.com"},
		{"unlisted origin refused", config.ServerConfig{Env: "production", AllowedOrigins: []string{"https://shop.example.com"}}, "https://evil.example.com", ""},
		{"production without origins refuses", config.ServerConfig{Env: "production"}, "https://shop.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, corsOrigin(tt.cfg, tt.origin))
		})
	}
}
