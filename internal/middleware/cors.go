package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront/internal/config"
)

// CORSMiddleware admits the configured storefront origins. Development accepts any
// origin when none are configured; production then refuses cross-origin calls.
func CORSMiddleware(cfg config.ServerConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	switch {
	case len(cfg.AllowedOrigins) > 0:
		opts.AllowedOrigins = cfg.AllowedOrigins
	case cfg.IsDevelopment():
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	default:
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}

	return cors.Handler(opts)
}

// DefaultMiddlewareStack returns request id, real ip, panic recovery and compression
func DefaultMiddlewareStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Compress(5),
	}
}
