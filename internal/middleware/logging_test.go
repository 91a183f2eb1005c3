package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusTooManyRequests, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		handler := chimiddleware.RequestID(LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("body"))
		})))

		req := httptest.NewRequest(http.MethodGet, "/api/products?category=phones", nil)
		req.Header.Set("User-Agent", "storefront-test")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		fields := entry.ContextMap()
		assert.Equal(t, tt.level, entry.Level, "status %d", tt.status)
		assert.Equal(t, "/api/products", fields["path"])
		assert.EqualValues(t, tt.status, fields["status"])
		assert.EqualValues(t, 4, fields["bytes"])
		assert.Equal(t, "storefront-test", fields["user_agent"])
		assert.NotEmpty(t, fields["request_id"])
	}
}
