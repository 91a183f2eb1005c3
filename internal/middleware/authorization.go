package middleware

import (
	"net/http"
	"slices"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// RequireSeller gates the seller back office. It must run after AuthMiddleware.
func RequireSeller(logger *zap.Logger) func(http.Handler) http.Handler {
	return requireRole(logger, domain.ErrSellerOnly, domain.RoleSeller)
}

func requireRole(logger *zap.Logger, denied error, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := GetUserRole(r.Context())
			if !slices.Contains(roles, role) {
				userID, _ := GetUserID(r.Context())
				logger.Warn("Role not allowed on route",
					zap.String("user_id", userID),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				RespondWithDomainError(w, logger, denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
