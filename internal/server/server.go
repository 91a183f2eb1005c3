package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the connections the server owns once constructed
type Deps struct {
	DB        *sql.DB
	Mongo     *mongo.Database
	Redis     *redis.Client
	Publisher events.Publisher
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(newRouter(cfg, logger, deps), "storefront"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func newRouter(cfg *config.Config, logger *zap.Logger, deps Deps) chi.Router {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", healthHandler(deps))

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(deps.DB)
	addressRepo := repository.NewAddressRepository(deps.DB)
	promotionRepo := repository.NewPromotionRepository(deps.DB)
	orderRepo := repository.NewOrderRepository(deps.DB)
	cartRepo := repository.NewCartRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.Mongo)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT, cfg.Auth)
	addressService := service.NewAddressService(addressRepo)
	promotionService := service.NewPromotionService(promotionRepo, logger)
	catalogService := service.NewCatalogService(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, cache.NewRedisCache(deps.Redis), promotionService, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, addressService, cartService, promotionService, deps.Publisher, logger)

	// Middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	sellerOnly := custommiddleware.RequireSeller(logger)
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	promotionLimiter := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            window,
		KeyPrefix:         "ratelimit:promotions",
	}, logger)
	loginLimiter := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            window,
		KeyPrefix:         "ratelimit:login",
	}, logger)

	// Handlers
	addressHandler := transport.NewAddressHandler(addressService, logger)
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware, loginLimiter, addressHandler.Routes)
	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router, authMiddleware, sellerOnly)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware, promotionLimiter)
	transport.NewPromotionHandler(promotionService, logger).RegisterRoutes(router, authMiddleware, sellerOnly, promotionLimiter)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware, sellerOnly, promotionLimiter)

	return router
}

// healthHandler reports each backing store and answers 503 when one is down
func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				checks[name] = "down"
				healthy = false
				return
			}
			checks[name] = "up"
		}

		if deps.DB != nil {
			record("postgres", deps.DB.PingContext(ctx))
		}
		if deps.Mongo != nil {
			record("mongo", deps.Mongo.Client().Ping(ctx, nil))
		}
		if deps.Redis != nil {
			record("redis", deps.Redis.Ping(ctx).Err())
		}

		status, summary := http.StatusOK, "ok"
		if !healthy {
			status, summary = http.StatusServiceUnavailable, "degraded"
		}
		custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
			"status": summary,
			"checks": checks,
		})
	}
}

// Close releases every connection the server owns
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.deps.Publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.deps.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Mongo.Client().Disconnect(ctx); err != nil {
			s.logger.Error("Failed to disconnect from mongo", zap.Error(err))
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
