package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Storefront API stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// run connects the backing stores, serves until SIGINT or SIGTERM, then drains
// in-flight requests and closes every connection.
func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	deps, err := connect(cfg, log)
	if err != nil {
		return err
	}
	srv := server.NewServer(cfg, log, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		stop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		return srv.Close()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Graceful shutdown complete")
	return nil
}

// connect opens Postgres (accounts, carts, promotions, orders), Mongo (catalog),
// Redis (cart cache, rate limits) and the order event publisher.
func connect(cfg *config.Config, log *zap.Logger) (server.Deps, error) {
	dbService, err := database.New(cfg.Database)
	if err != nil {
		return server.Deps{}, fmt.Errorf("open database: %w", err)
	}
	db := dbService.DB()
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	if err := database.RunMigrations(db, log); err != nil {
		return server.Deps{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	mongoDB, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return server.Deps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if indexer, ok := repository.NewProductRepository(mongoDB).(repository.IndexCreator); ok {
		if err := indexer.CreateIndexes(ctx); err != nil {
			log.Warn("Failed to create catalog indexes", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, cart cache and rate limits degrade", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		log.Info("Publishing order events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.OrderTopic),
		)
	}

	return server.Deps{
		DB:        db,
		Mongo:     mongoDB,
		Redis:     redisClient,
		Publisher: publisher,
	}, nil
}
