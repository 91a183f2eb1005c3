package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	invalidateAttempts = 3
	invalidateTimeout  = 2 * time.Second
	invalidateBackoff  = 50 * time.Millisecond
)

// CartService keeps each user's server side cart
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, productID string) (domain.Cart, error)
	// SetQuantity sets one line. Zero removes it.
	SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) (domain.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, cart domain.Cart) (domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	// Quote prices the current cart, applying code when it is not empty
	Quote(ctx context.Context, userID uuid.UUID, code string) (*Quote, error)
	// Invalidate drops the cached copy after the cart changed elsewhere
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cache       cache.CartCache
	quoter      *quoter
	group       singleflight.Group
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cartCache cache.CartCache,
	promotions PromotionService,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cartCache,
		quoter:      &quoter{productRepo: productRepo, promotions: promotions},
		logger:      logger,
	}
}

// Get serves the cart from cache and coalesces concurrent misses into one
// database read. A load that overlaps an invalidation is returned but not cached.
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	key := userID.String()

	cart, err := s.cache.Get(ctx, key)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Cart cache read failed", zap.String("user_id", key), zap.Error(err))
	}

	gen, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		s.logger.Warn("Cart cache generation read failed", zap.String("user_id", key), zap.Error(genErr))
	}

	// a flight started before a write must not be joined after it
	v, err, _ := s.group.Do(key+":"+strconv.FormatInt(gen, 10), func() (interface{}, error) {
		cart, err := s.cartRepo.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			return cart, nil
		}
		stored, err := s.cache.SetIfGeneration(ctx, key, gen, cart)
		if err != nil {
			s.logger.Warn("Cart cache write failed", zap.String("user_id", key), zap.Error(err))
		} else if !stored {
			s.logger.Debug("Cart changed during load, not caching", zap.String("user_id", key))
		}
		return cart, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	// callers sharing a flight must not share the map
	return v.(domain.Cart).Clone(), nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, productID string) (domain.Cart, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	if _, err := s.cartRepo.AddItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	s.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

func (s *cartService) SetQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	if err := s.cartRepo.SetItem(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	s.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

func (s *cartService) Replace(ctx context.Context, userID uuid.UUID, cart domain.Cart) (domain.Cart, error) {
	for _, q := range cart {
		if q < 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	if err := s.cartRepo.Replace(ctx, userID, cart); err != nil {
		return nil, fmt.Errorf("failed to replace cart: %w", err)
	}
	s.Invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *cartService) Quote(ctx context.Context, userID uuid.UUID, code string) (*Quote, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.quoter.quote(ctx, cart.Lines(), code)
}

// Invalidate runs after committed writes, so it outlives the request context
// and retries before giving up.
func (s *cartService) Invalidate(ctx context.Context, userID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	key := userID.String()

	var err error
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, invalidateTimeout)
		err = s.cache.Invalidate(attemptCtx, key)
		cancel()
		if err == nil {
			return
		}
		s.logger.Warn("Cart cache invalidation failed",
			zap.String("user_id", key),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < invalidateAttempts {
			time.Sleep(time.Duration(attempt) * invalidateBackoff)
		}
	}
	s.logger.Error("Cart cache left stale until expiry", zap.String("user_id", key), zap.Error(err))
}
