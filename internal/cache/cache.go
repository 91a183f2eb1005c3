package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// CartCache keeps a short-lived copy of server carts keyed by user id.
//
// Every invalidation bumps a per-user generation. A reader takes the
// generation before it loads the cart from the database and stores the
// result with SetIfGeneration, so a load that raced a write is dropped.
type CartCache interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	// Generation is zero until the first invalidation
	Generation(ctx context.Context, userID string) (int64, error)
	// SetIfGeneration reports whether cart was stored
	SetIfGeneration(ctx context.Context, userID string, gen int64, cart domain.Cart) (bool, error)
	// Invalidate drops the cached cart and bumps the generation in one step
	Invalidate(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
