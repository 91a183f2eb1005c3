package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

const (
	defaultBaseTTL = 15 * time.Minute
	maxJitter      = 5 // minutes

	// generations outlive any cart entry so a stale load cannot match a reset counter
	generationTTL = 24 * time.Hour
)

// KEYS[1] cart, KEYS[2] generation. ARGV: expected generation, payload, ttl ms.
var setIfGenerationScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// KEYS[1] cart, KEYS[2] generation. ARGV: generation ttl ms.
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
local gen = redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return gen
`)

// NewRedisCache creates a cart cache with the default TTL
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: defaultBaseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if cart == nil {
		cart = domain.NewCart()
	}

	return cart, nil
}

func (r *RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// SetIfGeneration stores the cart with a jittered TTL so entries written
// together expire apart. Nothing is stored once the generation has moved on.
func (r *RedisCache) SetIfGeneration(ctx context.Context, userID string, gen int64, cart domain.Cart) (bool, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitter))*time.Minute
	stored, err := setIfGenerationScript.Run(ctx, r.client,
		[]string{cacheKey(userID), generationKey(userID)},
		gen, data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}
	return stored == 1, nil
}

func (r *RedisCache) Invalidate(ctx context.Context, userID string) error {
	err := invalidateScript.Run(ctx, r.client,
		[]string{cacheKey(userID), generationKey(userID)},
		generationTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func generationKey(userID string) string {
	return fmt.Sprintf("cart:%s:gen", userID)
}
