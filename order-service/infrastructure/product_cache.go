package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/redis/go-redis/v9"
)

const defaultProductCacheTTL = 5 * time.Minute

// CachedProductFinder is a read-through cache in front of a
// ProductFinder. Cache failures degrade to the underlying finder, they
// never fail a lookup. Entries are keyed by product ID only; prices are
// not per-caller, so the bearer token takes no part in the key.
type CachedProductFinder struct {
	next  domain.ProductFinder
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedProductFinder wraps next with a Redis cache
func NewCachedProductFinder(next domain.ProductFinder, client *redis.Client, ttl time.Duration) *CachedProductFinder {
	if ttl <= 0 {
		ttl = defaultProductCacheTTL
	}
	return &CachedProductFinder{
		next:  next,
		redis: client,
		ttl:   ttl,
	}
}

// FindByID returns the cached product when present, otherwise falls
// through and populates the cache
func (f *CachedProductFinder) FindByID(ctx context.Context, productID models.ID, bearerToken string) (*domain.PricedProduct, error) {
	key := "product:" + productID.String()

	cached, err := f.redis.Get(ctx, key).Result()
	if err == nil {
		var product domain.PricedProduct
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
		slog.WarnContext(ctx, "evicting unreadable product cache entry", "key", key)
		f.redis.Del(ctx, key)
	} else if err != redis.Nil {
		slog.WarnContext(ctx, "product cache read failed", "key", key, "error", err)
	}

	product, err := f.next.FindByID(ctx, productID, bearerToken)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(product); err == nil {
		if err := f.redis.Set(ctx, key, encoded, f.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "product cache write failed", "key", key, "error", err)
		}
	}

	return product, nil
}
