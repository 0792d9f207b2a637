package entitlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const offerCacheKey = "entitlement:lifetime_offer"

// redisOfferCache caches lifetime-offer reads in Redis with a short TTL.
// The offer is fetched on every marketing render, so shaving the store
// round-trip matters; staleness is bounded by the TTL and the store remains
// the source of truth for the actual seat allocation.
type redisOfferCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisOfferCache returns an OfferCache backed by the given client.
func NewRedisOfferCache(client *redis.Client, ttl time.Duration) OfferCache {
	if client == nil {
		panic("entitlement: redis client is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisOfferCache{client: client, ttl: ttl}
}

func (c *redisOfferCache) Get(ctx context.Context) (LifetimeOffer, bool) {
	raw, err := c.client.Get(ctx, offerCacheKey).Bytes()
	if err != nil {
		return LifetimeOffer{}, false
	}

	var offer LifetimeOffer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return LifetimeOffer{}, false
	}
	return offer, true
}

// Set stores the offer best-effort; a failed cache write only costs the
// next reader a store round-trip.
func (c *redisOfferCache) Set(ctx context.Context, offer LifetimeOffer) {
	raw, err := json.Marshal(offer)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, offerCacheKey, raw, c.ttl).Err()
}
