package port

import (
	"context"
	"time"
)

// CacheZMember represents a sorted-set member payload for cache operations.
type CacheZMember struct {
	Member string
	Score  float64
}

// Cache exposes common cache operations leveraged across the service.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ZAdd(ctx context.Context, key string, members ...CacheZMember) error
	ZRangeByScore(ctx context.Context, key string, min, max string, limit int64) ([]CacheZMember, error)
}

// TokenTouchQueue coalesces API token last_used_at updates (§4.4 step 5)
// so a burst of requests against the same token produces one write
// instead of one per request. Enqueue is fire-and-forget; a background
// drainer flushes accumulated touches to the APITokenRepository.
type TokenTouchQueue interface {
	Enqueue(ctx context.Context, tokenID string, at time.Time) error
	DrainDue(ctx context.Context, limit int) (map[string]time.Time, error)
}
