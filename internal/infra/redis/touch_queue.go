package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hiveiam/hive/internal/core/port"
)

// TouchQueue implements port.TokenTouchQueue over a Redis sorted set: the
// member is the token id, the score is the touch's unix timestamp. A
// burst of requests against the same token overwrites the same member,
// so the drainer flushes at most one write per token per drain interval
// regardless of request volume (§4.4 step 5).
type TouchQueue struct {
	client *redis.Client
	key    string
}

// NewTouchQueue constructs a TouchQueue keyed under prefix.
func NewTouchQueue(client *Client, prefix string) *TouchQueue {
	return &TouchQueue{client: client.Client(), key: prefix + ":pending"}
}

// Enqueue records tokenID as touched at `at`, coalescing with any
// earlier pending touch for the same token.
func (q *TouchQueue) Enqueue(ctx context.Context, tokenID string, at time.Time) error {
	return q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(at.Unix()),
		Member: tokenID,
	}).Err()
}

// DrainDue pops up to limit pending touches, returning the token id to
// touch-time mapping for the caller to flush to the APITokenRepository.
func (q *TouchQueue) DrainDue(ctx context.Context, limit int) (map[string]time.Time, error) {
	members, err := q.client.ZRangeWithScores(ctx, q.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange pending token touches: %w", err)
	}
	if len(members) == 0 {
		return map[string]time.Time{}, nil
	}

	out := make(map[string]time.Time, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		tokenID, ok := m.Member.(string)
		if !ok {
			continue
		}
		out[tokenID] = time.Unix(int64(m.Score), 0).UTC()
		ids = append(ids, tokenID)
	}

	if err := q.client.ZRem(ctx, q.key, anySlice(ids)...).Err(); err != nil {
		return nil, fmt.Errorf("zrem drained token touches: %w", err)
	}

	return out, nil
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

var _ port.TokenTouchQueue = (*TouchQueue)(nil)
