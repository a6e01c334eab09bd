package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SeenSet is a Redis-backed record of URLs discovery has already surfaced,
// shared across runs and across instances.
type SeenSet struct {
	rdb *redis.Client
}

// NewSeenSet creates a Redis-backed seen set.
func NewSeenSet(client *Client) *SeenSet {
	return &SeenSet{rdb: client.rdb}
}

const seenKey = "discovery:seen_urls"

// Seen reports whether the URL was surfaced by an earlier sweep.
func (s *SeenSet) Seen(ctx context.Context, url string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, seenKey, url).Result()
	if err != nil {
		return false, fmt.Errorf("sismember failed: %w", err)
	}
	return ok, nil
}

// MarkSeen records the URL. Idempotent.
func (s *SeenSet) MarkSeen(ctx context.Context, url string) error {
	if err := s.rdb.SAdd(ctx, seenKey, url).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	return nil
}

// Count returns the number of remembered URLs.
func (s *SeenSet) Count(ctx context.Context) (int64, error) {
	count, err := s.rdb.SCard(ctx, seenKey).Result()
	if err != nil {
		return 0, fmt.Errorf("scard failed: %w", err)
	}
	return count, nil
}
