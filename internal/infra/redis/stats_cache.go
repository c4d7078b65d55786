package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-analytics-service/internal/domain"
)

// StatsCache memoizes computed participant stats between writes:
// SET stats:participant:{name} {json}. Each write drops every stats key,
// since a new result moves the percentile baseline for all participants.
// A cache failure is always treated as a miss.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, name string) (*domain.ParticipantStats, bool, error) {
	raw, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s domain.ParticipantStats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (c *StatsCache) Set(ctx context.Context, name string, s *domain.ParticipantStats) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(name), data, c.ttl).Err()
}

func (c *StatsCache) InvalidateAll(ctx context.Context) error {
	keys, err := c.client.Keys(ctx, "stats:participant:*").Result()
	if err != nil || len(keys) == 0 {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *StatsCache) key(name string) string {
	return "stats:participant:" + name
}
