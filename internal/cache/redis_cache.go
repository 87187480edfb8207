package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"gudangkita/backend/internal/domain"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string, password string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) HasFlag(ctx context.Context, flag string) (bool, error) {
	_, err := c.client.Get(ctx, flag).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetFlag writes the presence marker. Flags deliberately carry no TTL: they
// are cleared by the workflow that set them, or by an operator after a crash.
func (c *RedisCache) SetFlag(ctx context.Context, flag string) error {
	return c.client.Set(ctx, flag, "true", 0).Err()
}

func (c *RedisCache) ClearFlags(ctx context.Context, flags ...string) error {
	if len(flags) == 0 {
		return nil
	}
	return c.client.Del(ctx, flags...).Err()
}

func (c *RedisCache) SetAnalytics(ctx context.Context, snapshot *domain.Analytics) error {
	if snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, AnalyticsKey, payload, time.Duration(0)).Err()
}

func (c *RedisCache) Analytics(ctx context.Context) (*domain.Analytics, bool, error) {
	val, err := c.client.Get(ctx, AnalyticsKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot domain.Analytics
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, false, err
	}
	return &snapshot, true, nil
}

func (c *RedisCache) ClearAnalytics(ctx context.Context) error {
	return c.client.Del(ctx, AnalyticsKey).Err()
}
