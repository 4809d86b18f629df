package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kidbea/forecast-go/internal/config"
	"github.com/kidbea/forecast-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastKeyPrefix = "forecast:result"

// ForecastCache holds computed forecast results keyed by (SKU, horizon).
// Entries expire after the configured forecast TTL (6h by default), so two
// calls inside the window return the identical result.
type ForecastCache interface {
	Get(ctx context.Context, skuCode string, horizonDays int) (*domain.ForecastResult, bool, error)
	Set(ctx context.Context, skuCode string, horizonDays int, result *domain.ForecastResult) error
	Invalidate(ctx context.Context, skuCode string, horizonDays int) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttlOrDefault(cfg.ForecastTTLSeconds),
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, skuCode string, horizonDays int) (*domain.ForecastResult, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(skuCode, horizonDays)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.ForecastResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, skuCode string, horizonDays int, result *domain.ForecastResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, buildForecastKey(skuCode, horizonDays), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, skuCode string, horizonDays int) error {
	return c.client.Del(ctx, buildForecastKey(skuCode, horizonDays)).Err()
}

func (n *noopForecastCache) Get(ctx context.Context, skuCode string, horizonDays int) (*domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, skuCode string, horizonDays int, result *domain.ForecastResult) error {
	return nil
}

func (n *noopForecastCache) Invalidate(ctx context.Context, skuCode string, horizonDays int) error {
	return nil
}

func buildForecastKey(skuCode string, horizonDays int) string {
	return fmt.Sprintf("%s:%s:%d", forecastKeyPrefix, skuCode, horizonDays)
}
