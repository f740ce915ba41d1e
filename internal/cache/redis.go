package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/PandoraOSgit/pandora-market-feed/internal/constants"
	"github.com/PandoraOSgit/pandora-market-feed/internal/models"
	"github.com/PandoraOSgit/pandora-market-feed/internal/storage"
)

// RedisCache keeps the hot path out of ClickHouse: a capped list of recent
// launches plus short-TTL metric snapshots keyed by mint.
type RedisCache struct {
	client *redis.Client
}

var _ storage.LaunchCache = (*RedisCache)(nil)

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Connected to Redis")

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client. The caller owns the client
// lifecycle when constructed this way.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) AddRecentLaunch(ctx context.Context, launch *models.LaunchEvent) error {
	data, err := json.Marshal(launch)
	if err != nil {
		return fmt.Errorf("failed to marshal launch: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentLaunches, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentLaunches, 0, constants.MaxRecentLaunches-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store launch: %w", err)
	}

	return nil
}

func (r *RedisCache) GetRecentLaunches(ctx context.Context, limit int64) ([]*models.LaunchEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultLaunchLimit
	}

	entries, err := r.client.LRange(ctx, constants.RedisKeyRecentLaunches, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent launches: %w", err)
	}

	launches := make([]*models.LaunchEvent, 0, len(entries))
	for _, entry := range entries {
		var launch models.LaunchEvent
		if err := json.Unmarshal([]byte(entry), &launch); err != nil {
			log.Printf("Skipping corrupt launch entry: %v", err)
			continue
		}
		launches = append(launches, &launch)
	}

	return launches, nil
}

func (r *RedisCache) SetTokenMetrics(ctx context.Context, metrics *models.TokenMetrics) error {
	if metrics.Mint == "" {
		return fmt.Errorf("cannot cache metrics without a mint")
	}

	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	key := constants.RedisKeyMetricsPrefix + metrics.Mint
	if err := r.client.Set(ctx, key, data, constants.MetricsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache metrics for %s: %w", metrics.Mint, err)
	}

	return nil
}

// GetTokenMetrics returns (nil, nil) on a cache miss.
func (r *RedisCache) GetTokenMetrics(ctx context.Context, mint string) (*models.TokenMetrics, error) {
	key := constants.RedisKeyMetricsPrefix + mint

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics for %s: %w", mint, err)
	}

	var metrics models.TokenMetrics
	if err := json.Unmarshal([]byte(data), &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics for %s: %w", mint, err)
	}

	return &metrics, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
