package admission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowgate/flowgate/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

// ScanCache stores scan results keyed by workflow content hash. Get returns
// (nil, nil) on a miss.
type ScanCache interface {
	Get(ctx context.Context, key string) (*models.SecurityScanResult, error)
	Set(ctx context.Context, key string, result models.SecurityScanResult, ttl time.Duration) error
}

// RedisScanCache implements ScanCache on top of Redis.
type RedisScanCache struct {
	client redis.UniversalClient
}

// NewRedisScanCache connects to Redis using a redis:// URL.
func NewRedisScanCache(redisURL string) (*RedisScanCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &RedisScanCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisScanCache) Get(ctx context.Context, key string) (*models.SecurityScanResult, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan cache get: %w", err)
	}

	var result models.SecurityScanResult

	err = json.Unmarshal(raw, &result)
	if err != nil {
		return nil, fmt.Errorf("scan cache decode: %w", err)
	}

	return &result, nil
}

func (c *RedisScanCache) Set(ctx context.Context, key string, result models.SecurityScanResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("scan cache encode: %w", err)
	}

	err = c.client.Set(ctx, key, raw, ttl).Err()
	if err != nil {
		return fmt.Errorf("scan cache set: %w", err)
	}

	return nil
}

// Close releases the underlying Redis connection.
func (c *RedisScanCache) Close() error {
	return c.client.Close()
}
