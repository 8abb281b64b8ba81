// Package cache memoizes single-item evaluations by parameter fingerprint.
// The engine itself is pure and never caches; this layer is an optional
// performance optimization in front of it, not a correctness requirement.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/replenlab/eoq-engine/internal/config"
	"github.com/replenlab/eoq-engine/internal/domain"
)

// ResultCache stores evaluated single-item results keyed by their inputs.
type ResultCache interface {
	Get(ctx context.Context, row domain.InputRow) (*domain.ItemResult, bool, error)
	Set(ctx context.Context, row domain.InputRow, result *domain.ItemResult) error
}

const keyPrefix = "eoq:item:"

// Fingerprint derives a stable cache key from the full input row. Identical
// parameters always map to the same key, so a hit is exactly a recompute.
func Fingerprint(row domain.InputRow) (string, error) {
	// Line is presentation metadata, not an input to the math.
	row.Line = 0
	raw, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint row: %w", err)
	}
	sum := sha256.Sum256(raw)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache connects to redis per config. Returns an error when redis
// is unreachable so the caller can fall back to the noop cache.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisResultCache{client: client, ttl: ttl}, nil
}

func (c *redisResultCache) Get(ctx context.Context, row domain.InputRow) (*domain.ItemResult, bool, error) {
	key, err := Fingerprint(row)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.ItemResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, true, nil
}

func (c *redisResultCache) Set(ctx context.Context, row domain.InputRow, result *domain.ItemResult) error {
	key, err := Fingerprint(row)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

type noopResultCache struct{}

// NewNoopResultCache returns a cache that never hits, for deployments
// without redis.
func NewNoopResultCache() ResultCache {
	return noopResultCache{}
}

func (noopResultCache) Get(context.Context, domain.InputRow) (*domain.ItemResult, bool, error) {
	return nil, false, nil
}

func (noopResultCache) Set(context.Context, domain.InputRow, *domain.ItemResult) error {
	return nil
}
