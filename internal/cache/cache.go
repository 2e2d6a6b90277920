// Package cache stores analysis results in Redis keyed by corpus, strategy,
// and the exact situation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pable/playcall/internal/model"
)

const keyPrefix = "playcall:analysis"

// ResultCache is a best-effort store for analysis results.
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.AnalysisResult, bool, error)
	Set(ctx context.Context, key string, res model.AnalysisResult) error
}

// Key identifies one analysis. Every situation field takes part, not just the
// coarse situation code, because the filter windows use the exact values.
func Key(corpus, strategy string, s model.Situation) string {
	return fmt.Sprintf("%s:%s:%s:q%d:d%d:t%d:y%d:c%02d%02d:tp%t",
		keyPrefix, corpus, strategy,
		s.Quarter, s.Down, s.ToGo, s.YardLine, s.Minutes, s.Seconds, s.IsTwoPointConversion)
}

// RedisCache is a ResultCache backed by go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A zero ttl stores entries without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial parses url, connects, and pings the server.
func Dial(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get returns the cached result, or ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.AnalysisResult, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	res, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Set stores res under key with the cache's TTL.
func (c *RedisCache) Set(ctx context.Context, key string, res model.AnalysisResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func decode(data []byte) (*model.AnalysisResult, error) {
	var res model.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if res.BestPlay != nil {
		// Weights are not serialized.
		model.DeriveWeights(res.BestPlay)
	}
	return &res, nil
}

// Nop never hits and discards writes.
type Nop struct{}

func (Nop) Get(context.Context, string) (*model.AnalysisResult, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, model.AnalysisResult) error { return nil }
