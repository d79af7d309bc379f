// Package cache holds the optional Redis-backed analysis result cache.
// Identical queries hit the same deterministic pipeline, so caching the
// final JSON is safe. Every cache failure is a warning, never a request
// failure, and a nil *Cache disables caching entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/citylens/citylens/internal/logx"
	"github.com/citylens/citylens/internal/models"
)

const keyPrefix = "citylens:analysis:"

// Cache stores analysis results keyed by normalized query hash.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. Callers treat a
// nil cache as disabled, so a connection failure should downgrade, not
// abort.
func New(url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get returns the cached result for a query, or nil on miss.
func (c *Cache) Get(ctx context.Context, query string) *models.AnalysisResult {
	if c == nil {
		return nil
	}

	data, err := c.client.Get(ctx, key(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Warn().Err(err).Msg("cache read failed")
		}
		return nil
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		logx.Warn().Err(err).Msg("dropping undecodable cache entry")
		return nil
	}
	return &result
}

// Put stores a result. Degraded results are not cached; a later attempt
// may do better.
func (c *Cache) Put(ctx context.Context, query string, result *models.AnalysisResult) {
	if c == nil || result == nil || result.Status != models.StatusOK {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logx.Warn().Err(err).Msg("failed to encode result for cache")
		return
	}
	if err := c.client.Set(ctx, key(query), data, c.ttl).Err(); err != nil {
		logx.Warn().Err(err).Msg("cache write failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if c != nil {
		c.client.Close()
	}
}

func key(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}
