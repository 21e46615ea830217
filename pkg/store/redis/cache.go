// Package redis caches solve results. Analysis requests are pure functions
// of (model, method, options), so a canonical hash of the request is a safe
// cache key: identical requests always produce the same Solution.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// DefaultTTL bounds how long a cached Solution is served.
const DefaultTTL = 15 * time.Minute

// Cache is a solve-result cache backed by redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Key derives the canonical cache key for a request. Options carry no
// unexported or callback state on the wire, so JSON is a stable canonical
// form for hashing.
func Key(method analysis.Method, m *model.Model, opts analysis.Options) (string, error) {
	payload, err := json.Marshal(struct {
		Method  string           `json:"method"`
		Model   *model.Model     `json:"model"`
		Options analysis.Options `json:"options"`
	}{method.String(), m, opts})
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return "fluxlord:solve:" + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached Solution for a key, or a miss.
func (c *Cache) Get(ctx context.Context, key string) (analysis.Solution, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return analysis.Solution{}, false, nil
	}
	if err != nil {
		return analysis.Solution{}, false, fmt.Errorf("cache get failed: %w", err)
	}
	var sol analysis.Solution
	if err := json.Unmarshal(data, &sol); err != nil {
		return analysis.Solution{}, false, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return sol, true, nil
}

// Set stores a Solution under a key with the cache's TTL.
func (c *Cache) Set(ctx context.Context, key string, sol analysis.Solution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("failed to marshal solution: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}
