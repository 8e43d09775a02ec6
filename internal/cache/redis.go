// Package cache provides a tiny Redis client wrapper for evaluation results.
// Entries are keyed by model ID plus structure content hash, so identical
// structures seen again (retried trajectories replay the same setup) skip the
// batch entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mdfleet/mdfleet/internal/potential"
)

// Cache wraps a Redis client for evaluation result storage
type Cache struct {
	client *redis.Client
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

type entry struct {
	Energy float64   `json:"energy"`
	Forces []float32 `json:"forces"`
}

func key(modelID, structHash string) string {
	return fmt.Sprintf("eval:%s:%s", modelID, structHash)
}

// SetResult stores an evaluation result with the specified TTL
func (c *Cache) SetResult(ctx context.Context, modelID, structHash string, res potential.Result, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	data, err := json.Marshal(entry{Energy: res.Energy, Forces: res.Forces})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if err := c.client.Set(ctx, key(modelID, structHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set result for %s: %w", structHash, err)
	}
	return nil
}

// GetResult retrieves a cached evaluation result. The second return value is
// false when the key does not exist.
func (c *Cache) GetResult(ctx context.Context, modelID, structHash string) (potential.Result, bool, error) {
	if c.client == nil {
		return potential.Result{}, false, fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key(modelID, structHash)).Result()
	if err == redis.Nil {
		return potential.Result{}, false, nil // Key does not exist
	}
	if err != nil {
		return potential.Result{}, false, fmt.Errorf("failed to get result for %s: %w", structHash, err)
	}

	var e entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return potential.Result{}, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return potential.Result{Energy: e.Energy, Forces: e.Forces}, true, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
