package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
)

type localEntry struct {
	value    string
	deadline time.Time
}

func (e localEntry) live(now time.Time) bool {
	return e.deadline.IsZero() || now.Before(e.deadline)
}

// LocalCache is the in-memory ports.Cache for single-node deployments and
// for when no Redis URL is configured. A janitor goroutine sweeps expired
// entries on an interval.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	log     *zap.Logger
	done    chan struct{}
}

// NewLocalCache starts an in-memory cache whose janitor runs every
// cleanupInterval.
func NewLocalCache(cleanupInterval time.Duration, log *zap.Logger) ports.Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	c := &LocalCache{
		entries: make(map[string]localEntry),
		log:     log,
		done:    make(chan struct{}),
	}
	go c.janitor(cleanupInterval)

	log.Info("In-memory cache started",
		zap.Duration("cleanup_interval", cleanupInterval),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	switch {
	case !ok:
		telemetry.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return "", fmt.Errorf("no entry for key %s", key)
	case !entry.live(time.Now()):
		// Left for the janitor; a read lock cannot delete it here.
		telemetry.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return "", fmt.Errorf("entry for key %s expired", key)
	}

	telemetry.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	strVal, err := stringValue(value)
	if err != nil {
		return err
	}

	entry := localEntry{value: strVal}
	if expiration > 0 {
		entry.deadline = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	close(c.done)
	return nil
}

func (c *LocalCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.sweep(time.Now()); removed > 0 {
				c.log.Debug("Swept expired cache entries", zap.Int("removed", removed))
			}
		case <-c.done:
			return
		}
	}
}

func (c *LocalCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !entry.live(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// stringValue flattens cached values to strings, marshaling structs to JSON.
func stringValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal value: %w", err)
		}
		return string(data), nil
	}
}
