package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/pkg/config"
)

// New selects the cache backend from configuration. The in-process cache is
// the default; redis needs a reachable URL.
func New(cfg config.CacheConfig, redisURL string, log *zap.Logger) (ports.Cache, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalCache(cfg.CleanupInterval, log), nil
	case "redis":
		return NewRedisCache(redisURL, log)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
