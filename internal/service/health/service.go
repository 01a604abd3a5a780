package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single dependency check
type CheckResult struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Duration  float64   `json:"duration_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service runs dependency health checks
type Service struct {
	db        *sql.DB
	cache     ports.Cache
	queueURL  string
	home      ports.HomeService
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. Nil or empty dependencies are
// simply not checked.
type Config struct {
	Version  string
	DB       *sql.DB
	Cache    ports.Cache
	QueueURL string
	Home     ports.HomeService
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		db:        config.DB,
		cache:     config.Cache,
		queueURL:  config.QueueURL,
		home:      config.Home,
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.DB != nil {
		s.RegisterChecker("database", s.checkDatabase)
	}
	if config.Cache != nil {
		s.RegisterChecker("cache", s.checkCache)
	}
	if config.QueueURL != "" {
		s.RegisterChecker("queue", s.checkQueue)
	}
	if config.Home != nil {
		s.RegisterChecker("artifact", s.checkArtifact)
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Live performs a basic liveness check
func (s *Service) Live(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Check pings every registered dependency and folds the results into one
// overall status. Any unhealthy check makes the whole response unhealthy,
// any degraded one degrades it.
func (s *Service) Check(ctx context.Context) *HealthResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &HealthResponse{
		Status:    overallStatus,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// checkDatabase pings the Postgres mirror
func (s *Service) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "database",
		Timestamp: time.Now(),
	}

	err := s.db.PingContext(ctx)
	result.Duration = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Database health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

// checkCache pings the estimate cache backend
func (s *Service) checkCache(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "cache",
		Timestamp: time.Now(),
	}

	err := s.cache.Ping()
	result.Duration = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Cache health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

// checkQueue reports whether the artifact-update subscription is configured
func (s *Service) checkQueue(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "queue",
		Timestamp: time.Now(),
	}

	result.Duration = float64(time.Since(start).Microseconds()) / 1000
	result.Status = StatusHealthy
	result.Message = "configured"

	return result
}

// checkArtifact reports whether a scored artifact is loaded and serving.
// A missing artifact degrades rather than fails the service: the pipeline
// simply has not produced output yet.
func (s *Service) checkArtifact(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "artifact",
		Timestamp: time.Now(),
	}

	version := s.home.Version()
	result.Duration = float64(time.Since(start).Microseconds()) / 1000

	if version == 0 {
		result.Status = StatusDegraded
		result.Message = "no scored artifact loaded"
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("serving snapshot %d", version)
	}

	return result
}
