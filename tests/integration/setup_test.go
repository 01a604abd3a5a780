package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/urjalabs/solatlas/internal/adapter/cache"
	"github.com/urjalabs/solatlas/internal/adapter/storage/postgres"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/pkg/config"
)

// TestEnv holds the external resources shared by the integration tests
type TestEnv struct {
	DB                *gorm.DB
	Cache             ports.Cache
	PostgresContainer testcontainers.Container
	RedisContainer    testcontainers.Container
	Logger            *zap.Logger
	ctx               context.Context
}

var testEnv *TestEnv

func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, skipped in -short mode")
	}
}

// SetupTestEnvironment initializes the test environment with containers
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Check if using external services (CI environment)
	if os.Getenv("DATABASE_URL") != "" {
		return setupExternalServices(t, ctx)
	}

	// Use testcontainers for local testing
	return setupContainers(t, ctx)
}

func setupExternalServices(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	db := connectPostgres(t, os.Getenv("DATABASE_URL"), logger)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	estimateCache := connectRedis(t, redisURL, logger)

	testEnv = &TestEnv{
		DB:     db,
		Cache:  estimateCache,
		Logger: logger,
		ctx:    ctx,
	}

	return testEnv
}

func setupContainers(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	postgresContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("solatlas_test"),
		tcpostgres.WithUsername("solatlas"),
		tcpostgres.WithPassword("solatlas_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get postgres connection string: %v", err)
	}
	db := connectPostgres(t, connStr, logger)

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	redisURL, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis connection string: %v", err)
	}
	estimateCache := connectRedis(t, redisURL, logger)

	testEnv = &TestEnv{
		DB:                db,
		Cache:             estimateCache,
		PostgresContainer: postgresContainer,
		RedisContainer:    redisContainer,
		Logger:            logger,
		ctx:               ctx,
	}

	return testEnv
}

func connectPostgres(t *testing.T, url string, logger *zap.Logger) *gorm.DB {
	cfg := config.DatabaseConfig{
		Enabled:      true,
		URL:          url,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 30; i++ {
		db, err = postgres.NewConnection(cfg, logger)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	if err := postgres.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func connectRedis(t *testing.T, url string, logger *zap.Logger) ports.Cache {
	estimateCache, err := cache.NewRedisCache(url, logger)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	if err := estimateCache.Ping(); err != nil {
		t.Fatalf("Failed to ping redis: %v", err)
	}
	return estimateCache
}

// CleanTables truncates the tables the tests write to
func CleanTables(t *testing.T, db *gorm.DB) {
	for _, table := range []string{"zone_results", "model_registry"} {
		if err := db.Exec("TRUNCATE TABLE " + table).Error; err != nil {
			t.Logf("Failed to truncate %s: %v", table, err)
		}
	}
}
