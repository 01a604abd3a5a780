package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/urjalabs/solatlas/internal/domain"
)

// TestRedis_CacheOperations exercises the redis estimate cache through the
// ports.Cache surface the API uses.
func TestRedis_CacheOperations(t *testing.T) {
	skipShort(t)

	env := SetupTestEnvironment(t)
	if env == nil || env.Cache == nil {
		t.Skip("Redis not available")
	}

	ctx := context.Background()

	t.Run("SetGet", func(t *testing.T) {
		err := env.Cache.Set(ctx, "test:key", "test-value", time.Minute)
		if err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		val, err := env.Cache.Get(ctx, "test:key")
		if err != nil {
			t.Fatalf("Failed to get key: %v", err)
		}

		if val != "test-value" {
			t.Errorf("Expected 'test-value', got '%s'", val)
		}
	})

	t.Run("SetWithExpiration", func(t *testing.T) {
		err := env.Cache.Set(ctx, "test:expiring", "value", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		if _, err := env.Cache.Get(ctx, "test:expiring"); err != nil {
			t.Fatalf("Key should exist: %v", err)
		}

		time.Sleep(150 * time.Millisecond)

		if _, err := env.Cache.Get(ctx, "test:expiring"); err == nil {
			t.Error("Key should have expired")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := env.Cache.Set(ctx, "test:delete", "value", time.Minute); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		if err := env.Cache.Delete(ctx, "test:delete"); err != nil {
			t.Fatalf("Failed to delete key: %v", err)
		}

		if _, err := env.Cache.Get(ctx, "test:delete"); err == nil {
			t.Error("Key should have been deleted")
		}
	})

	// The estimate handler stores domain.HomeEstimate values; they must
	// survive the marshal round trip.
	t.Run("EstimateRoundTrip", func(t *testing.T) {
		estimate := domain.HomeEstimate{
			Lat:              12.9698,
			Lon:              77.7500,
			InstallationKW:   5,
			ZoneID:           "BLR-0001",
			ZoneAnnualKWh:    15400,
			EstimatedKWh:     7700,
			SuitabilityScore: 91.2,
			Matched:          "contains",
		}
		key := "estimate:v1:12.9698,77.7500:5.00kw"

		if err := env.Cache.Set(ctx, key, estimate, time.Minute); err != nil {
			t.Fatalf("Failed to cache estimate: %v", err)
		}

		cached, err := env.Cache.Get(ctx, key)
		if err != nil {
			t.Fatalf("Failed to read cached estimate: %v", err)
		}

		var decoded domain.HomeEstimate
		if err := json.Unmarshal([]byte(cached), &decoded); err != nil {
			t.Fatalf("Failed to decode cached estimate: %v", err)
		}
		if decoded != estimate {
			t.Errorf("Expected %+v after the round trip, got %+v", estimate, decoded)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := env.Cache.Ping(); err != nil {
			t.Fatalf("Failed to ping cache: %v", err)
		}
	})
}
