package file

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// ZoneResults serves the scored table straight from the artifact file for
// deployments without a Postgres mirror. The artifact is re-read per call so
// a pipeline rerun becomes visible without a restart.
type ZoneResults struct {
	store ports.ArtifactStore
	log   *zap.Logger
}

func NewZoneResults(store ports.ArtifactStore, log *zap.Logger) ports.ZoneResultReader {
	return &ZoneResults{store: store, log: log}
}

func (r *ZoneResults) List(ctx context.Context) ([]domain.ZoneResult, error) {
	_, results, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading scored artifact: %w", err)
	}
	return results, nil
}

func (r *ZoneResults) FindByZoneID(ctx context.Context, zoneID string) (*domain.ZoneResult, error) {
	_, results, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading scored artifact: %w", err)
	}
	for i := range results {
		if results[i].ZoneID == zoneID {
			return &results[i], nil
		}
	}
	return nil, nil
}
