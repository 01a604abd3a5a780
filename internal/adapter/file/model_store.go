package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// modelEnvelope wraps the fitted model with the time it was written.
type modelEnvelope struct {
	TrainedAt time.Time           `json:"trained_at"`
	Model     *domain.FittedModel `json:"model"`
}

type ModelStore struct {
	path string
	log  *zap.Logger
}

func NewModelStore(path string, log *zap.Logger) ports.ModelStore {
	return &ModelStore{
		path: path,
		log:  log,
	}
}

func (s *ModelStore) Save(ctx context.Context, model *domain.FittedModel) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	envelope := modelEnvelope{
		TrainedAt: time.Now().UTC(),
		Model:     model,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return "", fmt.Errorf("failed to write model: %w", err)
	}

	s.log.Info("Saved model",
		zap.String("path", s.path),
		zap.String("model_id", model.ID),
		zap.String("variant", string(model.Variant)))
	return s.path, nil
}

func (s *ModelStore) Load(ctx context.Context) (*domain.FittedModel, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var envelope modelEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if envelope.Model == nil {
		return nil, fmt.Errorf("model file %s has no model payload", s.path)
	}
	return envelope.Model, nil
}
