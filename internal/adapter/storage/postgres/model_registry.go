package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

type ModelRegistry struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewModelRegistry(db *gorm.DB, log *zap.Logger) ports.ModelRegistry {
	return &ModelRegistry{
		db:  db,
		log: log,
	}
}

func (r *ModelRegistry) Save(ctx context.Context, record *domain.ModelRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *ModelRegistry) Latest(ctx context.Context, variant domain.ModelVariant) (*domain.ModelRecord, error) {
	var record domain.ModelRecord
	err := r.db.WithContext(ctx).
		Where("variant = ?", variant).
		Order("trained_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
