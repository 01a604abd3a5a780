package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

type ZoneResultRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewZoneResultRepository(db *gorm.DB, log *zap.Logger) ports.ZoneResultRepository {
	return &ZoneResultRepository{
		db:  db,
		log: log,
	}
}

func (r *ZoneResultRepository) UpsertAll(ctx context.Context, results []domain.ZoneResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "zone_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_annual_kwh",
			"suitability_score",
			"model_id",
			"run_id",
			"updated_at",
		}),
	}).Create(&results).Error
}

func (r *ZoneResultRepository) List(ctx context.Context) ([]domain.ZoneResult, error) {
	var results []domain.ZoneResult
	err := r.db.WithContext(ctx).Order("zone_id asc").Find(&results).Error
	return results, err
}

func (r *ZoneResultRepository) FindByZoneID(ctx context.Context, zoneID string) (*domain.ZoneResult, error) {
	var result domain.ZoneResult
	err := r.db.WithContext(ctx).First(&result, "zone_id = ?", zoneID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
