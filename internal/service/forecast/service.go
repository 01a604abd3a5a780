package forecast

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Config carries the estimator hyperparameters. Exactly the fields for the
// selected variant are consulted.
type Config struct {
	Variant     domain.ModelVariant
	Lambda      float64
	Trees       int
	MaxDepth    int
	LearnRate   float64
	Subsample   float64
	MinLeafSize int
	Seed        int64
}

type Service struct {
	cfg Config
	log *zap.Logger
}

func NewService(cfg Config, log *zap.Logger) ports.ForecastService {
	return &Service{cfg: cfg, log: log}
}

// Fit trains the configured estimator on the rows and returns an unevaluated
// model. The model ID is a content fingerprint, so refitting identical data
// with identical hyperparameters reproduces the same model byte for byte.
func (s *Service) Fit(ctx context.Context, train []domain.FeatureRow) (*domain.FittedModel, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("training set is empty")
	}
	schema := domain.SchemaOf(train)
	for i, row := range train {
		if !domain.SameSchema(row.Names, schema) {
			return nil, &domain.SchemaMismatchError{Want: schema, Got: row.Names}
		}
		if !row.HasLabel {
			return nil, fmt.Errorf("training row %d for %s has no label", i, row.LocationID)
		}
	}

	model := &domain.FittedModel{
		Variant:   s.cfg.Variant,
		Schema:    schema,
		TrainRows: len(train),
	}

	switch s.cfg.Variant {
	case domain.ModelVariantRidge:
		params, err := fitRidge(train, s.cfg.Lambda)
		if err != nil {
			return nil, fmt.Errorf("fitting ridge: %w", err)
		}
		model.Params = domain.EstimatorParams{Ridge: params}
		model.Hyper = map[string]float64{"lambda": s.cfg.Lambda}
	case domain.ModelVariantGBT:
		params, err := fitGBT(train, gbtConfig{
			Trees:        s.cfg.Trees,
			MaxDepth:     s.cfg.MaxDepth,
			LearningRate: s.cfg.LearnRate,
			Subsample:    s.cfg.Subsample,
			MinLeafSize:  s.cfg.MinLeafSize,
			Seed:         s.cfg.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("fitting gbt: %w", err)
		}
		model.Params = domain.EstimatorParams{GBT: params}
		model.Hyper = map[string]float64{
			"trees":         float64(s.cfg.Trees),
			"max_depth":     float64(s.cfg.MaxDepth),
			"learning_rate": s.cfg.LearnRate,
			"subsample":     s.cfg.Subsample,
			"min_leaf_size": float64(s.cfg.MinLeafSize),
			"seed":          float64(s.cfg.Seed),
		}
	default:
		return nil, fmt.Errorf("unknown model variant %q", s.cfg.Variant)
	}

	id, err := model.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprinting model: %w", err)
	}
	model.ID = id

	s.log.Info("Fitted model",
		zap.String("model_id", model.ID),
		zap.String("variant", string(model.Variant)),
		zap.Int("train_rows", model.TrainRows),
		zap.Int("features", len(schema)),
	)
	return model, nil
}

// Train composes Fit and Evaluate: the returned model carries its held-out
// metrics, computed exactly once before the model escapes this call.
func (s *Service) Train(ctx context.Context, train, test []domain.FeatureRow) (*domain.FittedModel, error) {
	model, err := s.Fit(ctx, train)
	if err != nil {
		return nil, err
	}
	metrics, err := s.Evaluate(model, test)
	if err != nil {
		return nil, fmt.Errorf("evaluating model %s: %w", model.ID, err)
	}
	model.Metrics = metrics

	s.log.Info("Evaluated model on held-out rows",
		zap.String("model_id", model.ID),
		zap.Int("test_rows", len(test)),
		zap.Float64("rmse", metrics.RMSE),
		zap.Float64("mae", metrics.MAE),
		zap.Float64("r2", metrics.R2),
	)
	return model, nil
}

// Predict applies the model to rows sharing its training schema, in order.
// Predicted daily energy is floored at zero.
func (s *Service) Predict(model *domain.FittedModel, rows []domain.FeatureRow) ([]float64, error) {
	if model == nil {
		return nil, fmt.Errorf("model is nil")
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if !domain.SameSchema(row.Names, model.Schema) {
			return nil, &domain.SchemaMismatchError{Want: model.Schema, Got: row.Names}
		}
		var y float64
		switch model.Variant {
		case domain.ModelVariantRidge:
			y = predictRidge(model.Params.Ridge, row.Values)
		case domain.ModelVariantGBT:
			y = predictGBT(model.Params.GBT, row.Values)
		default:
			return nil, fmt.Errorf("unknown model variant %q", model.Variant)
		}
		if y < 0 {
			y = 0
		}
		out[i] = y
	}
	return out, nil
}

// Evaluate computes RMSE, MAE and R2 of the model on labeled rows. The model
// is read, never written, so evaluating twice is always safe and idempotent.
func (s *Service) Evaluate(model *domain.FittedModel, rows []domain.FeatureRow) (domain.Metrics, error) {
	if len(rows) == 0 {
		return domain.Metrics{}, fmt.Errorf("evaluation set is empty")
	}
	preds, err := s.Predict(model, rows)
	if err != nil {
		return domain.Metrics{}, err
	}

	var labelSum float64
	for _, row := range rows {
		if !row.HasLabel {
			return domain.Metrics{}, fmt.Errorf("evaluation row for %s on %s has no label",
				row.LocationID, row.Date.Format("2006-01-02"))
		}
		labelSum += row.Label
	}
	labelMean := labelSum / float64(len(rows))

	var sse, sae, sst float64
	for i, row := range rows {
		d := row.Label - preds[i]
		sse += d * d
		sae += math.Abs(d)
		dm := row.Label - labelMean
		sst += dm * dm
	}
	n := float64(len(rows))

	r2 := 0.0
	if sst > 0 {
		r2 = 1 - sse/sst
	}
	return domain.Metrics{
		RMSE: math.Sqrt(sse / n),
		MAE:  sae / n,
		R2:   r2,
	}, nil
}
