package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

type ModelVariant string

const (
	ModelVariantRidge ModelVariant = "ridge"
	ModelVariantGBT   ModelVariant = "gbt"
)

// Metrics are the evaluation results computed once on the test partition.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// RidgeParams are the fitted parameters of the regularized linear variant.
// Features are standardized before the solve; Mean and Std are kept so
// prediction applies the same transform.
type RidgeParams struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
	Lambda    float64   `json:"lambda"`
}

// TreeNode is one node of a regression tree in flattened form. Leaf nodes
// carry Value; internal nodes split on Feature at Threshold, with Left/Right
// indexing into the same Nodes slice.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// GBTParams are the fitted parameters of the gradient-boosted tree variant.
type GBTParams struct {
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
	Seed         int64   `json:"seed"`
}

// EstimatorParams is the opaque parameter set of a fitted estimator. Exactly
// one field is set, matching the model variant.
type EstimatorParams struct {
	Ridge *RidgeParams `json:"ridge,omitempty"`
	GBT   *GBTParams   `json:"gbt,omitempty"`
}

// FittedModel is an immutable fitted estimator: parameters, the exact ordered
// feature schema it was trained on, and the metrics from its one evaluation.
// Identical training data, hyperparameters, variant and seed produce an
// identical model, ID included.
type FittedModel struct {
	ID        string             `json:"id"`
	Variant   ModelVariant       `json:"variant"`
	Schema    []string           `json:"schema"`
	Params    EstimatorParams    `json:"params"`
	Hyper     map[string]float64 `json:"hyper"`
	Metrics   Metrics            `json:"metrics"`
	TrainRows int                `json:"train_rows"`
}

// Fingerprint derives the model ID from variant, schema and parameters, so
// the ID is reproducible across runs with identical inputs.
func (m *FittedModel) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(m.Variant))
	for _, name := range m.Schema {
		h.Write([]byte(name))
	}
	raw, _ := json.Marshal(m.Params)
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ModelRecord is the registry row persisted alongside the model artifact.
type ModelRecord struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	Variant   ModelVariant `json:"variant" gorm:"index"`
	RMSE      float64      `json:"rmse"`
	MAE       float64      `json:"mae"`
	R2        float64      `json:"r2"`
	TrainRows int          `json:"train_rows"`
	TestRows  int          `json:"test_rows"`
	Path      string       `json:"path"`
	TrainedAt time.Time    `json:"trained_at"`
	CreatedAt time.Time    `json:"created_at"`
}

func (ModelRecord) TableName() string { return "model_registry" }
