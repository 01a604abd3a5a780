package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/urjalabs/solatlas/internal/domain"
)

// fitRidge solves the L2-regularized least squares problem on standardized
// features. The penalty applies to the standardized weights only, never the
// intercept. The weights stay in standardized space; prediction re-applies
// the stored mean and std.
func fitRidge(rows []domain.FeatureRow, lambda float64) (*domain.RidgeParams, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("ridge fit requires at least one row")
	}
	p := len(rows[0].Values)

	mean := make([]float64, p)
	std := make([]float64, p)
	for _, row := range rows {
		for j, v := range row.Values {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}
	for _, row := range rows {
		for j, v := range row.Values {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] < 1e-12 {
			// Constant column: zero weight after centering, avoid div by zero.
			std[j] = 1.0
		}
	}

	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	var labelMean float64
	for _, row := range rows {
		labelMean += row.Label
	}
	labelMean /= float64(n)
	for i, row := range rows {
		for j, v := range row.Values {
			x.Set(i, j, (v-mean[j])/std[j])
		}
		y.SetVec(i, row.Label-labelMean)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j := 0; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+lambda)
	}

	xty := mat.NewVecDense(p, nil)
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fmt.Errorf("ridge normal equations not positive definite with lambda=%g", lambda)
	}
	w := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(w, xty); err != nil {
		return nil, fmt.Errorf("solving ridge system: %w", err)
	}

	weights := make([]float64, p)
	for j := 0; j < p; j++ {
		weights[j] = w.AtVec(j)
	}
	return &domain.RidgeParams{
		Weights:   weights,
		Intercept: labelMean,
		Mean:      mean,
		Std:       std,
		Lambda:    lambda,
	}, nil
}

func predictRidge(params *domain.RidgeParams, values []float64) float64 {
	sum := params.Intercept
	for j, v := range values {
		sum += params.Weights[j] * (v - params.Mean[j]) / params.Std[j]
	}
	return sum
}
