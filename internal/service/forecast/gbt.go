package forecast

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/urjalabs/solatlas/internal/domain"
)

type gbtConfig struct {
	Trees        int
	MaxDepth     int
	LearningRate float64
	Subsample    float64
	MinLeafSize  int
	Seed         int64
}

// fitGBT trains a gradient boosted ensemble of regression trees under squared
// loss. Each round fits one tree to the current residuals on a seeded random
// subsample of the rows, so the same config and data always yield the same
// ensemble.
func fitGBT(rows []domain.FeatureRow, cfg gbtConfig) (*domain.GBTParams, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("gbt fit requires at least one row")
	}
	if cfg.Trees <= 0 || cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("gbt fit requires positive trees and depth, got trees=%d depth=%d", cfg.Trees, cfg.MaxDepth)
	}

	p := len(rows[0].Values)
	features := make([][]float64, n)
	labels := make([]float64, n)
	for i, row := range rows {
		features[i] = row.Values
		labels[i] = row.Label
	}

	var base float64
	for _, y := range labels {
		base += y
	}
	base /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	residual := make([]float64, n)
	trees := make([]domain.Tree, 0, cfg.Trees)

	sampleSize := n
	if cfg.Subsample > 0 && cfg.Subsample < 1 {
		sampleSize = int(float64(n) * cfg.Subsample)
		if sampleSize < 1 {
			sampleSize = 1
		}
	}

	for round := 0; round < cfg.Trees; round++ {
		for i := range residual {
			residual[i] = labels[i] - pred[i]
		}

		sample := make([]int, n)
		for i := range sample {
			sample[i] = i
		}
		if sampleSize < n {
			rng.Shuffle(n, func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
			sample = sample[:sampleSize]
			sort.Ints(sample)
		}

		tree := growTree(features, residual, sample, p, cfg)
		trees = append(trees, tree)

		for i := range pred {
			pred[i] += cfg.LearningRate * evalTree(tree, features[i])
		}
	}

	return &domain.GBTParams{
		BaseScore:    base,
		LearningRate: cfg.LearningRate,
		Trees:        trees,
		Seed:         cfg.Seed,
	}, nil
}

type splitResult struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

// growTree builds one regression tree with exact greedy splits on the sampled
// row indices. Nodes are appended breadth-first into a flat slice.
func growTree(features [][]float64, residual []float64, sample []int, p int, cfg gbtConfig) domain.Tree {
	tree := domain.Tree{}
	type job struct {
		node  int
		rows  []int
		depth int
	}

	tree.Nodes = append(tree.Nodes, domain.TreeNode{Leaf: true, Value: meanOf(residual, sample)})
	queue := []job{{node: 0, rows: sample, depth: 0}}

	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		if j.depth >= cfg.MaxDepth || len(j.rows) < 2*cfg.MinLeafSize {
			continue
		}
		best := bestSplit(features, residual, j.rows, p, cfg.MinLeafSize)
		if best == nil {
			continue
		}

		left := domain.TreeNode{Leaf: true, Value: meanOf(residual, best.left)}
		right := domain.TreeNode{Leaf: true, Value: meanOf(residual, best.right)}
		leftIdx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, left, right)

		tree.Nodes[j.node] = domain.TreeNode{
			Feature:   best.feature,
			Threshold: best.threshold,
			Left:      leftIdx,
			Right:     leftIdx + 1,
		}

		queue = append(queue,
			job{node: leftIdx, rows: best.left, depth: j.depth + 1},
			job{node: leftIdx + 1, rows: best.right, depth: j.depth + 1},
		)
	}
	return tree
}

// bestSplit scans every feature and every distinct value boundary for the
// split minimizing the weighted sum of squared residuals. Returns nil when no
// split improves on the parent or respects the min leaf size.
func bestSplit(features [][]float64, residual []float64, rows []int, p, minLeaf int) *splitResult {
	parentSSE := sseOf(residual, rows)

	var best *splitResult
	order := make([]int, len(rows))

	for f := 0; f < p; f++ {
		copy(order, rows)
		sort.Slice(order, func(a, b int) bool { return features[order[a]][f] < features[order[b]][f] })

		var leftSum, leftSq float64
		rightSum, rightSq := sumsOf(residual, order)

		for i := 0; i < len(order)-1; i++ {
			y := residual[order[i]]
			leftSum += y
			leftSq += y * y
			rightSum -= y
			rightSq -= y * y

			// Only split between distinct feature values.
			if features[order[i]][f] == features[order[i+1]][f] {
				continue
			}
			nl, nr := i+1, len(order)-i-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			gain := parentSSE - sse
			if gain <= 1e-12 {
				continue
			}
			if best == nil || gain > best.gain {
				threshold := (features[order[i]][f] + features[order[i+1]][f]) / 2
				left := make([]int, nl)
				right := make([]int, nr)
				copy(left, order[:nl])
				copy(right, order[nl:])
				best = &splitResult{feature: f, threshold: threshold, gain: gain, left: left, right: right}
			}
		}
	}
	return best
}

func evalTree(tree domain.Tree, values []float64) float64 {
	i := 0
	for {
		node := tree.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if values[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

func predictGBT(params *domain.GBTParams, values []float64) float64 {
	sum := params.BaseScore
	for _, tree := range params.Trees {
		sum += params.LearningRate * evalTree(tree, values)
	}
	return sum
}

func meanOf(residual []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, i := range rows {
		sum += residual[i]
	}
	return sum / float64(len(rows))
}

func sumsOf(residual []float64, rows []int) (sum, sq float64) {
	for _, i := range rows {
		y := residual[i]
		sum += y
		sq += y * y
	}
	return sum, sq
}

func sseOf(residual []float64, rows []int) float64 {
	m := meanOf(residual, rows)
	var sse float64
	for _, i := range rows {
		d := residual[i] - m
		sse += d * d
	}
	return sse
}
