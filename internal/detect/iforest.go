package detect

import (
	"errors"
	"math"
	"math/rand"
)

// Scorer assigns a continuous anomaly score in [0, 1] to each value; higher
// means more anomalous. Implementations must be deterministic for a fixed
// seed so that detection results are reproducible across runs.
type Scorer interface {
	Score(values []float64) ([]float64, error)
}

// ErrDegenerate is returned when the values carry no spread to score against.
var ErrDegenerate = errors.New("values have zero spread")

// IsolationForest scores one-dimensional values by isolation: each tree
// partitions the value range at uniformly random split points, and values
// that separate from the rest in fewer partitions score higher.
type IsolationForest struct {
	trees  int
	sample int
	rng    *rand.Rand
}

// NewIsolationForest builds a forest with the given ensemble size, per-tree
// subsample cap, and random seed. Non-positive arguments select the defaults
// (100 trees, subsample 256).
func NewIsolationForest(trees, sample int, seed int64) *IsolationForest {
	if trees <= 0 {
		trees = 100
	}
	if sample <= 0 {
		sample = 256
	}
	return &IsolationForest{trees: trees, sample: sample, rng: rand.New(rand.NewSource(seed))}
}

// Score fits the forest on values and returns each value's anomaly score
// 2^(-E[h]/c(n)). A zero-spread input cannot be partitioned and yields
// ErrDegenerate.
func (f *IsolationForest) Score(values []float64) ([]float64, error) {
	n := len(values)
	if n < 2 || allEqual(values) {
		return nil, ErrDegenerate
	}
	sample := f.sample
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	pathSums := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sub := make([]float64, sample)
	for t := 0; t < f.trees; t++ {
		f.rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i := 0; i < sample; i++ {
			sub[i] = values[idx[i]]
		}
		root := f.grow(sub, 0, maxDepth)
		for i, v := range values {
			pathSums[i] += pathLength(root, v, 0)
		}
	}

	norm := avgPathLength(sample)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = math.Exp2(-(pathSums[i] / float64(f.trees)) / norm)
	}
	return scores, nil
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int // external node size
}

func (f *IsolationForest) grow(vals []float64, depth, maxDepth int) *isoNode {
	if len(vals) <= 1 || depth >= maxDepth || allEqual(vals) {
		return &isoNode{size: len(vals)}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	split := lo + f.rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range vals {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	// A split at the exact minimum can leave one side empty; end the branch.
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{size: len(vals)}
	}
	return &isoNode{
		split: split,
		left:  f.grow(left, depth+1, maxDepth),
		right: f.grow(right, depth+1, maxDepth),
	}
}

func pathLength(n *isoNode, v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n values; it normalizes isolation depths.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	h := math.Log(float64(n-1)) + 0.5772156649 // harmonic number approximation
	return 2*h - 2*float64(n-1)/float64(n)
}
