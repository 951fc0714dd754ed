package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolationForestReproducible(t *testing.T) {
	values := []float64{100, 105, 98, 102, 101, 99, 5000}

	a, err := NewIsolationForest(100, 256, 42).Score(values)
	require.NoError(t, err)
	b, err := NewIsolationForest(100, 256, 42).Score(values)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must reproduce the same scores")

	c, err := NewIsolationForest(100, 256, 7).Score(values)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds should explore different splits")
}

func TestIsolationForestIsolatesOutlier(t *testing.T) {
	values := []float64{100, 105, 98, 102, 101, 99, 5000}

	scores, err := NewIsolationForest(100, 256, 42).Score(values)
	require.NoError(t, err)
	require.Len(t, scores, len(values))

	outlier := scores[len(scores)-1]
	for i, s := range scores[:len(scores)-1] {
		assert.Greater(t, outlier, s, "outlier must out-score value %d", i)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
	assert.Greater(t, outlier, 0.6, "a clear outlier should clear the default threshold")
}

func TestIsolationForestDegenerateInput(t *testing.T) {
	_, err := NewIsolationForest(10, 32, 1).Score([]float64{7, 7, 7, 7})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = NewIsolationForest(10, 32, 1).Score([]float64{7})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = NewIsolationForest(10, 32, 1).Score(nil)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestAvgPathLengthGrowsWithN(t *testing.T) {
	assert.Less(t, avgPathLength(2), avgPathLength(16))
	assert.Less(t, avgPathLength(16), avgPathLength(256))
	assert.Greater(t, avgPathLength(2), 0.0)
}
