package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGradientBoostingRegression(t *testing.T) {
	X, y := stepData()

	g := NewGradientBoosting(WithNEstimators(50), WithLearningRate(0.2))
	require.NoError(t, g.Fit(X, y))

	pred, err := g.Predict(mat.NewDense(2, 1, []float64{1, 9}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pred.At(0, 0), 1.0)
	assert.InDelta(t, 9.0, pred.At(1, 0), 1.0)
}

func TestGradientBoostingBeatsMeanBaseline(t *testing.T) {
	X, y := stepData()

	g := NewGradientBoosting(WithNEstimators(30))
	require.NoError(t, g.Fit(X, y))

	pred, err := g.Predict(X)
	require.NoError(t, err)

	// The target mean is 5; boosted predictions must be closer than that.
	var boostedSSE, meanSSE float64
	for i := 0; i < 10; i++ {
		d := y.At(i, 0) - pred.At(i, 0)
		boostedSSE += d * d
		m := y.At(i, 0) - 5
		meanSSE += m * m
	}
	assert.Less(t, boostedSSE, meanSSE)
}

func TestGradientBoostingBinaryClassification(t *testing.T) {
	X, y := clusterData()

	g := NewGradientBoosting(WithObjective(LogisticLoss), WithNEstimators(30))
	require.NoError(t, g.Fit(X, y))
	assert.Equal(t, []float64{0, 1}, g.Classes())

	pred, err := g.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}

	proba, err := g.PredictProba(X)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
	}
}

func TestGradientBoostingMulticlass(t *testing.T) {
	X := mat.NewDense(9, 1, []float64{1, 1.2, 0.8, 5, 5.2, 4.8, 9, 9.2, 8.8})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	g := NewGradientBoosting(WithObjective(LogisticLoss), WithNEstimators(20))
	require.NoError(t, g.Fit(X, y))
	assert.Equal(t, []float64{0, 1, 2}, g.Classes())

	pred, err := g.Predict(mat.NewDense(3, 1, []float64{1, 5, 9}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
	assert.Equal(t, 2.0, pred.At(2, 0))
}

func TestGradientBoostingSingleClassFails(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

	g := NewGradientBoosting(WithObjective(LogisticLoss))
	require.Error(t, g.Fit(X, y))
}
