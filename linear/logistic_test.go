package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func separableBinary() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{-4, -3, -2, -1, 1, 2, 3, 4})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLogisticSeparatesBinaryClasses(t *testing.T) {
	X, y := separableBinary()

	clf := NewLogistic(WithMaxIter(2000))
	require.NoError(t, clf.Fit(X, y))
	assert.Equal(t, []float64{0, 1}, clf.Classes())

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
}

func TestLogisticProbabilitiesSumToOne(t *testing.T) {
	X, y := separableBinary()

	clf := NewLogistic()
	require.NoError(t, clf.Fit(X, y))

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)

	r, k := proba.Dims()
	require.Equal(t, 2, k)
	for i := 0; i < r; i++ {
		total := 0.0
		for j := 0; j < k; j++ {
			p := proba.At(i, j)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestLogisticMulticlass(t *testing.T) {
	// Three well-separated clusters on one axis.
	X := mat.NewDense(9, 1, []float64{-5, -4.5, -4, 0, 0.5, -0.5, 4, 4.5, 5})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	clf := NewLogistic(WithMaxIter(3000), WithLearningRate(0.5))
	require.NoError(t, clf.Fit(X, y))
	assert.Equal(t, []float64{0, 1, 2}, clf.Classes())

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	_, k := proba.Dims()
	assert.Equal(t, 3, k)

	pred, err := clf.Predict(mat.NewDense(3, 1, []float64{-5, 0, 5}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))
	assert.Equal(t, 2.0, pred.At(2, 0))
}

func TestLogisticSingleClassFails(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

	clf := NewLogistic()
	err := clf.Fit(X, y)
	require.Error(t, err)

	var val *pkgerr.ValueError
	assert.True(t, pkgerr.As(err, &val))
}

func TestLogisticSeedDeterminism(t *testing.T) {
	X, y := separableBinary()

	a := NewLogistic(WithSeed(7))
	b := NewLogistic(WithSeed(7))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	require.Len(t, b.Coef, len(a.Coef))
	for k := range a.Coef {
		assert.Equal(t, a.Coef[k], b.Coef[k])
	}
}
