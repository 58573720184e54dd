package linear

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func TestRegressionRecoversLine(t *testing.T) {
	// y = 2x + 3
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{5, 7, 9, 11, 13})

	lr := NewRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 2.0, lr.Weights[0], 1e-6)
	assert.InDelta(t, 3.0, lr.Intercept, 1e-6)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{6, 7}))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, pred.At(0, 0), 1e-6)
	assert.InDelta(t, 17.0, pred.At(1, 0), 1e-6)
}

func TestRegressionMultipleFeatures(t *testing.T) {
	// y = 1*x1 + 2*x2 + 1
	X := mat.NewDense(6, 2, []float64{
		1, 1,
		2, 1,
		3, 2,
		4, 2,
		5, 3,
		6, 3,
	})
	y := mat.NewDense(6, 1, []float64{4, 5, 8, 9, 12, 13})

	lr := NewRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 1.0, lr.Weights[0], 1e-6)
	assert.InDelta(t, 2.0, lr.Weights[1], 1e-6)
	assert.InDelta(t, 1.0, lr.Intercept, 1e-6)
}

func TestRegressionPredictBeforeFit(t *testing.T) {
	lr := NewRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)

	var notFitted *pkgerr.NotFittedError
	assert.True(t, pkgerr.As(err, &notFitted))
}

func TestRegressionDimensionMismatch(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	lr := NewRegression()
	require.NoError(t, lr.Fit(X, y))

	_, err := lr.Predict(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	require.Error(t, err)

	var dim *pkgerr.DimensionError
	assert.True(t, pkgerr.As(err, &dim))
}

func TestRegressionImportancesLength(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 10, 2, 20, 3, 30, 4, 45})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	lr := NewRegression()
	require.NoError(t, lr.Fit(X, y))

	imp := lr.FeatureImportances()
	require.Len(t, imp, 2)
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestRegressionGobRoundTrip(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{5, 7, 9, 11, 13})

	lr := NewRegression()
	require.NoError(t, lr.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, model.Save(lr, &buf))

	restored := &Regression{}
	require.NoError(t, model.Load(restored, &buf))

	pred, err := restored.Predict(mat.NewDense(1, 1, []float64{10}))
	require.NoError(t, err)
	assert.InDelta(t, 23.0, pred.At(0, 0), 1e-6)
}
