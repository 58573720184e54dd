// Package linear implements the linear model families of the training
// roster: ordinary least squares regression and logistic regression.
package linear

import (
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func init() {
	gob.Register(&Regression{})
	gob.Register(&Logistic{})
}

// Regression is an ordinary least squares model solved with the normal
// equations w = (X^T X)^-1 X^T y.
type Regression struct {
	model.BaseEstimator
	Weights   []float64
	Intercept float64
	NFeatures int
	// FeatureStd holds per-feature standard deviations from fitting,
	// used to scale coefficients into comparable importances.
	FeatureStd []float64
}

// NewRegression creates an unfitted least squares model.
func NewRegression() *Regression {
	return &Regression{}
}

// Name identifies the model family.
func (lr *Regression) Name() string { return "LinearRegression" }

// Fit solves the normal equations on X (samples x features) and y
// (samples x 1).
func (lr *Regression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "Regression.Fit")
	}
	if ry != r {
		return pkgerr.NewDimensionError("Regression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return pkgerr.NewValueError("Regression.Fit", "y must be a column vector")
	}

	// Augment with an intercept column of ones.
	Xa := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		Xa.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			Xa.Set(i, j+1, X.At(i, j))
		}
	}

	var xtx mat.Dense
	xtx.Mul(Xa.T(), Xa)
	var xty mat.Dense
	xty.Mul(Xa.T(), y)

	// Small ridge term keeps near-collinear designs solvable.
	for i := 0; i <= c; i++ {
		xtx.Set(i, i, xtx.At(i, i)+1e-8)
	}

	var w mat.Dense
	if err := w.Solve(&xtx, &xty); err != nil {
		return pkgerr.Wrap(err, "Regression.Fit: singular design matrix")
	}

	lr.NFeatures = c
	lr.Intercept = w.At(0, 0)
	lr.Weights = make([]float64, c)
	for j := 0; j < c; j++ {
		lr.Weights[j] = w.At(j+1, 0)
	}
	lr.FeatureStd = columnStd(X)
	lr.SetFitted()
	return nil
}

// Predict returns a samples x 1 matrix of predictions.
func (lr *Regression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Regression", "Predict")
	}
	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, pkgerr.NewDimensionError("Regression.Predict", lr.NFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		sum := lr.Intercept
		for j := 0; j < c; j++ {
			sum += lr.Weights[j] * X.At(i, j)
		}
		out.Set(i, 0, sum)
	}
	return out, nil
}

// Coefficients returns the fitted weights, excluding the intercept.
func (lr *Regression) Coefficients() []float64 {
	return lr.Weights
}

// FeatureImportances returns |coefficient| x feature standard deviation,
// making weights on different scales comparable.
func (lr *Regression) FeatureImportances() []float64 {
	if !lr.IsFitted() {
		return nil
	}
	imp := make([]float64, lr.NFeatures)
	for j, w := range lr.Weights {
		std := 1.0
		if j < len(lr.FeatureStd) && lr.FeatureStd[j] > 0 {
			std = lr.FeatureStd[j]
		}
		imp[j] = math.Abs(w) * std
	}
	return imp
}

// columnStd computes the per-column standard deviation of X.
func columnStd(X mat.Matrix) []float64 {
	r, c := X.Dims()
	stds := make([]float64, c)
	if r < 2 {
		for j := range stds {
			stds[j] = 1
		}
		return stds
	}
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(r)
		var ss float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - mean
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / float64(r))
	}
	return stds
}
