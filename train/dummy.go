package train

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func init() {
	gob.Register(&Dummy{})
}

// DummyStrategy selects the constant a Dummy model predicts.
type DummyStrategy string

const (
	// StrategyMean predicts the training target mean (regression floor).
	StrategyMean DummyStrategy = "mean"
	// StrategyMode predicts the most frequent class (classification floor).
	StrategyMode DummyStrategy = "mode"
)

// Dummy predicts a single constant learned from the training target. It is
// the baseline every real candidate must beat to be worth reporting.
type Dummy struct {
	model.BaseEstimator
	Strategy DummyStrategy
	Constant float64
}

// NewDummy creates a baseline model with the given strategy.
func NewDummy(strategy DummyStrategy) *Dummy {
	return &Dummy{Strategy: strategy}
}

// Name identifies the model family.
func (d *Dummy) Name() string { return "Dummy" }

// Fit learns the constant from y; X is ignored.
func (d *Dummy) Fit(_, y mat.Matrix) error {
	r, _ := y.Dims()
	if r == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "Dummy.Fit")
	}

	switch d.Strategy {
	case StrategyMode:
		counts := make(map[float64]int)
		for i := 0; i < r; i++ {
			counts[y.At(i, 0)]++
		}
		best, bestN := 0.0, -1
		for v, n := range counts {
			if n > bestN || (n == bestN && v < best) {
				best, bestN = v, n
			}
		}
		d.Constant = best
	default:
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += y.At(i, 0)
		}
		d.Constant = sum / float64(r)
	}
	d.SetFitted()
	return nil
}

// Predict returns the learned constant for every row.
func (d *Dummy) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Dummy", "Predict")
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, d.Constant)
	}
	return out, nil
}
