package explain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/linear"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// LocalExplanation attributes one prediction to per-feature contributions.
type LocalExplanation struct {
	ModelName  string
	Method     string // "linear" or "perturbation"
	Prediction float64
	Ranked     []Attribution
}

// Local explains a single row. Linear models decompose exactly into
// coefficient times deviation from the background mean; other models are
// probed by replacing one feature at a time with its background mean and
// measuring the prediction shift.
func Local(est model.Estimator, featureNames []string, row []float64, background *mat.Dense) (*LocalExplanation, error) {
	if len(row) != len(featureNames) {
		return nil, pkgerr.NewExplainError(est.Name(), "row length does not match feature names")
	}

	X := mat.NewDense(1, len(row), append([]float64(nil), row...))
	pred, err := est.Predict(X)
	if err != nil {
		return nil, pkgerr.NewExplainError(est.Name(), "prediction failed: "+err.Error())
	}

	exp := &LocalExplanation{ModelName: est.Name(), Prediction: pred.At(0, 0)}
	means := columnMeans(background)
	if len(means) != len(row) {
		return nil, pkgerr.NewExplainError(est.Name(), "background width does not match the row")
	}

	switch m := est.(type) {
	case *linear.Regression:
		exp.Method = "linear"
		for j, name := range featureNames {
			exp.Ranked = append(exp.Ranked, Attribution{
				Feature: name,
				Score:   m.Weights[j] * (row[j] - means[j]),
			})
		}
	case *linear.Logistic:
		exp.Method = "linear"
		for j, name := range featureNames {
			// Heads are averaged into one signed weight per feature.
			var w float64
			for _, head := range m.Coef {
				w += head[j]
			}
			w /= float64(len(m.Coef))
			exp.Ranked = append(exp.Ranked, Attribution{
				Feature: name,
				Score:   w * (row[j] - means[j]),
			})
		}
	default:
		exp.Method = "perturbation"
		probe := mat.NewDense(1, len(row), nil)
		for j, name := range featureNames {
			for k, v := range row {
				probe.Set(0, k, v)
			}
			probe.Set(0, j, means[j])
			alt, err := est.Predict(probe)
			if err != nil {
				return nil, pkgerr.NewExplainError(est.Name(), "perturbation failed: "+err.Error())
			}
			exp.Ranked = append(exp.Ranked, Attribution{
				Feature: name,
				Score:   exp.Prediction - alt.At(0, 0),
			})
		}
	}

	sort.SliceStable(exp.Ranked, func(a, b int) bool {
		return math.Abs(exp.Ranked[a].Score) > math.Abs(exp.Ranked[b].Score)
	})
	return exp, nil
}

func columnMeans(X *mat.Dense) []float64 {
	if X == nil {
		return nil
	}
	r, c := X.Dims()
	means := make([]float64, c)
	if r == 0 {
		return means
	}
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		means[j] = sum / float64(r)
	}
	return means
}
