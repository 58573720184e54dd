// Package explain produces feature attributions for trained models. Every
// strategy degrades gracefully: models expose native importances when they
// have them and fall back to permutation importance otherwise. Failures are
// reported as ExplainError so callers can keep the model and drop the
// explanation.
package explain

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/linear"
	"github.com/analytix-ai/analytix-go/metrics"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// Attribution scores one feature's contribution.
type Attribution struct {
	Feature string
	Score   float64
}

// GlobalExplanation ranks features by their overall influence on the model.
type GlobalExplanation struct {
	ModelName string
	Method    string // "coefficients", "impurity" or "permutation"
	Ranked    []Attribution
}

// Global explains a fitted model over an evaluation set. Linear models
// report scaled coefficients, tree ensembles report impurity importances,
// and anything else falls back to permutation importance measured against
// the primary metric.
func Global(est model.Estimator, featureNames []string, X *mat.Dense, y *mat.VecDense, problemType model.ProblemType, cfg config.Config, logger log.Logger) (*GlobalExplanation, error) {
	logger = logger.WithStage("explain")

	method := ""
	var scores []float64

	switch est.(type) {
	case *linear.Regression, *linear.Logistic:
		method = "coefficients"
	default:
		method = "impurity"
	}

	if ip, ok := est.(model.ImportanceProvider); ok {
		scores = ip.FeatureImportances()
	}
	if len(scores) == 0 {
		var err error
		scores, err = permutationImportance(est, X, y, problemType, cfg)
		if err != nil {
			return nil, pkgerr.NewExplainError(est.Name(), "no attribution strategy applies: "+err.Error())
		}
		method = "permutation"
	}
	if len(scores) != len(featureNames) {
		return nil, pkgerr.NewExplainError(est.Name(), "importance length does not match feature names")
	}

	exp := &GlobalExplanation{ModelName: est.Name(), Method: method}
	for j, name := range featureNames {
		exp.Ranked = append(exp.Ranked, Attribution{Feature: name, Score: scores[j]})
	}
	sort.SliceStable(exp.Ranked, func(a, b int) bool {
		return exp.Ranked[a].Score > exp.Ranked[b].Score
	})

	logger.Debug().
		Str(log.ModelNameKey, est.Name()).
		Str("method", method).
		Msg("global explanation computed")
	return exp, nil
}

// permutationImportance measures each feature by the metric drop after
// shuffling its column, averaged over seeded repeats. Scores below zero are
// clamped; shuffling noise should not surface as negative influence.
func permutationImportance(est model.Estimator, X *mat.Dense, y *mat.VecDense, problemType model.ProblemType, cfg config.Config) ([]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, pkgerr.Wrap(pkgerr.ErrEmptyData, "explain.permutationImportance")
	}

	base, err := score(est, X, y, problemType)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	scores := make([]float64, c)
	work := mat.NewDense(r, c, nil)
	work.Copy(X)

	for j := 0; j < c; j++ {
		var total float64
		for rep := 0; rep < cfg.PermutationRepeats; rep++ {
			perm := rng.Perm(r)
			for i := 0; i < r; i++ {
				work.Set(i, j, X.At(perm[i], j))
			}
			s, err := score(est, work, y, problemType)
			if err != nil {
				return nil, err
			}
			total += base - s
		}
		// Restore the column before moving on.
		for i := 0; i < r; i++ {
			work.Set(i, j, X.At(i, j))
		}
		avg := total / float64(cfg.PermutationRepeats)
		if avg < 0 {
			avg = 0
		}
		scores[j] = avg
	}
	return scores, nil
}

func score(est model.Estimator, X mat.Matrix, y *mat.VecDense, problemType model.ProblemType) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := pred.Dims()
	pv := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		pv.SetVec(i, pred.At(i, 0))
	}
	if problemType == model.Classification {
		return metrics.Accuracy(y, pv)
	}
	return metrics.R2(y, pv)
}
