package train

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/linear"
	"github.com/analytix-ai/analytix-go/metrics"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/tree"
)

// Params is one sampled hyperparameter assignment.
type Params map[string]float64

// Candidate is one model family in the roster: a sampling space and a
// factory turning a sample into a fresh estimator.
type Candidate struct {
	Name  string
	Space map[string][]float64
	Build func(p Params, seed int64) model.Estimator
}

// Roster returns the candidate families for a problem type.
func Roster(problemType model.ProblemType, cfg config.Config) []Candidate {
	if problemType == model.Classification {
		return []Candidate{
			{
				Name: "LogisticRegression",
				Space: map[string][]float64{
					"learning_rate": {0.01, 0.05, 0.1, 0.5},
					"l2":            {1e-4, 1e-3, 1e-2},
					"max_iter":      {200, 500, 1000},
				},
				Build: func(p Params, seed int64) model.Estimator {
					return linear.NewLogistic(
						linear.WithLearningRate(pick(p, "learning_rate", 0.1)),
						linear.WithL2(pick(p, "l2", 1e-3)),
						linear.WithMaxIter(int(pick(p, "max_iter", 500))),
						linear.WithSeed(seed),
					)
				},
			},
			{
				Name: "RandomForest",
				Space: map[string][]float64{
					"n_trees":          {25, 50, 100},
					"max_depth":        {4, 6, 8, 12},
					"min_samples_leaf": {1, 2, 5},
				},
				Build: func(p Params, seed int64) model.Estimator {
					return tree.NewForest(
						tree.WithForestCriterion(tree.Gini),
						tree.WithNTrees(int(pick(p, "n_trees", 50))),
						tree.WithForestMaxDepth(int(pick(p, "max_depth", 8))),
						tree.WithForestMinSamplesLeaf(int(pick(p, "min_samples_leaf", 2))),
						tree.WithForestSeed(seed),
					)
				},
			},
			{
				Name: "GradientBoosting",
				Space: map[string][]float64{
					"n_estimators":  {50, 100, 200},
					"learning_rate": {0.03, 0.1, 0.3},
					"max_depth":     {2, 3, 4},
				},
				Build: func(p Params, seed int64) model.Estimator {
					return tree.NewGradientBoosting(
						tree.WithObjective(tree.LogisticLoss),
						tree.WithNEstimators(int(pick(p, "n_estimators", 100))),
						tree.WithLearningRate(pick(p, "learning_rate", 0.1)),
						tree.WithGBMMaxDepth(int(pick(p, "max_depth", 3))),
						tree.WithGBMSeed(seed),
					)
				},
			},
		}
	}

	return []Candidate{
		{
			Name:  "LinearRegression",
			Space: nil, // closed form, nothing to tune
			Build: func(_ Params, _ int64) model.Estimator {
				return linear.NewRegression()
			},
		},
		{
			Name: "RandomForest",
			Space: map[string][]float64{
				"n_trees":          {25, 50, 100},
				"max_depth":        {4, 6, 8, 12},
				"min_samples_leaf": {1, 2, 5},
			},
			Build: func(p Params, seed int64) model.Estimator {
				return tree.NewForest(
					tree.WithForestCriterion(tree.MSE),
					tree.WithNTrees(int(pick(p, "n_trees", 50))),
					tree.WithForestMaxDepth(int(pick(p, "max_depth", 8))),
					tree.WithForestMinSamplesLeaf(int(pick(p, "min_samples_leaf", 2))),
					tree.WithForestSeed(seed),
				)
			},
		},
		{
			Name: "GradientBoosting",
			Space: map[string][]float64{
				"n_estimators":  {50, 100, 200},
				"learning_rate": {0.03, 0.1, 0.3},
				"max_depth":     {2, 3, 4},
			},
			Build: func(p Params, seed int64) model.Estimator {
				return tree.NewGradientBoosting(
					tree.WithObjective(tree.SquaredLoss),
					tree.WithNEstimators(int(pick(p, "n_estimators", 100))),
					tree.WithLearningRate(pick(p, "learning_rate", 0.1)),
					tree.WithGBMMaxDepth(int(pick(p, "max_depth", 3))),
					tree.WithGBMSeed(seed),
				)
			},
		},
	}
}

func pick(p Params, key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// RandomizedSearch samples hyperparameter assignments from the candidate's
// space, scores each by k-fold cross-validation on the training partition
// and returns the best assignment with its mean score. An empty space runs
// a single cross-validation pass with defaults. The seed fixes both the
// sampling order and the fold assignment.
func RandomizedSearch(cand Candidate, X *mat.Dense, y []float64, problemType model.ProblemType, cfg config.Config) (Params, float64, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	iters := cfg.SearchIterations
	if len(cand.Space) == 0 {
		iters = 1
	}

	// Sample with a fixed key order so the rng stream is reproducible.
	keys := make([]string, 0, len(cand.Space))
	for k := range cand.Space {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		best      Params
		bestScore float64
		scored    bool
	)
	for it := 0; it < iters; it++ {
		p := Params{}
		for _, k := range keys {
			vals := cand.Space[k]
			p[k] = vals[rng.Intn(len(vals))]
		}

		score, err := crossValidate(cand, p, X, y, problemType, cfg)
		if err != nil {
			return nil, 0, err
		}
		if !scored || score > bestScore {
			best, bestScore, scored = p, score, true
		}
	}
	return best, bestScore, nil
}

// crossValidate scores one assignment as the mean validation metric across
// folds: accuracy for classification, R2 for regression.
func crossValidate(cand Candidate, p Params, X *mat.Dense, y []float64, problemType model.ProblemType, cfg config.Config) (float64, error) {
	folds := foldIndices(len(y), y, cfg.CVFolds, cfg.Seed, problemType == model.Classification)

	var total float64
	used := 0
	for f, valIdx := range folds {
		if len(valIdx) == 0 {
			continue
		}
		trainIdx := make([]int, 0, len(y)-len(valIdx))
		for g, other := range folds {
			if g != f {
				trainIdx = append(trainIdx, other...)
			}
		}

		Xtr, ytr := takeRowsVec(X, y, trainIdx)
		Xval, yval := takeRowsVec(X, y, valIdx)

		est := cand.Build(p, cfg.Seed+int64(f))
		if err := est.Fit(Xtr, columnMatrix(ytr)); err != nil {
			return 0, pkgerr.Wrapf(err, "train: cross-validating %s", cand.Name)
		}
		pred, err := est.Predict(Xval)
		if err != nil {
			return 0, pkgerr.Wrapf(err, "train: cross-validating %s", cand.Name)
		}

		var score float64
		if problemType == model.Classification {
			score, err = metrics.Accuracy(yval, matToVec(pred))
		} else {
			score, err = metrics.R2(yval, matToVec(pred))
		}
		if err != nil {
			return 0, err
		}
		total += score
		used++
	}
	if used == 0 {
		return 0, pkgerr.NewValueError("train.crossValidate", "no usable folds")
	}
	return total / float64(used), nil
}

// foldIndices assigns each row to one of k folds. Stratified assignment
// deals rows class by class so each fold sees every class when possible.
func foldIndices(n int, y []float64, k int, seed int64, stratify bool) [][]int {
	if k > n {
		k = n
	}
	folds := make([][]int, k)
	rng := rand.New(rand.NewSource(seed))

	if stratify {
		groups := make(map[float64][]int)
		for i, v := range y {
			groups[v] = append(groups[v], i)
		}
		classes := make([]float64, 0, len(groups))
		for cls := range groups {
			classes = append(classes, cls)
		}
		sort.Float64s(classes)
		next := 0
		for _, cls := range classes {
			idx := groups[cls]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			for _, i := range idx {
				folds[next%k] = append(folds[next%k], i)
				next++
			}
		}
	} else {
		perm := rng.Perm(n)
		for pos, i := range perm {
			folds[pos%k] = append(folds[pos%k], i)
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}
	return folds
}

func columnMatrix(v *mat.VecDense) *mat.Dense {
	out := mat.NewDense(v.Len(), 1, nil)
	for i := 0; i < v.Len(); i++ {
		out.Set(i, 0, v.AtVec(i))
	}
	return out
}

func matToVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
