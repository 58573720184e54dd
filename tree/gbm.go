package tree

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Objective selects the loss a GradientBoosting ensemble minimizes.
type Objective string

const (
	// SquaredLoss fits regression targets.
	SquaredLoss Objective = "squared"
	// LogisticLoss fits classification targets (one-vs-rest for
	// multi-class).
	LogisticLoss Objective = "logistic"
)

// GradientBoosting is a boosted ensemble of shallow regression trees fitted
// to pseudo-residuals with shrinkage.
type GradientBoosting struct {
	model.BaseEstimator

	// Hyperparameters
	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	Objective      Objective
	Seed           int64

	// Fitted state. For logistic multi-class there is one series of
	// trees and one init score per class.
	Ensembles  [][]*Tree
	InitScores []float64
	ClassVals  []float64
	NFeatures  int
}

// GBMOption configures a GradientBoosting ensemble.
type GBMOption func(*GradientBoosting)

// WithNEstimators sets the boosting rounds.
func WithNEstimators(n int) GBMOption {
	return func(g *GradientBoosting) { g.NEstimators = n }
}

// WithLearningRate sets the shrinkage factor.
func WithLearningRate(lr float64) GBMOption {
	return func(g *GradientBoosting) { g.LearningRate = lr }
}

// WithGBMMaxDepth bounds member tree depth.
func WithGBMMaxDepth(d int) GBMOption {
	return func(g *GradientBoosting) { g.MaxDepth = d }
}

// WithObjective sets the loss function.
func WithObjective(o Objective) GBMOption {
	return func(g *GradientBoosting) { g.Objective = o }
}

// WithGBMSeed sets the random seed.
func WithGBMSeed(seed int64) GBMOption {
	return func(g *GradientBoosting) { g.Seed = seed }
}

// NewGradientBoosting creates a boosted ensemble with defaults.
func NewGradientBoosting(opts ...GBMOption) *GradientBoosting {
	g := &GradientBoosting{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 2,
		Objective:      SquaredLoss,
		Seed:           42,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name identifies the model family.
func (g *GradientBoosting) Name() string { return "GradientBoosting" }

// Fit boosts on X (samples x features) and y (samples x 1).
func (g *GradientBoosting) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "GradientBoosting.Fit")
	}
	if ry != r {
		return pkgerr.NewDimensionError("GradientBoosting.Fit", r, ry, 0)
	}
	if cy != 1 {
		return pkgerr.NewValueError("GradientBoosting.Fit", "y must be a column vector")
	}

	g.NFeatures = c
	ys := make([]float64, r)
	for i := 0; i < r; i++ {
		ys[i] = y.At(i, 0)
	}

	if g.Objective == SquaredLoss {
		return g.fitRegression(X, ys, r)
	}
	return g.fitClassification(X, ys, r)
}

func (g *GradientBoosting) fitRegression(X mat.Matrix, ys []float64, r int) error {
	mean := 0.0
	for _, v := range ys {
		mean += v
	}
	mean /= float64(r)
	g.InitScores = []float64{mean}
	g.Ensembles = [][]*Tree{nil}

	scores := make([]float64, r)
	for i := range scores {
		scores[i] = mean
	}

	residuals := mat.NewDense(r, 1, nil)
	for round := 0; round < g.NEstimators; round++ {
		for i := 0; i < r; i++ {
			residuals.Set(i, 0, ys[i]-scores[i])
		}
		t := g.newRoundTree(round)
		if err := t.Fit(X, residuals); err != nil {
			return pkgerr.Wrap(err, "GradientBoosting.fitRegression")
		}
		g.Ensembles[0] = append(g.Ensembles[0], t)

		pred, err := t.Predict(X)
		if err != nil {
			return err
		}
		for i := 0; i < r; i++ {
			scores[i] += g.LearningRate * pred.At(i, 0)
		}
	}
	g.SetFitted()
	return nil
}

func (g *GradientBoosting) fitClassification(X mat.Matrix, ys []float64, r int) error {
	classSet := make(map[float64]struct{})
	for _, v := range ys {
		classSet[v] = struct{}{}
	}
	if len(classSet) < 2 {
		return pkgerr.NewValueError("GradientBoosting.Fit", "target has a single class")
	}
	g.ClassVals = make([]float64, 0, len(classSet))
	for v := range classSet {
		g.ClassVals = append(g.ClassVals, v)
	}
	sort.Float64s(g.ClassVals)

	// Binary targets need one series; multi-class gets one per class.
	heads := g.ClassVals
	if len(g.ClassVals) == 2 {
		heads = g.ClassVals[1:2]
	}
	g.Ensembles = make([][]*Tree, len(heads))
	g.InitScores = make([]float64, len(heads))

	residuals := mat.NewDense(r, 1, nil)
	for h, cls := range heads {
		target := make([]float64, r)
		pos := 0.0
		for i, v := range ys {
			if v == cls {
				target[i] = 1
				pos++
			}
		}
		// Init with log-odds of the positive rate.
		p := math.Min(math.Max(pos/float64(r), 1e-6), 1-1e-6)
		g.InitScores[h] = math.Log(p / (1 - p))

		scores := make([]float64, r)
		for i := range scores {
			scores[i] = g.InitScores[h]
		}

		for round := 0; round < g.NEstimators; round++ {
			for i := 0; i < r; i++ {
				residuals.Set(i, 0, target[i]-sigmoidGBM(scores[i]))
			}
			t := g.newRoundTree(round*len(heads) + h)
			if err := t.Fit(X, residuals); err != nil {
				return pkgerr.Wrap(err, "GradientBoosting.fitClassification")
			}
			g.Ensembles[h] = append(g.Ensembles[h], t)

			pred, err := t.Predict(X)
			if err != nil {
				return err
			}
			for i := 0; i < r; i++ {
				scores[i] += g.LearningRate * pred.At(i, 0)
			}
		}
	}
	g.SetFitted()
	return nil
}

func (g *GradientBoosting) newRoundTree(round int) *Tree {
	return NewTree(
		WithCriterion(MSE),
		WithMaxDepth(g.MaxDepth),
		WithMinSamplesLeaf(g.MinSamplesLeaf),
		WithTreeSeed(g.Seed+int64(round)),
	)
}

func sigmoidGBM(z float64) float64 {
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// rawScores sums the ensemble output for one head.
func (g *GradientBoosting) rawScores(X mat.Matrix, head int) ([]float64, error) {
	r, _ := X.Dims()
	scores := make([]float64, r)
	for i := range scores {
		scores[i] = g.InitScores[head]
	}
	for _, t := range g.Ensembles[head] {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			scores[i] += g.LearningRate * pred.At(i, 0)
		}
	}
	return scores, nil
}

// Predict returns point predictions: raw scores for regression, the argmax
// class for classification.
func (g *GradientBoosting) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, pkgerr.NewNotFittedError("GradientBoosting", "Predict")
	}
	r, c := X.Dims()
	if c != g.NFeatures {
		return nil, pkgerr.NewDimensionError("GradientBoosting.Predict", g.NFeatures, c, 1)
	}

	if g.Objective == SquaredLoss {
		scores, err := g.rawScores(X, 0)
		if err != nil {
			return nil, err
		}
		out := mat.NewDense(r, 1, nil)
		for i, s := range scores {
			out.Set(i, 0, s)
		}
		return out, nil
	}

	proba, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, proba.At(i, 0)
		for k := 1; k < len(g.ClassVals); k++ {
			if proba.At(i, k) > bestP {
				best, bestP = k, proba.At(i, k)
			}
		}
		out.Set(i, 0, g.ClassVals[best])
	}
	return out, nil
}

// PredictProba returns per-class probabilities for logistic ensembles.
func (g *GradientBoosting) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, pkgerr.NewNotFittedError("GradientBoosting", "PredictProba")
	}
	if g.Objective != LogisticLoss {
		return nil, pkgerr.NewValueError("GradientBoosting.PredictProba", "probabilities require logistic objective")
	}
	r, c := X.Dims()
	if c != g.NFeatures {
		return nil, pkgerr.NewDimensionError("GradientBoosting.PredictProba", g.NFeatures, c, 1)
	}

	out := mat.NewDense(r, len(g.ClassVals), nil)
	if len(g.ClassVals) == 2 {
		scores, err := g.rawScores(X, 0)
		if err != nil {
			return nil, err
		}
		for i, s := range scores {
			p := sigmoidGBM(s)
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
		}
		return out, nil
	}

	for h := range g.ClassVals {
		scores, err := g.rawScores(X, h)
		if err != nil {
			return nil, err
		}
		for i, s := range scores {
			out.Set(i, h, sigmoidGBM(s))
		}
	}
	// Normalize one-vs-rest sigmoids.
	for i := 0; i < r; i++ {
		total := 0.0
		for k := range g.ClassVals {
			total += out.At(i, k)
		}
		if total == 0 {
			total = 1
		}
		for k := range g.ClassVals {
			out.Set(i, k, out.At(i, k)/total)
		}
	}
	return out, nil
}

// Classes returns the class labels of a logistic ensemble.
func (g *GradientBoosting) Classes() []float64 {
	return g.ClassVals
}

// FeatureImportances sums the split gains of every member tree and
// normalizes.
func (g *GradientBoosting) FeatureImportances() []float64 {
	if !g.IsFitted() {
		return nil
	}
	total := make([]float64, g.NFeatures)
	for _, series := range g.Ensembles {
		for _, t := range series {
			for j, v := range t.Importances {
				total[j] += v
			}
		}
	}
	return normalize(total)
}
