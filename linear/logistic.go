package linear

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Logistic is a logistic regression classifier trained by gradient descent
// with L2 regularization. Multi-class targets are handled one-vs-rest.
type Logistic struct {
	model.BaseEstimator

	// Hyperparameters
	LearningRate float64
	MaxIter      int
	Tol          float64
	L2           float64
	Seed         int64

	// Fitted parameters: one weight row per class for multi-class,
	// a single row for binary.
	Coef       [][]float64
	Intercepts []float64
	ClassVals  []float64
	NFeatures  int
	FeatureStd []float64
}

// LogisticOption configures a Logistic classifier.
type LogisticOption func(*Logistic)

// WithLearningRate sets the gradient descent step size.
func WithLearningRate(lr float64) LogisticOption {
	return func(l *Logistic) { l.LearningRate = lr }
}

// WithMaxIter sets the iteration budget.
func WithMaxIter(n int) LogisticOption {
	return func(l *Logistic) { l.MaxIter = n }
}

// WithL2 sets the regularization strength.
func WithL2(l2 float64) LogisticOption {
	return func(l *Logistic) { l.L2 = l2 }
}

// WithSeed sets the random seed for weight initialization.
func WithSeed(seed int64) LogisticOption {
	return func(l *Logistic) { l.Seed = seed }
}

// NewLogistic creates a logistic regression classifier with defaults.
func NewLogistic(opts ...LogisticOption) *Logistic {
	l := &Logistic{
		LearningRate: 0.1,
		MaxIter:      500,
		Tol:          1e-5,
		L2:           1e-3,
		Seed:         42,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name identifies the model family.
func (l *Logistic) Name() string { return "LogisticRegression" }

func sigmoid(z float64) float64 {
	// Clamp to keep exp from overflowing.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// Fit trains one binary classifier per class (one-vs-rest). Labels are the
// distinct values of y in ascending order.
func (l *Logistic) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "Logistic.Fit")
	}
	if ry != r {
		return pkgerr.NewDimensionError("Logistic.Fit", r, ry, 0)
	}
	if cy != 1 {
		return pkgerr.NewValueError("Logistic.Fit", "y must be a column vector")
	}

	classSet := make(map[float64]struct{})
	for i := 0; i < r; i++ {
		classSet[y.At(i, 0)] = struct{}{}
	}
	if len(classSet) < 2 {
		return pkgerr.NewValueError("Logistic.Fit", "target has a single class")
	}
	l.ClassVals = make([]float64, 0, len(classSet))
	for v := range classSet {
		l.ClassVals = append(l.ClassVals, v)
	}
	sort.Float64s(l.ClassVals)

	l.NFeatures = c
	rng := rand.New(rand.NewSource(l.Seed))

	// Binary targets need a single separating hyperplane; multi-class
	// targets get one head per class (one-vs-rest).
	heads := l.ClassVals
	if len(l.ClassVals) == 2 {
		heads = l.ClassVals[1:2]
	}
	l.Coef = make([][]float64, len(heads))
	l.Intercepts = make([]float64, len(heads))

	for k, cls := range heads {
		w, b, converged, iters := l.fitBinary(X, y, cls, r, c, rng)
		l.Coef[k] = w
		l.Intercepts[k] = b
		if !converged {
			pkgerr.Warn(&pkgerr.ConvergenceWarning{Algorithm: "LogisticRegression", Iterations: iters})
		}
	}

	l.FeatureStd = columnStd(X)
	l.SetFitted()
	return nil
}

func (l *Logistic) fitBinary(X, y mat.Matrix, positive float64, r, c int, rng *rand.Rand) (w []float64, b float64, converged bool, iters int) {
	w = make([]float64, c)
	for j := range w {
		w[j] = rng.NormFloat64() * 0.01
	}

	target := make([]float64, r)
	for i := 0; i < r; i++ {
		if y.At(i, 0) == positive {
			target[i] = 1
		}
	}

	gradW := make([]float64, c)
	for iters = 0; iters < l.MaxIter; iters++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i := 0; i < r; i++ {
			z := b
			for j := 0; j < c; j++ {
				z += w[j] * X.At(i, j)
			}
			diff := sigmoid(z) - target[i]
			for j := 0; j < c; j++ {
				gradW[j] += diff * X.At(i, j)
			}
			gradB += diff
		}

		maxStep := 0.0
		scale := l.LearningRate / float64(r)
		for j := 0; j < c; j++ {
			step := scale * (gradW[j] + l.L2*w[j])
			w[j] -= step
			if s := math.Abs(step); s > maxStep {
				maxStep = s
			}
		}
		bStep := scale * gradB
		b -= bStep
		if s := math.Abs(bStep); s > maxStep {
			maxStep = s
		}

		if maxStep < l.Tol {
			return w, b, true, iters
		}
	}
	return w, b, false, iters
}

// decision computes the raw score of each head for one sample.
func (l *Logistic) decision(X mat.Matrix, i int) []float64 {
	scores := make([]float64, len(l.Coef))
	_, c := X.Dims()
	for k, w := range l.Coef {
		z := l.Intercepts[k]
		for j := 0; j < c; j++ {
			z += w[j] * X.At(i, j)
		}
		scores[k] = z
	}
	return scores
}

// Predict returns the most probable class label per sample.
func (l *Logistic) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := l.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, k := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestP := 0, proba.At(i, 0)
		for j := 1; j < k; j++ {
			if proba.At(i, j) > bestP {
				best, bestP = j, proba.At(i, j)
			}
		}
		out.Set(i, 0, l.ClassVals[best])
	}
	return out, nil
}

// PredictProba returns per-class probabilities (samples x classes), columns
// ordered as Classes().
func (l *Logistic) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !l.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Logistic", "PredictProba")
	}
	r, c := X.Dims()
	if c != l.NFeatures {
		return nil, pkgerr.NewDimensionError("Logistic.PredictProba", l.NFeatures, c, 1)
	}

	out := mat.NewDense(r, len(l.ClassVals), nil)
	for i := 0; i < r; i++ {
		scores := l.decision(X, i)
		if len(l.ClassVals) == 2 {
			p := sigmoid(scores[0])
			out.Set(i, 0, 1-p)
			out.Set(i, 1, p)
			continue
		}
		// One-vs-rest probabilities normalized to sum to one.
		total := 0.0
		probs := make([]float64, len(scores))
		for k, z := range scores {
			probs[k] = sigmoid(z)
			total += probs[k]
		}
		if total == 0 {
			total = 1
		}
		for k, p := range probs {
			out.Set(i, k, p/total)
		}
	}
	return out, nil
}

// Classes returns the class labels in PredictProba column order.
func (l *Logistic) Classes() []float64 {
	return l.ClassVals
}

// FeatureImportances returns the mean |coefficient| across heads scaled by
// feature standard deviation.
func (l *Logistic) FeatureImportances() []float64 {
	if !l.IsFitted() {
		return nil
	}
	imp := make([]float64, l.NFeatures)
	for _, w := range l.Coef {
		for j, v := range w {
			imp[j] += math.Abs(v)
		}
	}
	for j := range imp {
		imp[j] /= float64(len(l.Coef))
		std := 1.0
		if j < len(l.FeatureStd) && l.FeatureStd[j] > 0 {
			std = l.FeatureStd[j]
		}
		imp[j] *= std
	}
	return imp
}
