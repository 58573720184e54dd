package tree

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/core/parallel"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Forest is a bagged ensemble of CART trees with per-split feature
// subsampling. Criterion selects regression (MSE) or classification (Gini).
type Forest struct {
	model.BaseEstimator

	// Hyperparameters
	NTrees         int
	Criterion      Criterion
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64

	// Fitted state
	Trees     []*Tree
	NFeatures int
	ClassVals []float64
}

// ForestOption configures a Forest.
type ForestOption func(*Forest)

// WithNTrees sets the ensemble size.
func WithNTrees(n int) ForestOption {
	return func(f *Forest) { f.NTrees = n }
}

// WithForestCriterion sets the impurity measure of the member trees.
func WithForestCriterion(c Criterion) ForestOption {
	return func(f *Forest) { f.Criterion = c }
}

// WithForestMaxDepth bounds member tree depth.
func WithForestMaxDepth(d int) ForestOption {
	return func(f *Forest) { f.MaxDepth = d }
}

// WithForestMinSamplesLeaf sets the minimum samples per leaf.
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(f *Forest) { f.MinSamplesLeaf = n }
}

// WithForestSeed sets the seed for bootstrap and feature sampling.
func WithForestSeed(seed int64) ForestOption {
	return func(f *Forest) { f.Seed = seed }
}

// NewForest creates a random forest with defaults.
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{
		NTrees:         50,
		Criterion:      MSE,
		MaxDepth:       8,
		MinSamplesLeaf: 2,
		Seed:           42,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name identifies the model family.
func (f *Forest) Name() string { return "RandomForest" }

// Fit trains NTrees trees on bootstrap samples. Trees are independent, so
// they are fitted in parallel across CPU cores.
func (f *Forest) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "Forest.Fit")
	}

	f.NFeatures = c
	f.Trees = make([]*Tree, f.NTrees)

	maxFeatures := int(math.Sqrt(float64(c)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	// Per-tree seeds derived up front so parallel order cannot change
	// the result.
	seeds := make([]int64, f.NTrees)
	bootstraps := make([][]int, f.NTrees)
	rng := rand.New(rand.NewSource(f.Seed))
	for k := 0; k < f.NTrees; k++ {
		seeds[k] = rng.Int63()
		sample := make([]int, r)
		for i := range sample {
			sample[i] = rng.Intn(r)
		}
		bootstraps[k] = sample
	}

	var (
		errMu    sync.Mutex
		firstErr error
	)
	parallel.Parallelize(f.NTrees, func(start, end int) {
		for k := start; k < end; k++ {
			Xb, yb := takeRows(X, y, bootstraps[k])
			t := NewTree(
				WithCriterion(f.Criterion),
				WithMaxDepth(f.MaxDepth),
				WithMinSamplesLeaf(f.MinSamplesLeaf),
				WithMaxFeatures(maxFeatures),
				WithTreeSeed(seeds[k]),
			)
			if err := t.Fit(Xb, yb); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				continue
			}
			f.Trees[k] = t
		}
	})
	if firstErr != nil {
		return pkgerr.Wrap(firstErr, "Forest.Fit")
	}

	if f.Criterion == Gini {
		f.ClassVals = collectClasses(y)
	}
	f.SetFitted()
	return nil
}

func takeRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, c := X.Dims()
	Xb := mat.NewDense(len(indices), c, nil)
	yb := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			Xb.Set(i, j, X.At(idx, j))
		}
		yb.Set(i, 0, y.At(idx, 0))
	}
	return Xb, yb
}

func collectClasses(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	seen := make(map[float64]struct{})
	for i := 0; i < r; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	return classes
}

// Predict averages member predictions (regression) or majority-votes
// (classification).
func (f *Forest) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Forest", "Predict")
	}
	if f.Criterion == Gini {
		proba, err := f.PredictProba(X)
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
			out.Set(i, 0, f.ClassVals[best])
		}
		return out, nil
	}

	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, pkgerr.NewDimensionError("Forest.Predict", f.NFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for _, t := range f.Trees {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			out.Set(i, 0, out.At(i, 0)+pred.At(i, 0))
		}
	}
	scale := 1.0 / float64(len(f.Trees))
	for i := 0; i < r; i++ {
		out.Set(i, 0, out.At(i, 0)*scale)
	}
	return out, nil
}

// PredictProba averages member leaf distributions over the forest's class
// set.
func (f *Forest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Forest", "PredictProba")
	}
	if f.Criterion != Gini {
		return nil, pkgerr.NewValueError("Forest.PredictProba", "probabilities require a gini forest")
	}
	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, pkgerr.NewDimensionError("Forest.PredictProba", f.NFeatures, c, 1)
	}

	classIdx := make(map[float64]int, len(f.ClassVals))
	for k, v := range f.ClassVals {
		classIdx[v] = k
	}

	out := mat.NewDense(r, len(f.ClassVals), nil)
	for _, t := range f.Trees {
		proba, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		// Member trees may have seen a subset of classes in their
		// bootstrap; map their columns onto the forest's class set.
		for i := 0; i < r; i++ {
			for localK, cls := range t.ClassVals {
				k := classIdx[cls]
				out.Set(i, k, out.At(i, k)+proba.At(i, localK))
			}
		}
	}
	scale := 1.0 / float64(len(f.Trees))
	for i := 0; i < r; i++ {
		for k := range f.ClassVals {
			out.Set(i, k, out.At(i, k)*scale)
		}
	}
	return out, nil
}

// Classes returns the class labels of a gini forest.
func (f *Forest) Classes() []float64 {
	return f.ClassVals
}

// FeatureImportances returns the mean normalized split gain across trees.
func (f *Forest) FeatureImportances() []float64 {
	if !f.IsFitted() {
		return nil
	}
	total := make([]float64, f.NFeatures)
	for _, t := range f.Trees {
		for j, v := range t.FeatureImportances() {
			total[j] += v
		}
	}
	for j := range total {
		total[j] /= float64(len(f.Trees))
	}
	return total
}
