// Package tree implements the tree-based model families of the training
// roster: a CART decision tree, a bagged random forest and a gradient
// boosted ensemble.
package tree

import (
	"encoding/gob"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func init() {
	gob.Register(&Tree{})
	gob.Register(&Forest{})
	gob.Register(&GradientBoosting{})
}

// Criterion selects the impurity measure used for splits.
type Criterion string

const (
	// MSE grows regression trees on squared error.
	MSE Criterion = "mse"
	// Gini grows classification trees on Gini impurity.
	Gini Criterion = "gini"
)

// Node is one split or leaf in a fitted tree.
type Node struct {
	Feature   int
	Threshold float64
	Left      int // child index, -1 for leaf
	Right     int
	Value     float64   // leaf prediction: mean (mse) or majority class (gini)
	Dist      []float64 // leaf class distribution (gini only)
	Samples   int
}

// Tree is a CART decision tree.
type Tree struct {
	model.BaseEstimator

	// Hyperparameters
	Criterion      Criterion
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int // features tried per split; 0 means all
	Seed           int64

	// Fitted state
	Nodes       []Node
	NFeatures   int
	ClassVals   []float64 // gini only, ascending
	Importances []float64 // total split gain per feature
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithCriterion sets the impurity measure.
func WithCriterion(c Criterion) TreeOption {
	return func(t *Tree) { t.Criterion = c }
}

// WithMaxDepth bounds tree depth.
func WithMaxDepth(d int) TreeOption {
	return func(t *Tree) { t.MaxDepth = d }
}

// WithMinSamplesLeaf sets the minimum samples per leaf.
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *Tree) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures bounds the features tried per split (0 = all).
func WithMaxFeatures(n int) TreeOption {
	return func(t *Tree) { t.MaxFeatures = n }
}

// WithTreeSeed sets the seed for feature subsampling.
func WithTreeSeed(seed int64) TreeOption {
	return func(t *Tree) { t.Seed = seed }
}

// NewTree creates a CART tree with defaults.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		Criterion:      MSE,
		MaxDepth:       5,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name identifies the model family.
func (t *Tree) Name() string { return "DecisionTree" }

// Fit grows the tree on X (samples x features) and y (samples x 1).
func (t *Tree) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return pkgerr.Wrap(pkgerr.ErrEmptyData, "Tree.Fit")
	}
	if ry != r {
		return pkgerr.NewDimensionError("Tree.Fit", r, ry, 0)
	}
	if cy != 1 {
		return pkgerr.NewValueError("Tree.Fit", "y must be a column vector")
	}

	t.NFeatures = c
	t.Nodes = t.Nodes[:0]
	t.Importances = make([]float64, c)

	ys := make([]float64, r)
	for i := 0; i < r; i++ {
		ys[i] = y.At(i, 0)
	}
	if t.Criterion == Gini {
		classSet := make(map[float64]struct{})
		for _, v := range ys {
			classSet[v] = struct{}{}
		}
		t.ClassVals = t.ClassVals[:0]
		for v := range classSet {
			t.ClassVals = append(t.ClassVals, v)
		}
		sort.Float64s(t.ClassVals)
	}

	indices := make([]int, r)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(t.Seed))
	t.grow(X, ys, indices, 0, rng)
	t.SetFitted()
	return nil
}

// grow recursively builds the subtree rooted at the returned node index.
func (t *Tree) grow(X mat.Matrix, ys []float64, indices []int, depth int, rng *rand.Rand) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, Samples: len(indices)})

	leaf := func() int {
		n := &t.Nodes[nodeIdx]
		if t.Criterion == Gini {
			n.Dist = t.classDist(ys, indices)
			n.Value = t.majorityClass(n.Dist)
		} else {
			n.Value = meanAt(ys, indices)
		}
		return nodeIdx
	}

	if depth >= t.MaxDepth || len(indices) < 2*t.MinSamplesLeaf || t.isPure(ys, indices) {
		return leaf()
	}

	feature, threshold, gain, ok := t.bestSplit(X, ys, indices, rng)
	if !ok {
		return leaf()
	}

	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		return leaf()
	}

	t.Importances[feature] += gain
	leftIdx := t.grow(X, ys, left, depth+1, rng)
	rightIdx := t.grow(X, ys, right, depth+1, rng)

	n := &t.Nodes[nodeIdx]
	n.Feature = feature
	n.Threshold = threshold
	n.Left = leftIdx
	n.Right = rightIdx
	return nodeIdx
}

func (t *Tree) isPure(ys []float64, indices []int) bool {
	first := ys[indices[0]]
	for _, i := range indices[1:] {
		if ys[i] != first {
			return false
		}
	}
	return true
}

func (t *Tree) classDist(ys []float64, indices []int) []float64 {
	dist := make([]float64, len(t.ClassVals))
	for _, i := range indices {
		for k, v := range t.ClassVals {
			if ys[i] == v {
				dist[k]++
				break
			}
		}
	}
	total := float64(len(indices))
	for k := range dist {
		dist[k] /= total
	}
	return dist
}

func (t *Tree) majorityClass(dist []float64) float64 {
	best, bestP := 0, dist[0]
	for k, p := range dist[1:] {
		if p > bestP {
			best, bestP = k+1, p
		}
	}
	return t.ClassVals[best]
}

func meanAt(ys []float64, indices []int) float64 {
	sum := 0.0
	for _, i := range indices {
		sum += ys[i]
	}
	return sum / float64(len(indices))
}

// bestSplit scans candidate features with sorted prefix statistics and
// returns the split maximizing impurity decrease.
func (t *Tree) bestSplit(X mat.Matrix, ys []float64, indices []int, rng *rand.Rand) (feature int, threshold, gain float64, ok bool) {
	candidates := t.candidateFeatures(rng)
	bestGain := 0.0
	for _, f := range candidates {
		th, g, valid := t.scanFeature(X, ys, indices, f)
		if valid && g > bestGain {
			feature, threshold, bestGain, ok = f, th, g, true
		}
	}
	return feature, threshold, bestGain, ok
}

func (t *Tree) candidateFeatures(rng *rand.Rand) []int {
	all := make([]int, t.NFeatures)
	for i := range all {
		all[i] = i
	}
	if t.MaxFeatures <= 0 || t.MaxFeatures >= t.NFeatures {
		return all
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	subset := all[:t.MaxFeatures]
	sort.Ints(subset)
	return subset
}

// scanFeature evaluates every distinct-value midpoint of one feature.
func (t *Tree) scanFeature(X mat.Matrix, ys []float64, indices []int, f int) (threshold, gain float64, ok bool) {
	n := len(indices)
	order := append([]int(nil), indices...)
	sort.Slice(order, func(a, b int) bool {
		return X.At(order[a], f) < X.At(order[b], f)
	})

	if t.Criterion == Gini {
		return t.scanGini(X, ys, order, f)
	}
	return t.scanMSE(X, ys, order, f, n)
}

func (t *Tree) scanMSE(X mat.Matrix, ys []float64, order []int, f, n int) (threshold, gain float64, ok bool) {
	var total, totalSq float64
	for _, i := range order {
		total += ys[i]
		totalSq += ys[i] * ys[i]
	}
	parentImp := totalSq/float64(n) - (total/float64(n))*(total/float64(n))

	var leftSum, leftSq float64
	bestGain := 1e-12
	for k := 0; k < n-1; k++ {
		i := order[k]
		leftSum += ys[i]
		leftSq += ys[i] * ys[i]

		v, next := X.At(i, f), X.At(order[k+1], f)
		if v == next {
			continue
		}
		nl, nr := float64(k+1), float64(n-k-1)
		rightSum, rightSq := total-leftSum, totalSq-leftSq
		leftImp := leftSq/nl - (leftSum/nl)*(leftSum/nl)
		rightImp := rightSq/nr - (rightSum/nr)*(rightSum/nr)
		g := parentImp - (nl*leftImp+nr*rightImp)/float64(n)
		if g > bestGain {
			bestGain, threshold, ok = g, (v+next)/2, true
		}
	}
	return threshold, bestGain, ok
}

func (t *Tree) scanGini(X mat.Matrix, ys []float64, order []int, f int) (threshold, gain float64, ok bool) {
	n := len(order)
	k := len(t.ClassVals)
	classIdx := make(map[float64]int, k)
	for idx, v := range t.ClassVals {
		classIdx[v] = idx
	}

	totalCounts := make([]float64, k)
	for _, i := range order {
		totalCounts[classIdx[ys[i]]]++
	}
	gini := func(counts []float64, total float64) float64 {
		if total == 0 {
			return 0
		}
		g := 1.0
		for _, c := range counts {
			p := c / total
			g -= p * p
		}
		return g
	}
	parentImp := gini(totalCounts, float64(n))

	leftCounts := make([]float64, k)
	bestGain := 1e-12
	for pos := 0; pos < n-1; pos++ {
		i := order[pos]
		leftCounts[classIdx[ys[i]]]++

		v, next := X.At(i, f), X.At(order[pos+1], f)
		if v == next {
			continue
		}
		nl, nr := float64(pos+1), float64(n-pos-1)
		rightCounts := make([]float64, k)
		for c := range rightCounts {
			rightCounts[c] = totalCounts[c] - leftCounts[c]
		}
		g := parentImp - (nl*gini(leftCounts, nl)+nr*gini(rightCounts, nr))/float64(n)
		if g > bestGain {
			bestGain, threshold, ok = g, (v+next)/2, true
		}
	}
	return threshold, bestGain, ok
}

// predictRow walks one sample to its leaf.
func (t *Tree) predictRow(X mat.Matrix, i int) *Node {
	idx := 0
	for {
		n := &t.Nodes[idx]
		if n.Left < 0 {
			return n
		}
		if X.At(i, n.Feature) <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// Predict returns a samples x 1 matrix of predictions.
func (t *Tree) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Tree", "Predict")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, pkgerr.NewDimensionError("Tree.Predict", t.NFeatures, c, 1)
	}
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, t.predictRow(X, i).Value)
	}
	return out, nil
}

// PredictProba returns the leaf class distribution per sample (gini trees).
func (t *Tree) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, pkgerr.NewNotFittedError("Tree", "PredictProba")
	}
	if t.Criterion != Gini {
		return nil, pkgerr.NewValueError("Tree.PredictProba", "probabilities require a gini tree")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, pkgerr.NewDimensionError("Tree.PredictProba", t.NFeatures, c, 1)
	}
	out := mat.NewDense(r, len(t.ClassVals), nil)
	for i := 0; i < r; i++ {
		leaf := t.predictRow(X, i)
		for k, p := range leaf.Dist {
			out.Set(i, k, p)
		}
	}
	return out, nil
}

// Classes returns the class labels of a gini tree.
func (t *Tree) Classes() []float64 {
	return t.ClassVals
}

// FeatureImportances returns normalized total split gain per feature.
func (t *Tree) FeatureImportances() []float64 {
	if !t.IsFitted() {
		return nil
	}
	return normalize(t.Importances)
}

func normalize(vals []float64) []float64 {
	out := make([]float64, len(vals))
	total := 0.0
	for _, v := range vals {
		total += v
	}
	if total == 0 || math.IsNaN(total) {
		return out
	}
	for i, v := range vals {
		out[i] = v / total
	}
	return out
}
