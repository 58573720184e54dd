package train

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Split holds a train/test partition of the design matrix.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense
	TrainIdx      []int
	TestIdx       []int
}

// TrainTestSplit partitions rows into train and test sets. With stratify
// set, each class keeps its share in both partitions so rare classes are
// not lost from the test set. The same seed always produces the same
// partition.
func TrainTestSplit(X *mat.Dense, y []float64, testFraction float64, seed int64, stratify bool) (*Split, error) {
	r, _ := X.Dims()
	if r != len(y) {
		return nil, pkgerr.NewDimensionError("train.TrainTestSplit", r, len(y), 0)
	}
	if r < 2 {
		return nil, pkgerr.NewValueError("train.TrainTestSplit", "need at least two rows to split")
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int

	if stratify {
		groups := make(map[float64][]int)
		for i, v := range y {
			groups[v] = append(groups[v], i)
		}
		// Iterate classes in a fixed order; map iteration would leak
		// randomness into the partition.
		classes := make([]float64, 0, len(groups))
		for cls := range groups {
			classes = append(classes, cls)
		}
		sort.Float64s(classes)
		for _, cls := range classes {
			idx := groups[cls]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			nTest := int(float64(len(idx)) * testFraction)
			if nTest == 0 && len(idx) > 1 {
				nTest = 1
			}
			testIdx = append(testIdx, idx[:nTest]...)
			trainIdx = append(trainIdx, idx[nTest:]...)
		}
		sort.Ints(trainIdx)
		sort.Ints(testIdx)
	} else {
		perm := rng.Perm(r)
		nTest := int(float64(r) * testFraction)
		if nTest == 0 {
			nTest = 1
		}
		testIdx = append([]int(nil), perm[:nTest]...)
		trainIdx = append([]int(nil), perm[nTest:]...)
		sort.Ints(trainIdx)
		sort.Ints(testIdx)
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, pkgerr.NewValueError("train.TrainTestSplit", "degenerate split; adjust test_fraction")
	}

	s := &Split{TrainIdx: trainIdx, TestIdx: testIdx}
	s.XTrain, s.YTrain = takeRowsVec(X, y, trainIdx)
	s.XTest, s.YTest = takeRowsVec(X, y, testIdx)
	return s, nil
}

func takeRowsVec(X *mat.Dense, y []float64, indices []int) (*mat.Dense, *mat.VecDense) {
	_, c := X.Dims()
	Xs := mat.NewDense(len(indices), c, nil)
	ys := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			Xs.Set(i, j, X.At(idx, j))
		}
		ys.SetVec(i, y[idx])
	}
	return Xs, ys
}
