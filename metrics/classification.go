package metrics

import (
	"gonum.org/v1/gonum/mat"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Accuracy computes the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, pkgerr.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, pkgerr.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// PrecisionRecallF1 computes macro-averaged precision, recall and F1 over
// the classes present in yTrue. A class with no predicted positives
// contributes zero precision rather than an error.
func PrecisionRecallF1(yTrue, yPred *mat.VecDense) (precision, recall, f1 float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, 0, 0, pkgerr.NewValueError("PrecisionRecallF1", "empty vector")
	}
	if yPred.Len() != n {
		return 0, 0, 0, pkgerr.NewDimensionError("PrecisionRecallF1", n, yPred.Len(), 0)
	}

	classes := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		classes[yTrue.AtVec(i)] = struct{}{}
	}

	var sumP, sumR, sumF float64
	for cls := range classes {
		var tp, fp, fn float64
		for i := 0; i < n; i++ {
			predicted := yPred.AtVec(i) == cls
			actual := yTrue.AtVec(i) == cls
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && actual:
				fn++
			}
		}
		var p, r float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		sumP += p
		sumR += r
		sumF += f
	}

	k := float64(len(classes))
	return sumP / k, sumR / k, sumF / k, nil
}

// MajorityBaseline returns the accuracy of always predicting the most
// frequent class, the floor any useful classifier must beat.
func MajorityBaseline(yTrue *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, pkgerr.NewValueError("MajorityBaseline", "empty vector")
	}
	counts := make(map[float64]int)
	for i := 0; i < n; i++ {
		counts[yTrue.AtVec(i)]++
	}
	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	return float64(best) / float64(n), nil
}
