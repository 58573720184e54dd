// Package metrics implements the evaluation measures used by the trainer
// and the explainer. All functions validate input dimensions and return a
// structured error rather than a silent NaN.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, pkgerr.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, pkgerr.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, pkgerr.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, pkgerr.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2 computes the coefficient of determination. A model predicting the
// mean scores 0; a constant target with any prediction error scores 0 by
// convention.
func R2(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, pkgerr.NewValueError("R2", "empty vector")
	}
	if yPred.Len() != n {
		return 0, pkgerr.NewDimensionError("R2", n, yPred.Len(), 0)
	}

	var meanTrue float64
	for i := 0; i < n; i++ {
		meanTrue += yTrue.AtVec(i)
	}
	meanTrue /= float64(n)

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		res := yTrue.AtVec(i) - yPred.AtVec(i)
		tot := yTrue.AtVec(i) - meanTrue
		ssRes += res * res
		ssTot += tot * tot
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
