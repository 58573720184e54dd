package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is implemented by every trainable estimator.
type Fitter interface {
	// Fit trains the estimator on X (samples x features) and y (samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor produces point predictions.
type Predictor interface {
	// Predict returns a samples x 1 matrix of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbaPredictor is the optional capability of classifiers that expose
// per-class probabilities.
type ProbaPredictor interface {
	// PredictProba returns a samples x classes matrix of probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
	// Classes returns the class labels in column order of PredictProba.
	Classes() []float64
}

// ImportanceProvider is the optional capability of models that expose
// per-feature importances (tree gain, |coefficient|, ...).
type ImportanceProvider interface {
	// FeatureImportances returns one non-negative weight per feature.
	FeatureImportances() []float64
}

// Estimator is the contract every roster member satisfies. Adding a model
// family means adding a type implementing this interface, not patching a
// dispatch table.
type Estimator interface {
	Fitter
	Predictor
	// Name identifies the model family in results and experiment records.
	Name() string
}
