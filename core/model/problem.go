package model

// ProblemType classifies the supervised learning task for a target column.
type ProblemType string

const (
	// Classification targets a bounded set of labels.
	Classification ProblemType = "classification"
	// Regression targets a continuous value.
	Regression ProblemType = "regression"
)
