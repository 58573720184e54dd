// Package train detects the problem type, assembles the model roster,
// tunes hyperparameters with randomized search and selects the best model
// on a held-out test split. Candidates are independent, so they train in
// parallel under a cooperative cancellation context.
package train

import (
	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// DetectProblemType decides between classification and regression from the
// target column alone. Non-numeric targets are always classification; a
// numeric target is classification when its cardinality stays under the
// configured cutoff. The decision depends only on column content, so it is
// stable across calls.
func DetectProblemType(ds *dataset.Dataset, target string, cfg config.Config) (model.ProblemType, error) {
	col := ds.Column(target)
	if col == nil {
		return "", pkgerr.NewValueError("train.DetectProblemType", "unknown target column: "+target)
	}
	switch col.Kind {
	case dataset.Numeric:
		if col.Distinct() < cfg.ClassificationCardinalityMax {
			return model.Classification, nil
		}
		return model.Regression, nil
	default:
		// Categorical, boolean, text and datetime targets are treated as
		// labels.
		return model.Classification, nil
	}
}
