package train

import (
	"encoding/gob"
	"time"

	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/feature"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func init() {
	gob.Register(&Artifact{})
	gob.Register(Params{})
}

// Artifact bundles a trained model with everything needed to reproduce its
// predictions on raw rows: the fitted feature transforms, the problem type,
// the training seed and the evaluation metrics. Encode/DecodeArtifact
// round-trip it through gob for storage or download.
type Artifact struct {
	ModelName   string
	ProblemType model.ProblemType
	Target      string
	Features    *feature.FeatureSet
	Params      Params
	Metrics     map[string]float64
	Importances []float64
	Seed        int64
	TrainedAt   time.Time

	Model model.Estimator
}

// Encode serializes the artifact to a byte blob.
func (a *Artifact) Encode() ([]byte, error) {
	data, err := model.SaveBytes(a)
	if err != nil {
		return nil, pkgerr.Wrap(err, "train: encoding artifact")
	}
	return data, nil
}

// DecodeArtifact restores an artifact from a blob produced by Encode.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := model.LoadBytes(&a, data); err != nil {
		return nil, pkgerr.Wrap(err, "train: decoding artifact")
	}
	return &a, nil
}
