// Package feature turns a cleaned dataset into model-ready numeric
// features: selection by variance and correlation, categorical encoding,
// robust scaling and an optional recursive elimination loop. The fitted
// transforms are recorded in a FeatureSet so inference can reproduce them
// exactly.
package feature

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/clean"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Encoding identifies how one output feature is derived from its source
// column.
type Encoding string

const (
	// EncodeNumeric passes a numeric column through scaling only.
	EncodeNumeric Encoding = "numeric"
	// EncodeOneHot emits one indicator feature per category.
	EncodeOneHot Encoding = "onehot"
	// EncodeFrequency replaces categories by their training frequency.
	EncodeFrequency Encoding = "frequency"
	// EncodeBool maps true/false to 1/0.
	EncodeBool Encoding = "bool"
	// EncodeDatePart extracts year, month or day from a datetime column.
	EncodeDatePart Encoding = "datepart"
)

// Transform is the fitted recipe for one output feature.
type Transform struct {
	Output   string
	Source   string
	Encoding Encoding

	// One-hot
	Category string
	// Frequency encoding
	FreqMap map[string]float64
	// Date part: "year", "month" or "day"
	DatePart string
	// Robust scaling, applied after encoding
	Center float64
	Scale  float64
}

// FeatureSet is the ordered, reproducible transform pipeline mapping raw
// columns to model-ready features. It is persisted with the trained model.
type FeatureSet struct {
	Transforms []Transform
	Target     string

	// Cleaning parameters folded in so Apply can reproduce the full
	// preprocessing chain on raw rows.
	SkewTransforms map[string]clean.SkewKind
	ClipBounds     map[string]dataset.OutlierBounds
}

// Names returns the output feature names in order.
func (fs *FeatureSet) Names() []string {
	names := make([]string, len(fs.Transforms))
	for i, t := range fs.Transforms {
		names[i] = t.Output
	}
	return names
}

// Has reports whether the feature set references the named source column.
func (fs *FeatureSet) Has(source string) bool {
	for _, t := range fs.Transforms {
		if t.Source == source {
			return true
		}
	}
	return false
}

// Apply reproduces the fitted transforms on a typed dataset and returns
// the model-ready matrix (rows x features). Missing source columns are an
// error; the transforms themselves are deterministic given their fitted
// parameters.
func (fs *FeatureSet) Apply(ds *dataset.Dataset) (*mat.Dense, error) {
	rows := ds.NumRows()
	if rows == 0 {
		return nil, pkgerr.Wrap(pkgerr.ErrEmptyData, "FeatureSet.Apply")
	}

	out := mat.NewDense(rows, len(fs.Transforms), nil)
	for j, tr := range fs.Transforms {
		col := ds.Column(tr.Source)
		if col == nil {
			return nil, pkgerr.NewValueError("FeatureSet.Apply", "missing source column: "+tr.Source)
		}
		for i := 0; i < rows; i++ {
			raw, err := fs.rawValue(col, tr, i)
			if err != nil {
				return nil, err
			}
			out.Set(i, j, (raw-tr.Center)/tr.Scale)
		}
	}
	return out, nil
}

func (fs *FeatureSet) rawValue(col *dataset.Column, tr Transform, i int) (float64, error) {
	switch tr.Encoding {
	case EncodeNumeric:
		if col.Kind != dataset.Numeric {
			return 0, pkgerr.NewValueError("FeatureSet.Apply", "expected numeric column: "+tr.Source)
		}
		v := col.Floats[i]
		if math.IsNaN(v) {
			v = tr.Center // neutral fill for unseen missing values
		}
		// Same order as the cleaner: clip in original units, then the
		// skew transform.
		if b, ok := fs.ClipBounds[tr.Source]; ok {
			v = math.Min(math.Max(v, b.Lower), b.Upper)
		}
		return fs.applySkew(tr.Source, v), nil
	case EncodeOneHot:
		if col.Strings[i] == tr.Category {
			return 1, nil
		}
		return 0, nil
	case EncodeFrequency:
		return tr.FreqMap[col.Strings[i]], nil
	case EncodeBool:
		if col.Kind != dataset.Boolean {
			return 0, pkgerr.NewValueError("FeatureSet.Apply", "expected boolean column: "+tr.Source)
		}
		if col.Bools[i] {
			return 1, nil
		}
		return 0, nil
	case EncodeDatePart:
		if col.Kind != dataset.DateTime {
			return 0, pkgerr.NewValueError("FeatureSet.Apply", "expected datetime column: "+tr.Source)
		}
		return datePart(col.Times[i], tr.DatePart), nil
	default:
		return 0, pkgerr.NewValueError("FeatureSet.Apply", "unknown encoding: "+string(tr.Encoding))
	}
}

func (fs *FeatureSet) applySkew(source string, v float64) float64 {
	switch fs.SkewTransforms[source] {
	case clean.SkewLog1p:
		return math.Log1p(v)
	case clean.SkewSqrt:
		if v < 0 {
			return 0
		}
		return math.Sqrt(v)
	default:
		return v
	}
}

func datePart(t time.Time, part string) float64 {
	switch part {
	case "year":
		return float64(t.Year())
	case "month":
		return float64(int(t.Month()))
	default:
		return float64(t.Day())
	}
}
