package feature

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/clean"
	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/dataset"
	"github.com/analytix-ai/analytix-go/metrics"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
	"github.com/analytix-ai/analytix-go/tree"
)

// Engineer encodes, scales and optionally prunes features, returning the
// model-ready dataset and the fitted FeatureSet. The clean report (may be
// nil) is folded into the FeatureSet so inference reproduces the full
// chain. When optimizeAccuracy is set a recursive elimination loop prunes
// features until the validation metric degrades or the configured minimum
// is reached.
func Engineer(ds *dataset.Dataset, target string, problemType model.ProblemType, optimizeAccuracy bool, report *clean.Report, cfg config.Config, logger log.Logger) (*dataset.Dataset, *FeatureSet, error) {
	logger = logger.WithStage("feature")

	fs := &FeatureSet{
		Target:         target,
		SkewTransforms: map[string]clean.SkewKind{},
		ClipBounds:     map[string]dataset.OutlierBounds{},
	}
	if report != nil {
		for k, v := range report.SkewTransforms {
			fs.SkewTransforms[k] = v
		}
		for k, v := range report.ClipBounds {
			fs.ClipBounds[k] = v
		}
	}

	for _, c := range ds.Columns() {
		if c.Name == target {
			continue
		}
		switch c.Kind {
		case dataset.Numeric:
			fs.Transforms = append(fs.Transforms, Transform{
				Output: c.Name, Source: c.Name, Encoding: EncodeNumeric, Scale: 1,
			})
		case dataset.Boolean:
			fs.Transforms = append(fs.Transforms, Transform{
				Output: c.Name, Source: c.Name, Encoding: EncodeBool, Scale: 1,
			})
		case dataset.DateTime:
			for _, part := range []string{"year", "month", "day"} {
				fs.Transforms = append(fs.Transforms, Transform{
					Output:   c.Name + "_" + part,
					Source:   c.Name,
					Encoding: EncodeDatePart,
					DatePart: part,
					Scale:    1,
				})
			}
		case dataset.Categorical, dataset.Text:
			fs.Transforms = append(fs.Transforms, encodeCategorical(c, cfg)...)
		}
	}
	if len(fs.Transforms) == 0 {
		return nil, nil, pkgerr.NewFeatureError("no encodable features besides the target", nil)
	}

	// Fit robust scaling (median center, IQR scale) on the continuous
	// outputs. Indicator features stay unscaled.
	raw, err := materialize(ds, fs)
	if err != nil {
		return nil, nil, err
	}
	fitScaling(raw, fs)

	if optimizeAccuracy && target != "" && ds.Column(target) != nil {
		kept, err := eliminate(ds, fs, target, problemType, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		fs.Transforms = kept
	}

	out, err := buildDataset(ds, fs, target)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().
		Int(log.FeaturesKey, len(fs.Transforms)).
		Bool("optimize_accuracy", optimizeAccuracy).
		Msg("feature engineering completed")
	return out, fs, nil
}

// encodeCategorical emits one-hot transforms below the cardinality cutoff
// (drop-first to avoid a redundant indicator) and a frequency map above it.
func encodeCategorical(c *dataset.Column, cfg config.Config) []Transform {
	counts := make(map[string]int)
	total := 0
	for i, s := range c.Strings {
		if !c.Null[i] {
			counts[s]++
			total++
		}
	}
	categories := make([]string, 0, len(counts))
	for s := range counts {
		categories = append(categories, s)
	}
	sort.Strings(categories)

	// A column with no observed values carries no signal to encode.
	if len(categories) == 0 {
		return nil
	}

	if len(categories) < cfg.OneHotCardinalityMax {
		transforms := make([]Transform, 0, len(categories)-1)
		for _, cat := range categories[1:] { // drop-first
			transforms = append(transforms, Transform{
				Output:   c.Name + "_" + cat,
				Source:   c.Name,
				Encoding: EncodeOneHot,
				Category: cat,
				Scale:    1,
			})
		}
		return transforms
	}

	freq := make(map[string]float64, len(counts))
	for s, n := range counts {
		freq[s] = float64(n) / float64(total)
	}
	return []Transform{{
		Output: c.Name + "_freq", Source: c.Name, Encoding: EncodeFrequency, FreqMap: freq, Scale: 1,
	}}
}

// materialize renders the pre-scaling feature matrix.
func materialize(ds *dataset.Dataset, fs *FeatureSet) (*mat.Dense, error) {
	rows := ds.NumRows()
	out := mat.NewDense(rows, len(fs.Transforms), nil)
	for j, tr := range fs.Transforms {
		col := ds.Column(tr.Source)
		if col == nil {
			return nil, pkgerr.NewValueError("feature.materialize", "missing source column: "+tr.Source)
		}
		for i := 0; i < rows; i++ {
			// Skew and clipping already happened in the cleaner for
			// the training pass, so read the raw encoded value.
			v, err := encodedValue(col, tr, i)
			if err != nil {
				return nil, err
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func encodedValue(col *dataset.Column, tr Transform, i int) (float64, error) {
	switch tr.Encoding {
	case EncodeNumeric:
		return col.Floats[i], nil
	case EncodeOneHot:
		if col.Strings[i] == tr.Category {
			return 1, nil
		}
		return 0, nil
	case EncodeFrequency:
		return tr.FreqMap[col.Strings[i]], nil
	case EncodeBool:
		if col.Bools[i] {
			return 1, nil
		}
		return 0, nil
	case EncodeDatePart:
		return datePart(col.Times[i], tr.DatePart), nil
	default:
		return 0, pkgerr.NewValueError("feature.encodedValue", "unknown encoding: "+string(tr.Encoding))
	}
}

// fitScaling sets median center and IQR scale on continuous transforms.
func fitScaling(raw *mat.Dense, fs *FeatureSet) {
	rows, _ := raw.Dims()
	for j := range fs.Transforms {
		tr := &fs.Transforms[j]
		if tr.Encoding != EncodeNumeric && tr.Encoding != EncodeFrequency && tr.Encoding != EncodeDatePart {
			continue
		}
		vals := make([]float64, 0, rows)
		for i := 0; i < rows; i++ {
			if v := raw.At(i, j); !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		median := quantileSorted(vals, 0.5)
		iqr := quantileSorted(vals, 0.75) - quantileSorted(vals, 0.25)
		tr.Center = median
		if iqr > 0 {
			tr.Scale = iqr
		} else {
			tr.Scale = 1
		}
	}
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// buildDataset assembles the scaled feature columns plus the target.
func buildDataset(ds *dataset.Dataset, fs *FeatureSet, target string) (*dataset.Dataset, error) {
	rows := ds.NumRows()
	cols := make([]*dataset.Column, 0, len(fs.Transforms)+1)
	for _, tr := range fs.Transforms {
		src := ds.Column(tr.Source)
		c := &dataset.Column{
			Name:   tr.Output,
			Kind:   dataset.Numeric,
			Floats: make([]float64, rows),
			Null:   make([]bool, rows),
		}
		for i := 0; i < rows; i++ {
			v, err := encodedValue(src, tr, i)
			if err != nil {
				return nil, err
			}
			c.Floats[i] = (v - tr.Center) / tr.Scale
		}
		cols = append(cols, c)
	}
	if target != "" {
		if tc := ds.Column(target); tc != nil {
			cols = append(cols, tc.Clone())
		}
	}
	out, err := dataset.New(cols...)
	if err != nil {
		return nil, pkgerr.Wrap(err, "feature.buildDataset")
	}
	return out, nil
}

// eliminate runs wrapper-style recursive feature elimination: fit a compact
// forest, drop the least important feature, stop when the validation metric
// degrades beyond the tolerance or the minimum feature count is reached.
// The loop never adds a feature back, so the count is non-increasing, and
// it is bounded by cfg.RFEMaxIterations refits.
func eliminate(ds *dataset.Dataset, fs *FeatureSet, target string, problemType model.ProblemType, cfg config.Config, logger log.Logger) ([]Transform, error) {
	kept := append([]Transform(nil), fs.Transforms...)
	if len(kept) <= cfg.RFEMinFeatures {
		return kept, nil
	}

	y := ds.Column(target).NumericValues()
	rows := ds.NumRows()

	rng := rand.New(rand.NewSource(cfg.Seed))
	perm := rng.Perm(rows)
	cut := rows - int(float64(rows)*cfg.TestFraction)
	if cut < 1 || cut >= rows {
		return kept, nil
	}
	trainIdx, valIdx := perm[:cut], perm[cut:]

	score := func(transforms []Transform) (float64, []float64, error) {
		sub := &FeatureSet{Transforms: transforms, Target: target}
		raw, err := materialize(ds, sub)
		if err != nil {
			return 0, nil, err
		}
		Xtr, ytr := subset(raw, y, trainIdx)
		Xval, yval := subset(raw, y, valIdx)

		criterion := tree.MSE
		if problemType == model.Classification {
			criterion = tree.Gini
		}
		forest := tree.NewForest(
			tree.WithNTrees(25),
			tree.WithForestCriterion(criterion),
			tree.WithForestMaxDepth(5),
			tree.WithForestSeed(cfg.Seed),
		)
		if err := forest.Fit(Xtr, ytr); err != nil {
			return 0, nil, err
		}
		pred, err := forest.Predict(Xval)
		if err != nil {
			return 0, nil, err
		}
		predVec := denseToVec(pred)
		yvalVec := denseToVec(yval)

		var m float64
		if problemType == model.Classification {
			m, err = metrics.Accuracy(yvalVec, predVec)
		} else {
			m, err = metrics.R2(yvalVec, predVec)
		}
		if err != nil {
			return 0, nil, err
		}
		return m, forest.FeatureImportances(), nil
	}

	best, importances, err := score(kept)
	if err != nil {
		return nil, pkgerr.Wrap(err, "feature.eliminate")
	}

	for iter := 0; iter < cfg.RFEMaxIterations && len(kept) > cfg.RFEMinFeatures; iter++ {
		weakest := 0
		for j, v := range importances {
			if v < importances[weakest] {
				weakest = j
			}
		}
		candidate := append(append([]Transform(nil), kept[:weakest]...), kept[weakest+1:]...)

		m, imp, err := score(candidate)
		if err != nil {
			return nil, pkgerr.Wrap(err, "feature.eliminate")
		}
		if m < best-cfg.RFETolerance {
			break // dropping this feature hurts; keep the current set
		}
		logger.Debug().
			Str("dropped", kept[weakest].Output).
			Float64(log.MetricKey, m).
			Int(log.FeaturesKey, len(candidate)).
			Msg("elimination round")
		kept = candidate
		importances = imp
		if m > best {
			best = m
		}
	}
	return kept, nil
}

func subset(X *mat.Dense, y []float64, indices []int) (*mat.Dense, *mat.Dense) {
	_, c := X.Dims()
	Xs := mat.NewDense(len(indices), c, nil)
	ys := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			Xs.Set(i, j, X.At(idx, j))
		}
		ys.Set(i, 0, y[idx])
	}
	return Xs, ys
}

func denseToVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
