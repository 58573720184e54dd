// Package clean repairs a typed dataset: duplicate removal, missing-value
// imputation, IQR outlier clipping and skew correction. Every decision is
// column-local and recorded in a Report so the fitted transforms can be
// reproduced at prediction time.
package clean

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// SkewKind identifies the transform applied to a skewed numeric column.
type SkewKind string

const (
	// SkewLog1p is applied when all values are strictly positive.
	SkewLog1p SkewKind = "log1p"
	// SkewSqrt is applied when all values are non-negative.
	SkewSqrt SkewKind = "sqrt"
)

// Imputation records how missing values in one column were filled.
type Imputation struct {
	Column   string
	Strategy string // "median" or "mode"
	Value    string // fill value rendered as text
}

// Report bundles the fitted cleaning parameters for FeatureSet
// construction, plus column-level diagnostics.
type Report struct {
	DuplicatesRemoved int
	DroppedColumns    []string // missing rate above threshold
	Imputations       []Imputation
	ClipBounds        map[string]dataset.OutlierBounds
	SkewTransforms    map[string]SkewKind
}

// Clean returns a cleaned snapshot of ds together with the fitted
// parameters. It is idempotent: a second pass over its own output changes
// nothing. CleaningError is returned when every column is dropped.
func Clean(ds *dataset.Dataset, cfg config.Config, logger log.Logger) (*dataset.Dataset, *Report, error) {
	logger = logger.WithStage("clean")
	report := &Report{
		ClipBounds:     make(map[string]dataset.OutlierBounds),
		SkewTransforms: make(map[string]SkewKind),
	}

	out := dropDuplicateRows(ds, report)

	// Drop columns that are mostly missing rather than fabricate signal.
	for _, c := range out.Columns() {
		if out.NumRows() == 0 {
			break
		}
		missRate := float64(c.MissingCount()) / float64(out.NumRows())
		if missRate > cfg.MissingDropThreshold {
			report.DroppedColumns = append(report.DroppedColumns, c.Name)
			logger.Info().
				Str("column", c.Name).
				Float64("missing_rate", missRate).
				Msg("dropping mostly-missing column")
		}
	}
	if len(report.DroppedColumns) > 0 {
		out = out.Drop(report.DroppedColumns...)
	}
	if out.NumCols() == 0 {
		return nil, nil, pkgerr.NewCleaningError("all columns dropped", report.DroppedColumns)
	}

	for _, c := range out.Columns() {
		switch c.Kind {
		case dataset.Numeric:
			imputeMedian(c, report)
			clipOutliers(c, cfg, report)
			correctSkew(c, cfg, report)
		case dataset.Categorical, dataset.Text:
			imputeMode(c, report)
		case dataset.Boolean:
			imputeBoolMode(c, report)
		}
	}

	logger.Info().
		Int(log.RowsKey, out.NumRows()).
		Int(log.ColumnsKey, out.NumCols()).
		Int("duplicates_removed", report.DuplicatesRemoved).
		Int("columns_dropped", len(report.DroppedColumns)).
		Msg("cleaning completed")
	return out, report, nil
}

// dropDuplicateRows removes exact duplicate rows, keeping the first.
func dropDuplicateRows(ds *dataset.Dataset, report *Report) *dataset.Dataset {
	rows := ds.NumRows()
	seen := make(map[string]struct{}, rows)
	keep := make([]int, 0, rows)

	for i := 0; i < rows; i++ {
		var sb strings.Builder
		for _, c := range ds.Columns() {
			if c.Null[i] {
				sb.WriteString("\x00|")
				continue
			}
			switch c.Kind {
			case dataset.Numeric:
				fmt.Fprintf(&sb, "%g|", c.Floats[i])
			case dataset.DateTime:
				fmt.Fprintf(&sb, "%d|", c.Times[i].UnixNano())
			case dataset.Boolean:
				fmt.Fprintf(&sb, "%t|", c.Bools[i])
			default:
				sb.WriteString(c.Strings[i])
				sb.WriteByte('|')
			}
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	if len(keep) == rows {
		return ds.Clone()
	}
	report.DuplicatesRemoved = rows - len(keep)
	return ds.TakeRows(keep)
}

func imputeMedian(c *dataset.Column, report *Report) {
	vals := make([]float64, 0, len(c.Floats))
	hasMissing := false
	for i, v := range c.Floats {
		if c.Null[i] || math.IsNaN(v) {
			hasMissing = true
			continue
		}
		vals = append(vals, v)
	}
	if !hasMissing || len(vals) == 0 {
		return
	}
	sort.Float64s(vals)
	median := stat.Quantile(0.5, stat.Empirical, vals, nil)
	for i := range c.Floats {
		if c.Null[i] || math.IsNaN(c.Floats[i]) {
			c.Floats[i] = median
			c.Null[i] = false
		}
	}
	report.Imputations = append(report.Imputations, Imputation{
		Column: c.Name, Strategy: "median", Value: fmt.Sprintf("%g", median),
	})
}

func imputeMode(c *dataset.Column, report *Report) {
	if c.MissingCount() == 0 {
		return
	}
	counts := make(map[string]int)
	for i, s := range c.Strings {
		if !c.Null[i] {
			counts[s]++
		}
	}
	mode := "Unknown"
	best := 0
	for s, n := range counts {
		if n > best || (n == best && s < mode) {
			mode, best = s, n
		}
	}
	for i := range c.Strings {
		if c.Null[i] {
			c.Strings[i] = mode
			c.Null[i] = false
		}
	}
	report.Imputations = append(report.Imputations, Imputation{
		Column: c.Name, Strategy: "mode", Value: mode,
	})
}

func imputeBoolMode(c *dataset.Column, report *Report) {
	if c.MissingCount() == 0 {
		return
	}
	trues, falses := 0, 0
	for i, b := range c.Bools {
		if c.Null[i] {
			continue
		}
		if b {
			trues++
		} else {
			falses++
		}
	}
	mode := trues >= falses
	for i := range c.Bools {
		if c.Null[i] {
			c.Bools[i] = mode
			c.Null[i] = false
		}
	}
	report.Imputations = append(report.Imputations, Imputation{
		Column: c.Name, Strategy: "mode", Value: fmt.Sprintf("%t", mode),
	})
}

// clipOutliers clips to IQR fences instead of deleting rows, preserving
// dataset size.
func clipOutliers(c *dataset.Column, cfg config.Config, report *Report) {
	vals := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Null[i] && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) < 4 {
		return
	}
	sort.Float64s(vals)
	q1 := stat.Quantile(0.25, stat.Empirical, vals, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, vals, nil)
	iqr := q3 - q1
	if iqr == 0 {
		return
	}
	bounds := dataset.OutlierBounds{
		Lower: q1 - cfg.IQRMultiplier*iqr,
		Upper: q3 + cfg.IQRMultiplier*iqr,
	}
	clipped := false
	for i, v := range c.Floats {
		if c.Null[i] {
			continue
		}
		if v < bounds.Lower {
			c.Floats[i] = bounds.Lower
			clipped = true
		} else if v > bounds.Upper {
			c.Floats[i] = bounds.Upper
			clipped = true
		}
	}
	if clipped {
		report.ClipBounds[c.Name] = bounds
	}
}

// correctSkew applies log1p to strictly positive skewed columns and sqrt to
// non-negative ones, recording the transform for reproduction or inversion.
// The transform is committed only when it brings |skew| inside the
// threshold, so a repeated pass sees a corrected column and leaves it
// alone: clean(clean(D)) == clean(D) holds even for columns no transform
// can cure.
func correctSkew(c *dataset.Column, cfg config.Config, report *Report) {
	vals := make([]float64, 0, len(c.Floats))
	allPositive, allNonNegative := true, true
	for i, v := range c.Floats {
		if c.Null[i] || math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		if v <= 0 {
			allPositive = false
		}
		if v < 0 {
			allNonNegative = false
		}
	}
	if len(vals) < 3 {
		return
	}
	skew := stat.Skew(vals, nil)
	if math.Abs(skew) <= cfg.SkewThreshold {
		return
	}

	var fn func(float64) float64
	var kind SkewKind
	switch {
	case allPositive:
		fn, kind = math.Log1p, SkewLog1p
	case allNonNegative:
		fn, kind = math.Sqrt, SkewSqrt
	default:
		return
	}

	transformed := make([]float64, len(vals))
	for i, v := range vals {
		transformed[i] = fn(v)
	}
	if math.Abs(stat.Skew(transformed, nil)) > cfg.SkewThreshold {
		return
	}

	for i := range c.Floats {
		if !c.Null[i] {
			c.Floats[i] = fn(c.Floats[i])
		}
	}
	report.SkewTransforms[c.Name] = kind
}
