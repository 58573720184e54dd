package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/analytix-ai/analytix-go/config"
)

// OutlierBounds are the IQR fences used for clipping numeric columns.
type OutlierBounds struct {
	Lower float64
	Upper float64
}

// ColumnProfile summarizes one column for downstream stages. Computed once
// per pipeline run and never mutated afterwards.
type ColumnProfile struct {
	Name        string
	Kind        Kind
	Cardinality int
	MissingRate float64
	Skewness    float64
	Outliers    OutlierBounds
}

// Profile computes a profile for every column. Skewness and outlier bounds
// are only meaningful for numeric columns and are zero otherwise.
func Profile(ds *Dataset, cfg config.Config) map[string]ColumnProfile {
	profiles := make(map[string]ColumnProfile, ds.NumCols())
	rows := ds.NumRows()

	for _, c := range ds.Columns() {
		p := ColumnProfile{
			Name:        c.Name,
			Kind:        c.Kind,
			Cardinality: c.Distinct(),
		}
		if rows > 0 {
			p.MissingRate = float64(c.MissingCount()) / float64(rows)
		}
		if c.Kind == Numeric {
			vals := nonNull(c)
			if len(vals) > 2 {
				p.Skewness = stat.Skew(vals, nil)
			}
			p.Outliers = iqrFences(vals, cfg.IQRMultiplier)
		}
		profiles[c.Name] = p
	}
	return profiles
}

// IDColumns returns columns whose unique ratio exceeds cfg.IDUniqueRatio.
// Such columns carry no generalizable signal and are excluded from
// modeling.
func IDColumns(ds *Dataset, cfg config.Config) []string {
	rows := ds.NumRows()
	if rows == 0 {
		return nil
	}
	var ids []string
	for _, c := range ds.Columns() {
		if c.Kind == Numeric || c.Kind == Boolean {
			continue
		}
		if float64(c.Distinct()) > cfg.IDUniqueRatio*float64(rows) {
			ids = append(ids, c.Name)
		}
	}
	return ids
}

// nonNull extracts the non-null numeric values of a column.
func nonNull(c *Column) []float64 {
	vals := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Null[i] && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

// iqrFences computes [Q1 - k*IQR, Q3 + k*IQR] on a copy of vals.
func iqrFences(vals []float64, k float64) OutlierBounds {
	if len(vals) == 0 {
		return OutlierBounds{}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	return OutlierBounds{Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// Quantiles returns n+1 quantile breakpoints of vals (0, 1/n, ..., 1).
// Used by the drift detector for reference binning.
func Quantiles(vals []float64, n int) []float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	breaks := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		breaks[i] = stat.Quantile(float64(i)/float64(n), stat.Empirical, sorted, nil)
	}
	return breaks
}
