package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/analytix-ai/analytix-go/config"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Date layouts recognized during inference, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

// InferTypes re-casts text columns to their semantic type and returns a new
// dataset snapshot. Order of attempts per column: boolean, numeric
// (thousands commas stripped), datetime, categorical by cardinality, text.
//
// A numeric-looking column whose distinct integer values stay at or below
// the categorical cutoff is kept categorical: downstream encoders handle
// categoricals safely, while coercing true category codes to numbers would
// silently corrupt features.
func InferTypes(ds *Dataset, cfg config.Config) *Dataset {
	out := ds.Clone()
	for _, c := range out.Columns() {
		if c.Kind != Text {
			continue
		}
		fromKind := c.Kind

		switch {
		case tryBoolean(c):
		case tryNumeric(c, cfg):
		case tryDateTime(c):
		default:
			if c.Distinct() <= categoricalCutoff(c.Len(), cfg) {
				c.Kind = Categorical
			}
		}

		if c.Kind != fromKind {
			pkgerr.Warn(&pkgerr.DataConversionWarning{
				Column:   c.Name,
				FromKind: fromKind.String(),
				ToKind:   c.Kind.String(),
			})
		}
	}
	return out
}

// categoricalCutoff bounds the cutoff by the row count so tiny datasets do
// not classify everything as categorical.
func categoricalCutoff(rows int, cfg config.Config) int {
	cutoff := cfg.CategoricalCardinalityMax
	if half := rows / 2; half < cutoff {
		cutoff = half
	}
	if cutoff < 2 {
		cutoff = 2
	}
	return cutoff
}

func tryBoolean(c *Column) bool {
	vals := make([]bool, c.Len())
	for i, s := range c.Strings {
		if c.Null[i] {
			continue
		}
		switch strings.ToLower(s) {
		case "true", "yes", "y", "t":
			vals[i] = true
		case "false", "no", "n", "f":
			vals[i] = false
		default:
			return false
		}
	}
	c.Kind = Boolean
	c.Bools = vals
	c.Strings = nil
	return true
}

func tryNumeric(c *Column, cfg config.Config) bool {
	vals := make([]float64, c.Len())
	allInts := true
	parsedAny := false
	for i, s := range c.Strings {
		if c.Null[i] {
			vals[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return false
		}
		vals[i] = v
		parsedAny = true
		if v != math.Trunc(v) {
			allInts = false
		}
	}
	if !parsedAny {
		return false
	}

	// Small integer sets stay categorical (cardinality tie-break).
	if allInts && c.Distinct() <= categoricalCutoff(c.Len(), cfg) {
		c.Kind = Categorical
		return true
	}

	c.Kind = Numeric
	c.Floats = vals
	c.Strings = nil
	return true
}

func tryDateTime(c *Column) bool {
	vals := make([]time.Time, c.Len())
	layout := ""
	for i, s := range c.Strings {
		if c.Null[i] {
			continue
		}
		if layout != "" {
			t, err := time.Parse(layout, s)
			if err != nil {
				return false
			}
			vals[i] = t
			continue
		}
		parsed := false
		for _, l := range dateLayouts {
			if t, err := time.Parse(l, s); err == nil {
				layout = l
				vals[i] = t
				parsed = true
				break
			}
		}
		if !parsed {
			return false
		}
	}
	if layout == "" {
		return false
	}
	c.Kind = DateTime
	c.Times = vals
	c.Strings = nil
	return true
}
