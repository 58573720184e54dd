package drift

import (
	"math"
	"strconv"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Thresholds for target shift, separate from the PSI bands: a class share
// moving more than 15 points or a mean moving more than 20 percent relative
// flags the target.
const (
	classShareShift   = 0.15
	relativeMeanShift = 0.20
)

// TargetShift describes how the target distribution moved between batches.
type TargetShift struct {
	Target  string
	Metric  string // "class_share" or "relative_mean"
	Change  float64
	Drifted bool
}

// TargetDrift compares the target column across batches. Label-like targets
// are compared by their worst class share change; numeric targets by the
// relative change of the mean.
func TargetDrift(reference, current *dataset.Dataset, target string, cfg config.Config) (*TargetShift, error) {
	ref := reference.Column(target)
	cur := current.Column(target)
	if ref == nil || cur == nil {
		return nil, pkgerr.NewDriftError("target column missing from a batch", []string{target})
	}
	if ref.Kind != cur.Kind {
		return nil, pkgerr.NewDriftError("target kind changed between batches: "+target, nil)
	}

	if ref.Kind == dataset.Numeric && ref.Distinct() >= cfg.ClassificationCardinalityMax {
		refMean := mean(nonNullFloats(ref))
		curMean := mean(nonNullFloats(cur))
		var change float64
		if refMean != 0 {
			change = math.Abs(curMean-refMean) / math.Abs(refMean)
		} else if curMean != 0 {
			change = 1
		}
		return &TargetShift{
			Target:  target,
			Metric:  "relative_mean",
			Change:  change,
			Drifted: change > relativeMeanShift,
		}, nil
	}

	// Label-like target: compare per-class shares.
	refShares := classShares(ref)
	curShares := classShares(cur)
	union := make(map[string]struct{}, len(refShares))
	for k := range refShares {
		union[k] = struct{}{}
	}
	for k := range curShares {
		union[k] = struct{}{}
	}

	worst := 0.0
	for k := range union {
		if d := math.Abs(curShares[k] - refShares[k]); d > worst {
			worst = d
		}
	}
	return &TargetShift{
		Target:  target,
		Metric:  "class_share",
		Change:  worst,
		Drifted: worst > classShareShift,
	}, nil
}

func classShares(c *dataset.Column) map[string]float64 {
	counts, total := labelCounts(c)
	shares := make(map[string]float64, len(counts))
	if total == 0 {
		return shares
	}
	for k, n := range counts {
		shares[k] = float64(n) / float64(total)
	}
	return shares
}

func labelCounts(c *dataset.Column) (map[string]int, int) {
	if c.Kind != dataset.Numeric {
		return categoryCounts(c)
	}
	counts := make(map[string]int)
	total := 0
	for i, v := range c.Floats {
		if c.Null[i] || math.IsNaN(v) {
			continue
		}
		counts[formatLabel(v)]++
		total++
	}
	return counts, total
}

// formatLabel renders a numeric label as a stable map key.
func formatLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
