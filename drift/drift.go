// Package drift compares a current batch against the training reference
// with the population stability index. Numeric features are binned by
// reference quantiles, categorical features by their category frequencies;
// identical batches score zero by construction.
package drift

import (
	"math"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// Severity bands a PSI value.
type Severity string

const (
	// None means the distribution is stable.
	None Severity = "none"
	// Moderate means the shift deserves monitoring.
	Moderate Severity = "moderate"
	// Severe means the model should be retrained.
	Severe Severity = "severe"
)

// FeatureDrift is the PSI outcome for one feature.
type FeatureDrift struct {
	Feature  string
	Kind     dataset.Kind
	PSI      float64
	Severity Severity
}

// Report is the drift assessment of a whole batch.
type Report struct {
	Features     []FeatureDrift
	WorstFeature string
	WorstPSI     float64
	Overall      Severity
}

// ComputeDrift scores every named feature shared by both datasets. With an
// empty feature list every reference column is scored. A feature present in
// the reference but absent from the current batch is a schema mismatch and
// fails the whole call.
func ComputeDrift(reference, current *dataset.Dataset, features []string, cfg config.Config, logger log.Logger) (*Report, error) {
	logger = logger.WithStage("drift")

	if reference.NumRows() == 0 || current.NumRows() == 0 {
		return nil, pkgerr.NewDriftError("both batches must contain rows", nil)
	}
	if len(features) == 0 {
		features = reference.Names()
	}

	var missing []string
	for _, name := range features {
		if current.Column(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerr.NewDriftError("current batch is missing reference columns", missing)
	}

	report := &Report{Overall: None}
	for _, name := range features {
		ref := reference.Column(name)
		cur := current.Column(name)
		if ref == nil {
			return nil, pkgerr.NewDriftError("unknown reference column: "+name, nil)
		}
		if ref.Kind != cur.Kind {
			return nil, pkgerr.NewDriftError("column kind changed between batches: "+name, nil)
		}

		var psi float64
		if ref.Kind == dataset.Numeric {
			psi = numericPSI(ref, cur, cfg)
		} else {
			psi = categoricalPSI(ref, cur, cfg)
		}

		fd := FeatureDrift{
			Feature:  name,
			Kind:     ref.Kind,
			PSI:      psi,
			Severity: severity(psi, cfg),
		}
		report.Features = append(report.Features, fd)

		if psi > report.WorstPSI || report.WorstFeature == "" {
			report.WorstFeature = name
			report.WorstPSI = psi
		}
		if rank(fd.Severity) > rank(report.Overall) {
			report.Overall = fd.Severity
		}
	}

	logger.Info().
		Str("worst_feature", report.WorstFeature).
		Float64("worst_psi", report.WorstPSI).
		Str("verdict", string(report.Overall)).
		Msg("drift computed")
	return report, nil
}

// numericPSI bins both batches by the reference quantiles. The outer bins
// are open-ended so current values outside the reference range still land
// in a bin instead of vanishing.
func numericPSI(ref, cur *dataset.Column, cfg config.Config) float64 {
	refVals := nonNullFloats(ref)
	curVals := nonNullFloats(cur)
	if len(refVals) == 0 || len(curVals) == 0 {
		return 0
	}

	breaks := dedupe(dataset.Quantiles(refVals, cfg.PSIBins))
	if len(breaks) < 2 {
		// Constant reference column; any shift shows up as one bin vs
		// everything outside it.
		breaks = []float64{refVals[0]}
	}

	refCounts := binCounts(refVals, breaks)
	curCounts := binCounts(curVals, breaks)
	return psiFromCounts(refCounts, curCounts, len(refVals), len(curVals), cfg.PSIEpsilon)
}

// categoricalPSI compares category frequencies over the union of observed
// categories.
func categoricalPSI(ref, cur *dataset.Column, cfg config.Config) float64 {
	refFreq, refTotal := categoryCounts(ref)
	curFreq, curTotal := categoryCounts(cur)
	if refTotal == 0 || curTotal == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(refFreq))
	for k := range refFreq {
		union[k] = struct{}{}
	}
	for k := range curFreq {
		union[k] = struct{}{}
	}

	var psi float64
	for k := range union {
		p := math.Max(float64(refFreq[k])/float64(refTotal), cfg.PSIEpsilon)
		q := math.Max(float64(curFreq[k])/float64(curTotal), cfg.PSIEpsilon)
		psi += (q - p) * math.Log(q/p)
	}
	return psi
}

func categoryCounts(c *dataset.Column) (map[string]int, int) {
	counts := make(map[string]int)
	total := 0
	for i := range c.Null {
		if c.Null[i] {
			continue
		}
		var key string
		switch c.Kind {
		case dataset.Boolean:
			if c.Bools[i] {
				key = "true"
			} else {
				key = "false"
			}
		case dataset.DateTime:
			key = c.Times[i].Format("2006-01")
		default:
			key = c.Strings[i]
		}
		counts[key]++
		total++
	}
	return counts, total
}

// binCounts assigns values to len(breaks)+1 bins: below the first break,
// between consecutive breaks, and above the last.
func binCounts(vals, breaks []float64) []int {
	counts := make([]int, len(breaks)+1)
	for _, v := range vals {
		bin := len(breaks)
		for b, edge := range breaks {
			if v <= edge {
				bin = b
				break
			}
		}
		counts[bin]++
	}
	return counts
}

func psiFromCounts(refCounts, curCounts []int, refTotal, curTotal int, epsilon float64) float64 {
	var psi float64
	for b := range refCounts {
		p := float64(refCounts[b]) / float64(refTotal)
		q := float64(curCounts[b]) / float64(curTotal)
		if refCounts[b] == 0 && curCounts[b] == 0 {
			continue // empty bin on both sides contributes nothing
		}
		p = math.Max(p, epsilon)
		q = math.Max(q, epsilon)
		psi += (q - p) * math.Log(q/p)
	}
	return psi
}

func severity(psi float64, cfg config.Config) Severity {
	switch {
	case psi > cfg.PSISevereThreshold:
		return Severe
	case psi >= cfg.PSIModerateThreshold:
		return Moderate
	default:
		return None
	}
}

func rank(s Severity) int {
	switch s {
	case Severe:
		return 2
	case Moderate:
		return 1
	default:
		return 0
	}
}

func nonNullFloats(c *dataset.Column) []float64 {
	vals := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Null[i] && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
