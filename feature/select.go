package feature

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// SelectFeatures drops numeric columns with near-zero variance and one of
// each highly correlated pair, returning a new dataset snapshot. When the
// target is numeric the member of a correlated pair with the stronger
// target correlation survives; otherwise the first in column order does,
// keeping the choice deterministic. Non-numeric columns pass through
// untouched; they are handled by encoding.
func SelectFeatures(ds *dataset.Dataset, target string, cfg config.Config, logger log.Logger) (*dataset.Dataset, error) {
	logger = logger.WithStage("feature")
	var dropped []string

	// Near-zero variance pruning.
	for _, c := range ds.Columns() {
		if c.Name == target || c.Kind != dataset.Numeric {
			continue
		}
		if variance(c.Floats) < cfg.VarianceThreshold {
			dropped = append(dropped, c.Name)
		}
	}

	out := ds.Drop(dropped...)

	// Correlation pruning over the surviving numeric columns.
	var numeric []*dataset.Column
	for _, c := range out.Columns() {
		if c.Name != target && c.Kind == dataset.Numeric {
			numeric = append(numeric, c)
		}
	}

	var targetVals []float64
	if tc := out.Column(target); tc != nil && tc.Kind == dataset.Numeric {
		targetVals = tc.Floats
	}

	removed := make(map[string]bool)
	for i := 0; i < len(numeric); i++ {
		if removed[numeric[i].Name] {
			continue
		}
		for j := i + 1; j < len(numeric); j++ {
			if removed[numeric[j].Name] {
				continue
			}
			corr := stat.Correlation(numeric[i].Floats, numeric[j].Floats, nil)
			if math.Abs(corr) <= cfg.CorrelationThreshold {
				continue
			}
			victim := numeric[j]
			if targetVals != nil {
				ci := math.Abs(stat.Correlation(numeric[i].Floats, targetVals, nil))
				cj := math.Abs(stat.Correlation(numeric[j].Floats, targetVals, nil))
				if cj > ci {
					victim = numeric[i]
				}
			}
			removed[victim.Name] = true
			if victim == numeric[i] {
				break
			}
		}
	}
	for name := range removed {
		dropped = append(dropped, name)
		out = out.Drop(name)
	}

	featuresLeft := 0
	for _, c := range out.Columns() {
		if c.Name != target {
			featuresLeft++
		}
	}
	if featuresLeft == 0 {
		return nil, pkgerr.NewFeatureError(
			"no features survive variance and correlation pruning; consider relaxing the thresholds", dropped)
	}

	if len(dropped) > 0 {
		logger.Info().
			Strs("dropped", dropped).
			Int("remaining", featuresLeft).
			Msg("pruned features")
	}
	return out, nil
}

func variance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sum float64
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n < 2 {
		return 0
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range vals {
		if !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return ss / float64(n)
}
