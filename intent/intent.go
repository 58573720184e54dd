// Package intent recommends next actions from a dataset's shape and
// quality. Each intent declares a hard precondition; failing it excludes
// the intent entirely, then soft heuristics rank whatever survives.
package intent

import (
	"sort"
	"time"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// Intent is one of the fixed actions the orchestrator can recommend.
type Intent string

const (
	PredictiveModel  Intent = "predictive_model"
	Explore          Intent = "explore"
	HealthCheck      Intent = "health_check"
	OptimizeExisting Intent = "optimize_existing"
	Explainability   Intent = "explainability"
	TimeSeries       Intent = "time_series"
	ABTesting        Intent = "ab_testing"
	Monitoring       Intent = "monitoring"
)

// priority is the fixed tie-break order; earlier wins on equal scores.
var priority = []Intent{
	PredictiveModel, Explore, HealthCheck, TimeSeries,
	ABTesting, OptimizeExisting, Explainability, Monitoring,
}

// Profile captures the dataset characteristics the scoring reads. Build it
// with ProfileDataset, then set the session flags the dataset cannot know.
type Profile struct {
	Rows             int
	Cols             int
	NumericCols      int
	CategoricalCols  int
	DatetimeCols     int
	PotentialTargets []string
	MissingPct       float64
	RegularDatetime  bool // at least one datetime column with regular spacing
	GroupedOutcome   bool // a categorical column with >=2 groups plus a numeric column

	// Session state, not derivable from the data.
	HasTrainedModel   bool
	HasReferenceBatch bool
}

// Scored pairs an intent with its confidence in [0, 100].
type Scored struct {
	Intent Intent
	Score  float64
	Reason string
}

// ProfileDataset derives a scoring profile from a typed dataset.
func ProfileDataset(ds *dataset.Dataset, cfg config.Config) Profile {
	p := Profile{Rows: ds.NumRows(), Cols: ds.NumCols()}

	totalCells := p.Rows * p.Cols
	missing := 0
	for _, c := range ds.Columns() {
		missing += c.MissingCount()
		switch c.Kind {
		case dataset.Numeric:
			p.NumericCols++
		case dataset.Categorical, dataset.Text:
			p.CategoricalCols++
		case dataset.DateTime:
			p.DatetimeCols++
			if regularSpacing(c) {
				p.RegularDatetime = true
			}
		}
		if d := c.Distinct(); d > 1 && d < cfg.ClassificationCardinalityMax {
			p.PotentialTargets = append(p.PotentialTargets, c.Name)
		}
	}
	if totalCells > 0 {
		p.MissingPct = float64(missing) / float64(totalCells) * 100
	}

	if p.NumericCols > 0 {
		for _, c := range ds.Columns() {
			if (c.Kind == dataset.Categorical || c.Kind == dataset.Boolean) && c.Distinct() >= 2 {
				p.GroupedOutcome = true
				break
			}
		}
	}
	return p
}

// regularSpacing reports whether the sorted timestamps of a column step by
// an approximately constant interval. Tolerates 10 percent jitter.
func regularSpacing(c *dataset.Column) bool {
	var times []time.Time
	for i, t := range c.Times {
		if !c.Null[i] {
			times = append(times, t)
		}
	}
	if len(times) < 3 {
		return false
	}
	sort.Slice(times, func(a, b int) bool { return times[a].Before(times[b]) })

	base := times[1].Sub(times[0])
	if base <= 0 {
		return false
	}
	for i := 2; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		jitter := float64(gap-base) / float64(base)
		if jitter < -0.1 || jitter > 0.1 {
			return false
		}
	}
	return true
}

// Recommend scores every intent whose precondition holds and returns them
// in descending score order, ties broken by the fixed priority order.
func Recommend(p Profile, logger log.Logger) []Scored {
	var out []Scored
	for _, it := range priority {
		if !precondition(it, p) {
			continue
		}
		score, reason := heuristic(it, p)
		out = append(out, Scored{Intent: it, Score: clamp(score), Reason: reason})
	}

	pos := make(map[Intent]int, len(priority))
	for i, it := range priority {
		pos[it] = i
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return pos[out[a].Intent] < pos[out[b].Intent]
	})

	logger.WithStage("intent").Debug().
		Int("candidates", len(out)).
		Msg("intents ranked")
	return out
}

// precondition is the hard gate; a violated precondition removes the intent
// from the ranking entirely.
func precondition(it Intent, p Profile) bool {
	switch it {
	case PredictiveModel:
		return p.Rows >= 2 && p.Cols >= 2
	case Explore, HealthCheck:
		return p.Rows > 0
	case OptimizeExisting, Explainability:
		return p.HasTrainedModel
	case TimeSeries:
		return p.RegularDatetime && p.NumericCols >= 1
	case ABTesting:
		return p.GroupedOutcome && p.Rows >= 2
	case Monitoring:
		return p.HasTrainedModel && p.HasReferenceBatch
	default:
		return false
	}
}

func heuristic(it Intent, p Profile) (float64, string) {
	switch it {
	case PredictiveModel:
		score, reason := 50.0, "standard prediction task"
		if p.Rows >= 100 {
			score += 20
			reason = "sufficient data for training"
		}
		if len(p.PotentialTargets) > 0 {
			score += 15
		}
		if p.NumericCols >= 3 {
			score += 10
		}
		if p.MissingPct < 10 {
			score += 5
		}
		if p.Rows < 50 {
			score -= 30
			reason = "dataset too small for reliable predictions"
		}
		return score, reason

	case Explore:
		score := 70.0
		if p.Cols > 20 {
			score += 10
		}
		if p.CategoricalCols > 0 && p.NumericCols > 0 {
			score += 10
		}
		if p.MissingPct > 20 {
			score += 5
		}
		return score, "understand your data first"

	case HealthCheck:
		score, reason := 40.0, "verify data quality"
		if p.MissingPct > 20 {
			score += 40
			reason = "substantial missing data detected"
		}
		if p.Rows < 100 {
			score += 10
		}
		if p.MissingPct < 5 {
			score -= 10
			reason = "data appears clean"
		}
		return score, reason

	case OptimizeExisting:
		score := 45.0
		if p.Rows >= 500 {
			score += 15
		}
		return score, "retune the existing model with fresh data"

	case Explainability:
		score := 50.0
		if p.NumericCols >= 3 {
			score += 10
		}
		return score, "attribute the trained model's predictions"

	case TimeSeries:
		score := 20.0 + 50 // precondition guarantees the datetime column
		if p.Rows >= 30 {
			score += 15
		}
		if p.NumericCols >= 1 {
			score += 10
		}
		return score, "regular datetime column detected"

	case ABTesting:
		score := 30.0 + 20 // precondition guarantees a grouping column
		if p.Rows >= 100 {
			score += 15
		}
		if p.NumericCols >= 1 {
			score += 10
		}
		return score, "compare groups statistically"

	case Monitoring:
		score := 40.0
		if p.HasReferenceBatch {
			score += 20
		}
		return score, "watch for drift against the training reference"
	}
	return 0, ""
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
