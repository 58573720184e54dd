package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

func numCol(name string, vals []float64) *dataset.Column {
	return &dataset.Column{
		Name:   name,
		Kind:   dataset.Numeric,
		Floats: append([]float64(nil), vals...),
		Null:   make([]bool, len(vals)),
	}
}

func intents(scored []Scored) []Intent {
	out := make([]Intent, len(scored))
	for i, s := range scored {
		out[i] = s.Intent
	}
	return out
}

func contains(scored []Scored, it Intent) bool {
	for _, s := range scored {
		if s.Intent == it {
			return true
		}
	}
	return false
}

func TestProfileDataset(t *testing.T) {
	day := &dataset.Column{Name: "day", Kind: dataset.DateTime, Null: make([]bool, 6)}
	for i := 0; i < 6; i++ {
		day.Times = append(day.Times, time.Date(2026, time.January, 1+i, 0, 0, 0, 0, time.UTC))
	}
	churn := &dataset.Column{
		Name:    "churn",
		Kind:    dataset.Categorical,
		Strings: []string{"yes", "no", "yes", "no", "yes", "no"},
		Null:    make([]bool, 6),
	}

	ds, err := dataset.New(
		numCol("amount", []float64{10, 20, 30, 40, 50, 60}),
		churn,
		day,
	)
	require.NoError(t, err)

	p := ProfileDataset(ds, config.Default())
	assert.Equal(t, 6, p.Rows)
	assert.Equal(t, 3, p.Cols)
	assert.Equal(t, 1, p.NumericCols)
	assert.Equal(t, 1, p.CategoricalCols)
	assert.Equal(t, 1, p.DatetimeCols)
	assert.True(t, p.RegularDatetime)
	assert.True(t, p.GroupedOutcome)
	assert.Contains(t, p.PotentialTargets, "churn")
	assert.InDelta(t, 0, p.MissingPct, 1e-9)
}

func TestProfileDatasetIrregularDatetime(t *testing.T) {
	day := &dataset.Column{Name: "day", Kind: dataset.DateTime, Null: make([]bool, 4)}
	for _, offset := range []int{0, 1, 10, 11} {
		day.Times = append(day.Times, time.Date(2026, time.January, 1+offset, 0, 0, 0, 0, time.UTC))
	}
	ds, err := dataset.New(day, numCol("x", []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	p := ProfileDataset(ds, config.Default())
	assert.False(t, p.RegularDatetime)
}

func TestRecommendGatesOnSessionState(t *testing.T) {
	p := Profile{Rows: 200, Cols: 5, NumericCols: 3, PotentialTargets: []string{"churn"}}

	scored := Recommend(p, log.Nop())
	assert.False(t, contains(scored, OptimizeExisting))
	assert.False(t, contains(scored, Explainability))
	assert.False(t, contains(scored, Monitoring))

	p.HasTrainedModel = true
	scored = Recommend(p, log.Nop())
	assert.True(t, contains(scored, OptimizeExisting))
	assert.True(t, contains(scored, Explainability))
	assert.False(t, contains(scored, Monitoring), "monitoring still needs a reference batch")

	p.HasReferenceBatch = true
	scored = Recommend(p, log.Nop())
	assert.True(t, contains(scored, Monitoring))
}

func TestRecommendTimeSeriesNeedsRegularDatetime(t *testing.T) {
	p := Profile{Rows: 100, Cols: 3, NumericCols: 2, DatetimeCols: 1}
	assert.False(t, contains(Recommend(p, log.Nop()), TimeSeries))

	p.RegularDatetime = true
	assert.True(t, contains(Recommend(p, log.Nop()), TimeSeries))
}

func TestRecommendABTestingNeedsGroups(t *testing.T) {
	p := Profile{Rows: 100, Cols: 3, NumericCols: 2}
	assert.False(t, contains(Recommend(p, log.Nop()), ABTesting))

	p.GroupedOutcome = true
	assert.True(t, contains(Recommend(p, log.Nop()), ABTesting))
}

func TestRecommendRanksRichDatasetForPrediction(t *testing.T) {
	p := Profile{
		Rows: 500, Cols: 10, NumericCols: 5, CategoricalCols: 3,
		PotentialTargets: []string{"churn"}, MissingPct: 2,
	}

	scored := Recommend(p, log.Nop())
	require.NotEmpty(t, scored)
	assert.Equal(t, PredictiveModel, scored[0].Intent)
	assert.Equal(t, 100.0, scored[0].Score, "50+20+15+10+5 clamps at 100")
}

func TestRecommendFlagsDirtyData(t *testing.T) {
	p := Profile{Rows: 80, Cols: 4, NumericCols: 2, MissingPct: 35}

	scored := Recommend(p, log.Nop())
	require.NotEmpty(t, scored)
	assert.Equal(t, HealthCheck, scored[0].Intent)
	// 40 base + 40 heavy missing + 10 small dataset.
	assert.Equal(t, 90.0, scored[0].Score)
}

func TestRecommendSmallDatasetDiscouragesPrediction(t *testing.T) {
	p := Profile{Rows: 20, Cols: 3, NumericCols: 2, MissingPct: 0}

	scored := Recommend(p, log.Nop())
	var predict, explore *Scored
	for i := range scored {
		switch scored[i].Intent {
		case PredictiveModel:
			predict = &scored[i]
		case Explore:
			explore = &scored[i]
		}
	}
	require.NotNil(t, predict)
	require.NotNil(t, explore)
	assert.Greater(t, explore.Score, predict.Score)
}

func TestRecommendScoresStayInRange(t *testing.T) {
	profiles := []Profile{
		{Rows: 1, Cols: 1},
		{Rows: 10, Cols: 2, MissingPct: 90},
		{Rows: 100000, Cols: 300, NumericCols: 250, MissingPct: 0,
			PotentialTargets: []string{"a", "b"}, HasTrainedModel: true, HasReferenceBatch: true},
	}
	for _, p := range profiles {
		for _, s := range Recommend(p, log.Nop()) {
			assert.GreaterOrEqual(t, s.Score, 0.0, "intent %s", s.Intent)
			assert.LessOrEqual(t, s.Score, 100.0, "intent %s", s.Intent)
		}
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	p := Profile{
		Rows: 150, Cols: 8, NumericCols: 4, CategoricalCols: 2,
		PotentialTargets: []string{"churn"}, MissingPct: 12,
		GroupedOutcome: true, HasTrainedModel: true, HasReferenceBatch: true,
	}

	first := intents(Recommend(p, log.Nop()))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, intents(Recommend(p, log.Nop())))
	}
}
