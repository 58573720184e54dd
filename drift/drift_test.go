package drift

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/dataset"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
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

func catCol(name string, vals []string) *dataset.Column {
	return &dataset.Column{
		Name:    name,
		Kind:    dataset.Categorical,
		Strings: append([]string(nil), vals...),
		Null:    make([]bool, len(vals)),
	}
}

func uniform(n int, seed int64, offset float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*10 + offset
	}
	return out
}

func TestComputeDriftIdenticalBatchesScoreZero(t *testing.T) {
	vals := uniform(200, 1, 0)
	ref, err := dataset.New(numCol("x", vals), catCol("g", repeat([]string{"a", "b"}, 100)))
	require.NoError(t, err)
	cur, err := dataset.New(numCol("x", vals), catCol("g", repeat([]string{"a", "b"}, 100)))
	require.NoError(t, err)

	rep, err := ComputeDrift(ref, cur, nil, config.Default(), log.Nop())
	require.NoError(t, err)

	assert.Equal(t, None, rep.Overall)
	assert.InDelta(t, 0, rep.WorstPSI, 1e-12)
	for _, f := range rep.Features {
		assert.InDelta(t, 0, f.PSI, 1e-12, "feature %s", f.Feature)
		assert.Equal(t, None, f.Severity)
	}
}

func TestComputeDriftShiftedNumericIsSevere(t *testing.T) {
	ref, err := dataset.New(numCol("x", uniform(300, 1, 0)))
	require.NoError(t, err)
	// The current batch moved far outside the reference range.
	cur, err := dataset.New(numCol("x", uniform(300, 2, 50)))
	require.NoError(t, err)

	rep, err := ComputeDrift(ref, cur, []string{"x"}, config.Default(), log.Nop())
	require.NoError(t, err)

	assert.Equal(t, Severe, rep.Overall)
	assert.Equal(t, "x", rep.WorstFeature)
	assert.Greater(t, rep.WorstPSI, 0.25)
}

func TestComputeDriftCategoricalShift(t *testing.T) {
	ref, err := dataset.New(catCol("plan", repeat([]string{"basic", "basic", "basic", "pro"}, 50)))
	require.NoError(t, err)
	cur, err := dataset.New(catCol("plan", repeat([]string{"pro", "pro", "pro", "basic"}, 50)))
	require.NoError(t, err)

	rep, err := ComputeDrift(ref, cur, []string{"plan"}, config.Default(), log.Nop())
	require.NoError(t, err)

	// Shares flipped from 75/25 to 25/75.
	require.Len(t, rep.Features, 1)
	assert.Greater(t, rep.Features[0].PSI, 0.25)
	assert.Equal(t, Severe, rep.Overall)
}

func TestComputeDriftNewCategoryContributes(t *testing.T) {
	ref, err := dataset.New(catCol("plan", repeat([]string{"basic"}, 100)))
	require.NoError(t, err)
	cur, err := dataset.New(catCol("plan", repeat([]string{"basic", "basic", "basic", "enterprise"}, 25)))
	require.NoError(t, err)

	rep, err := ComputeDrift(ref, cur, []string{"plan"}, config.Default(), log.Nop())
	require.NoError(t, err)
	assert.Greater(t, rep.Features[0].PSI, 0.0)
}

func TestComputeDriftMissingColumnFails(t *testing.T) {
	ref, err := dataset.New(numCol("x", []float64{1, 2, 3}), numCol("y", []float64{4, 5, 6}))
	require.NoError(t, err)
	cur, err := dataset.New(numCol("x", []float64{1, 2, 3}))
	require.NoError(t, err)

	_, err = ComputeDrift(ref, cur, nil, config.Default(), log.Nop())
	require.Error(t, err)

	var de *pkgerr.DriftError
	require.True(t, pkgerr.As(err, &de))
	assert.Contains(t, de.Missing, "y")
}

func TestComputeDriftKindChangeFails(t *testing.T) {
	ref, err := dataset.New(numCol("x", []float64{1, 2, 3}))
	require.NoError(t, err)
	cur, err := dataset.New(catCol("x", []string{"1", "2", "3"}))
	require.NoError(t, err)

	_, err = ComputeDrift(ref, cur, nil, config.Default(), log.Nop())
	require.Error(t, err)

	var de *pkgerr.DriftError
	assert.True(t, pkgerr.As(err, &de))
}

func TestComputeDriftEmptyBatchFails(t *testing.T) {
	ref, err := dataset.New(numCol("x", []float64{1, 2, 3}))
	require.NoError(t, err)

	empty := &dataset.Dataset{}
	_, err = ComputeDrift(ref, empty, nil, config.Default(), log.Nop())
	assert.Error(t, err)
}

func TestSeverityBands(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		psi  float64
		want Severity
	}{
		{0.0, None},
		{0.09, None},
		{0.1, Moderate},
		{0.2, Moderate},
		{0.25, Moderate},
		{0.26, Severe},
		{1.5, Severe},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, severity(tt.psi, cfg), "psi=%v", tt.psi)
	}
}

func repeat(pattern []string, times int) []string {
	out := make([]string, 0, len(pattern)*times)
	for i := 0; i < times; i++ {
		out = append(out, pattern...)
	}
	return out
}
