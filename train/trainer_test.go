package train

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/feature"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// separableData builds two well-separated Gaussian-ish clusters.
func separableData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(7))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 1.0
		if i%2 == 1 {
			base, y[i] = 8.0, 1
		}
		X.Set(i, 0, base+rng.Float64())
		X.Set(i, 1, base+rng.Float64())
	}
	return X, y
}

func linearData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(9))
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.Float64() * 10
		X.Set(i, 0, x)
		y[i] = 2*x + 3
	}
	return X, y
}

func testFeatureSet(cols ...string) *feature.FeatureSet {
	fs := &feature.FeatureSet{Target: "target"}
	for _, c := range cols {
		fs.Transforms = append(fs.Transforms, feature.Transform{
			Output: c, Source: c, Encoding: feature.EncodeNumeric, Scale: 1,
		})
	}
	return fs
}

func fastConfig() config.Config {
	cfg := config.Default()
	cfg.EnableTuning = false // defaults are enough for separable test data
	cfg.Workers = 2
	return cfg
}

func TestTrainAndEvaluateClassification(t *testing.T) {
	X, y := separableData(80)

	res, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x1", "x2"), model.Classification, fastConfig(), log.Nop())
	require.NoError(t, err)

	require.NotNil(t, res.Best)
	assert.Greater(t, res.Best.Metrics["accuracy"], 0.9)
	assert.Len(t, res.Reports, 3)
	assert.Equal(t, 64, res.TrainRows)
	assert.Equal(t, 16, res.TestRows)

	// Baseline predicts the majority class of a balanced target.
	assert.InDelta(t, 0.5, res.Baseline["accuracy"], 0.1)

	require.NotNil(t, res.Artifact)
	assert.Equal(t, res.Best.ModelName, res.Artifact.ModelName)
	assert.Equal(t, model.Classification, res.Artifact.ProblemType)
	assert.Equal(t, "target", res.Artifact.Target)

	// The refit winner is usable immediately.
	pred, err := res.Artifact.Model.Predict(X)
	require.NoError(t, err)
	r, _ := pred.Dims()
	assert.Equal(t, 80, r)
}

func TestTrainAndEvaluateRegression(t *testing.T) {
	X, y := linearData(60)

	res, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x"), model.Regression, fastConfig(), log.Nop())
	require.NoError(t, err)

	require.NotNil(t, res.Best)
	// The closed-form linear model recovers y = 2x + 3 exactly.
	assert.Equal(t, "LinearRegression", res.Best.ModelName)
	assert.Greater(t, res.Best.Metrics["r2"], 0.999)
	assert.Less(t, res.Baseline["r2"], 0.1)
}

func TestTrainAndEvaluateInsufficientRows(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := []float64{0, 1, 0}

	_, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x"), model.Classification, fastConfig(), log.Nop())
	require.Error(t, err)

	var te *pkgerr.TrainingError
	require.True(t, pkgerr.As(err, &te))
	assert.Equal(t, "insufficient rows", te.Precondition)
}

func TestTrainAndEvaluateSingleClassTarget(t *testing.T) {
	X, _ := separableData(40)
	y := make([]float64, 40) // every row is class 0

	_, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x1", "x2"), model.Classification, fastConfig(), log.Nop())
	require.Error(t, err)

	var te *pkgerr.TrainingError
	require.True(t, pkgerr.As(err, &te))
	assert.Equal(t, "single-class target", te.Precondition)
}

func TestTrainAndEvaluateConstantRegressionTarget(t *testing.T) {
	X, _ := linearData(40)
	y := make([]float64, 40)
	for i := range y {
		y[i] = 5
	}

	_, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x"), model.Regression, fastConfig(), log.Nop())
	require.Error(t, err)

	var te *pkgerr.TrainingError
	require.True(t, pkgerr.As(err, &te))
	assert.Equal(t, "single-class target", te.Precondition)
}

func TestTrainAndEvaluateCancelledContext(t *testing.T) {
	X, y := separableData(40)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainAndEvaluate(ctx, X, y, testFeatureSet("x1", "x2"), model.Classification, fastConfig(), log.Nop())
	require.Error(t, err)
	assert.True(t, pkgerr.Is(err, context.Canceled))
}

func TestTrainAndEvaluateDeterminism(t *testing.T) {
	X, y := separableData(60)
	cfg := fastConfig()
	cfg.EnableTuning = true
	cfg.SearchIterations = 3

	a, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x1", "x2"), model.Classification, cfg, log.Nop())
	require.NoError(t, err)
	b, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x1", "x2"), model.Classification, cfg, log.Nop())
	require.NoError(t, err)

	assert.Equal(t, a.Best.ModelName, b.Best.ModelName)
	assert.Equal(t, a.Best.Params, b.Best.Params)
	assert.Equal(t, a.Best.Metrics, b.Best.Metrics)
}

func TestDummyBaseline(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})

	t.Run("mean", func(t *testing.T) {
		y := mat.NewDense(5, 1, []float64{2, 4, 6, 8, 10})
		d := NewDummy(StrategyMean)
		require.NoError(t, d.Fit(X, y))
		assert.InDelta(t, 6.0, d.Constant, 1e-9)
	})

	t.Run("mode", func(t *testing.T) {
		y := mat.NewDense(5, 1, []float64{1, 0, 1, 1, 0})
		d := NewDummy(StrategyMode)
		require.NoError(t, d.Fit(X, y))
		assert.Equal(t, 1.0, d.Constant)

		pred, err := d.Predict(X)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			assert.Equal(t, 1.0, pred.At(i, 0))
		}
	})

	t.Run("mode tie prefers smaller value", func(t *testing.T) {
		X4 := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
		y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
		d := NewDummy(StrategyMode)
		require.NoError(t, d.Fit(X4, y))
		assert.Equal(t, 0.0, d.Constant)
	})

	t.Run("unfitted predict fails", func(t *testing.T) {
		d := NewDummy(StrategyMean)
		_, err := d.Predict(X)
		var nf *pkgerr.NotFittedError
		assert.True(t, pkgerr.As(err, &nf))
	})
}

func TestArtifactRoundTrip(t *testing.T) {
	X, y := separableData(40)

	res, err := TrainAndEvaluate(context.Background(), X, y, testFeatureSet("x1", "x2"), model.Classification, fastConfig(), log.Nop())
	require.NoError(t, err)

	blob, err := res.Artifact.Encode()
	require.NoError(t, err)

	restored, err := DecodeArtifact(blob)
	require.NoError(t, err)
	assert.Equal(t, res.Artifact.ModelName, restored.ModelName)
	assert.Equal(t, res.Artifact.Params, restored.Params)
	assert.Equal(t, res.Artifact.Seed, restored.Seed)
	require.NotNil(t, restored.Features)
	assert.Equal(t, res.Artifact.Features.Names(), restored.Features.Names())

	// The restored model predicts identically to the original.
	orig, err := res.Artifact.Model.Predict(X)
	require.NoError(t, err)
	back, err := restored.Model.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		assert.Equal(t, orig.At(i, 0), back.At(i, 0), "row %d", i)
	}
}

func TestRandomizedSearchIsDeterministic(t *testing.T) {
	X, y := separableData(50)
	cfg := fastConfig()
	cfg.SearchIterations = 5

	cands := Roster(model.Classification, cfg)
	forest := candidateByName(cands, "RandomForest")

	pA, sA, err := RandomizedSearch(forest, X, y, model.Classification, cfg)
	require.NoError(t, err)
	pB, sB, err := RandomizedSearch(forest, X, y, model.Classification, cfg)
	require.NoError(t, err)

	assert.Equal(t, pA, pB)
	assert.Equal(t, sA, sB)
}

func TestRosterFamilies(t *testing.T) {
	cfg := config.Default()

	names := func(cands []Candidate) []string {
		out := make([]string, len(cands))
		for i, c := range cands {
			out[i] = c.Name
		}
		return out
	}

	assert.Equal(t, []string{"LogisticRegression", "RandomForest", "GradientBoosting"},
		names(Roster(model.Classification, cfg)))
	assert.Equal(t, []string{"LinearRegression", "RandomForest", "GradientBoosting"},
		names(Roster(model.Regression, cfg)))
}
