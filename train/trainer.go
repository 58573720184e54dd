package train

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/core/parallel"
	"github.com/analytix-ai/analytix-go/feature"
	"github.com/analytix-ai/analytix-go/metrics"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

// Report is the evaluated outcome of one roster candidate.
type Report struct {
	ModelName   string
	Params      Params
	CVScore     float64
	Metrics     map[string]float64
	Importances []float64
}

// Result is the full training outcome: every candidate's report, the
// baseline floor and the selected best model packaged as an Artifact.
type Result struct {
	ProblemType model.ProblemType
	Baseline    map[string]float64
	Reports     []Report
	Best        *Report
	Artifact    *Artifact

	TrainRows int
	TestRows  int
}

// TrainAndEvaluate splits the engineered matrix, trains the roster for the
// problem type (tuned by randomized search when enabled), evaluates every
// candidate on the held-out test partition and selects the winner by
// accuracy or R2. Candidates run in parallel; cancellation via ctx stops
// dispatching new candidates and returns the context error.
func TrainAndEvaluate(ctx context.Context, X *mat.Dense, y []float64, fs *feature.FeatureSet, problemType model.ProblemType, cfg config.Config, logger log.Logger) (*Result, error) {
	logger = logger.WithStage("train")
	defer logger.TimedOp("train_and_evaluate")()

	if err := ctx.Err(); err != nil {
		return nil, pkgerr.Wrap(err, "train: cancelled")
	}

	rows, cols := X.Dims()
	if rows < cfg.MinTrainingRows {
		return nil, pkgerr.NewTrainingError("insufficient rows",
			"dataset has fewer rows than min_training_rows")
	}
	if cols == 0 {
		return nil, pkgerr.NewTrainingError("empty feature set", "no features to train on")
	}
	if distinctCount(y) < 2 {
		return nil, pkgerr.NewTrainingError("single-class target",
			"target has a single unique value")
	}

	split, err := TrainTestSplit(X, y, cfg.TestFraction, cfg.Seed, problemType == model.Classification)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ProblemType: problemType,
		TrainRows:   len(split.TrainIdx),
		TestRows:    len(split.TestIdx),
	}

	baseline, err := evaluateBaseline(split, problemType)
	if err != nil {
		return nil, err
	}
	result.Baseline = baseline

	cands := Roster(problemType, cfg)
	reports := make([]*Report, len(cands))

	var (
		errMu    sync.Mutex
		firstErr error
	)
	runErr := parallel.ForEach(ctx, len(cands), cfg.Workers, func(i int) {
		rep, err := trainCandidate(cands[i], split, problemType, cfg, logger)
		if err != nil {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
			return
		}
		reports[i] = rep
	})
	if runErr != nil {
		return nil, pkgerr.Wrap(runErr, "train: cancelled")
	}
	if firstErr != nil {
		return nil, firstErr
	}

	primary := primaryMetric(problemType)
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		result.Reports = append(result.Reports, *rep)
		if result.Best == nil || rep.Metrics[primary] > result.Best.Metrics[primary] {
			best := *rep
			result.Best = &best
		}
	}
	if result.Best == nil {
		return nil, pkgerr.NewTrainingError("no candidate trained", "every roster member failed")
	}

	// Refit the winner on the training partition so the artifact holds the
	// exact model that produced the reported metrics.
	winner := candidateByName(cands, result.Best.ModelName)
	est := winner.Build(result.Best.Params, cfg.Seed)
	if err := est.Fit(split.XTrain, columnMatrix(split.YTrain)); err != nil {
		return nil, pkgerr.Wrapf(err, "train: refitting %s", result.Best.ModelName)
	}

	result.Artifact = &Artifact{
		ModelName:   result.Best.ModelName,
		ProblemType: problemType,
		Target:      fs.Target,
		Features:    fs,
		Params:      result.Best.Params,
		Metrics:     result.Best.Metrics,
		Importances: result.Best.Importances,
		Seed:        cfg.Seed,
		TrainedAt:   time.Now().UTC(),
		Model:       est,
	}

	logger.Info().
		Str(log.ModelNameKey, result.Best.ModelName).
		Float64(log.MetricKey, result.Best.Metrics[primary]).
		Int(log.RowsKey, rows).
		Int(log.FeaturesKey, cols).
		Msg("selected best model")
	return result, nil
}

func trainCandidate(cand Candidate, split *Split, problemType model.ProblemType, cfg config.Config, logger log.Logger) (*Report, error) {
	yTrain := vecToSlice(split.YTrain)

	params := Params{}
	cvScore := 0.0
	if cfg.EnableTuning && len(cand.Space) > 0 {
		var err error
		params, cvScore, err = RandomizedSearch(cand, split.XTrain, yTrain, problemType, cfg)
		if err != nil {
			return nil, err
		}
	}

	est := cand.Build(params, cfg.Seed)
	if err := est.Fit(split.XTrain, columnMatrix(split.YTrain)); err != nil {
		return nil, pkgerr.Wrapf(err, "train: fitting %s", cand.Name)
	}
	pred, err := est.Predict(split.XTest)
	if err != nil {
		return nil, pkgerr.Wrapf(err, "train: evaluating %s", cand.Name)
	}

	m, err := evaluate(split.YTest, matToVec(pred), problemType)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		ModelName: cand.Name,
		Params:    params,
		CVScore:   cvScore,
		Metrics:   m,
	}
	if ip, ok := est.(model.ImportanceProvider); ok {
		rep.Importances = ip.FeatureImportances()
	}

	logger.Debug().
		Str(log.ModelNameKey, cand.Name).
		Float64(log.MetricKey, m[primaryMetric(problemType)]).
		Msg("candidate evaluated")
	return rep, nil
}

// evaluate computes the metric suite on the test partition.
func evaluate(yTrue, yPred *mat.VecDense, problemType model.ProblemType) (map[string]float64, error) {
	if problemType == model.Classification {
		acc, err := metrics.Accuracy(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		p, r, f1, err := metrics.PrecisionRecallF1(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		return map[string]float64{
			"accuracy":  acc,
			"precision": p,
			"recall":    r,
			"f1":        f1,
		}, nil
	}

	r2, err := metrics.R2(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := metrics.MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"r2": r2, "rmse": rmse, "mae": mae}, nil
}

func evaluateBaseline(split *Split, problemType model.ProblemType) (map[string]float64, error) {
	strategy := StrategyMean
	if problemType == model.Classification {
		strategy = StrategyMode
	}
	d := NewDummy(strategy)
	if err := d.Fit(split.XTrain, columnMatrix(split.YTrain)); err != nil {
		return nil, err
	}
	pred, err := d.Predict(split.XTest)
	if err != nil {
		return nil, err
	}
	return evaluate(split.YTest, matToVec(pred), problemType)
}

func primaryMetric(problemType model.ProblemType) string {
	if problemType == model.Classification {
		return "accuracy"
	}
	return "r2"
}

func candidateByName(cands []Candidate, name string) Candidate {
	for _, c := range cands {
		if c.Name == name {
			return c
		}
	}
	return cands[0]
}

func distinctCount(y []float64) int {
	seen := make(map[float64]struct{}, len(y))
	for _, v := range y {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
