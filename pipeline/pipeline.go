// Package pipeline wires the full analytical flow: ingest, type inference,
// cleaning, feature engineering, training and tracking, with best-effort
// explainability on top. Stages before training abort the run; stages after
// it degrade to a partial result.
package pipeline

import (
	"context"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/analytix-ai/analytix-go/clean"
	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/dataset"
	"github.com/analytix-ai/analytix-go/experiment"
	"github.com/analytix-ai/analytix-go/explain"
	"github.com/analytix-ai/analytix-go/feature"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
	"github.com/analytix-ai/analytix-go/train"
)

// Pipeline runs end-to-end analytical flows with shared configuration, a
// logger and an optional experiment tracker.
type Pipeline struct {
	cfg     config.Config
	logger  log.Logger
	tracker *experiment.Tracker
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig overrides the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracker attaches an experiment tracker; runs are logged when one is
// present.
func WithTracker(t *experiment.Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// New creates a Pipeline with defaults: default config, stderr logger, no
// tracker.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{cfg: config.Default(), logger: log.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOptions tune a single invocation.
type RunOptions struct {
	// OptimizeAccuracy enables recursive feature elimination.
	OptimizeAccuracy bool
	// DatasetName labels the run in the experiment log; defaults to the
	// input filename.
	DatasetName string
	// Notes are stored verbatim with the tracked run.
	Notes string
}

// RunResult is the outcome of one full pipeline invocation.
type RunResult struct {
	Shape       dataset.Shape
	DroppedIDs  []string
	CleanReport *clean.Report
	ProblemType model.ProblemType
	Training    *train.Result
	RunID       string

	// Explanation is nil when no attribution strategy applied; the error
	// explains why without failing the run.
	Explanation *explain.GlobalExplanation
	ExplainErr  error
}

// Run executes the full flow on raw bytes. The target column must survive
// cleaning; everything up to and including training is fatal on error,
// tracking and explanation are best-effort.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, filename, target string, opts RunOptions) (*RunResult, error) {
	logger := p.logger.WithStage("pipeline")
	defer logger.TimedOp("run")()

	ds, err := dataset.Load(r, filename, p.cfg)
	if err != nil {
		return nil, err
	}
	ds = dataset.InferTypes(ds, p.cfg)

	result := &RunResult{Shape: ds.Shape()}

	// Identifier-like columns carry no generalizable signal.
	if ids := dataset.IDColumns(ds, p.cfg); len(ids) > 0 {
		keep := make([]string, 0, len(ids))
		for _, id := range ids {
			if id != target {
				keep = append(keep, id)
			}
		}
		if len(keep) > 0 {
			ds = ds.Drop(keep...)
			result.DroppedIDs = keep
			logger.Info().Strs("columns", keep).Msg("dropped identifier columns")
		}
	}

	if ds.Column(target) == nil {
		return nil, pkgerr.NewValueError("Pipeline.Run", "target column not found: "+target)
	}

	cleaned, report, err := clean.Clean(ds, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	result.CleanReport = report
	if cleaned.Column(target) == nil {
		return nil, pkgerr.NewCleaningError("target column was dropped during cleaning", []string{target})
	}

	problemType, err := train.DetectProblemType(cleaned, target, p.cfg)
	if err != nil {
		return nil, err
	}
	result.ProblemType = problemType

	selected, err := feature.SelectFeatures(cleaned, target, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}

	engineered, fs, err := feature.Engineer(selected, target, problemType, opts.OptimizeAccuracy, report, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}

	X, err := engineered.Matrix(fs.Names())
	if err != nil {
		return nil, pkgerr.Wrap(err, "pipeline: assembling design matrix")
	}
	y := engineered.Column(target).NumericValues()

	training, err := train.TrainAndEvaluate(ctx, X, y, fs, problemType, p.cfg, p.logger)
	if err != nil {
		return nil, err
	}
	result.Training = training

	if p.tracker != nil {
		name := opts.DatasetName
		if name == "" {
			name = filename
		}
		runID, err := p.tracker.Log(experiment.Record{
			Dataset:     name,
			Target:      target,
			ProblemType: problemType,
			ModelName:   training.Best.ModelName,
			Metrics:     training.Best.Metrics,
			Params:      training.Best.Params,
			Features:    len(fs.Transforms),
			Rows:        result.Shape.Rows,
			Notes:       opts.Notes,
		})
		if err != nil {
			// The model is still useful without the log entry.
			logger.Warn().Err(err).Msg("experiment logging failed")
		} else {
			result.RunID = runID
		}
	}

	result.Explanation, result.ExplainErr = explain.Global(
		training.Artifact.Model, fs.Names(), X, vecFromSlice(y), problemType, p.cfg, p.logger)
	if result.ExplainErr != nil {
		logger.Warn().Err(result.ExplainErr).Msg("explanation unavailable")
	}

	return result, nil
}

func vecFromSlice(vals []float64) *mat.VecDense {
	return mat.NewVecDense(len(vals), append([]float64(nil), vals...))
}
