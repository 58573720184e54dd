// Package log provides structured logging for pipeline stages on top of
// zerolog. Stages receive a Logger through their configuration instead of
// writing to a process-wide singleton, which keeps runs isolated and tests
// quiet.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Common attribute keys used across pipeline stages.
const (
	StageKey      = "stage"
	OperationKey  = "operation"
	RowsKey       = "rows"
	ColumnsKey    = "columns"
	FeaturesKey   = "features"
	ModelNameKey  = "model_name"
	MetricKey     = "metric"
	DurationMsKey = "duration_ms"
	RunIDKey      = "run_id"
)

// Logger is a thin wrapper around zerolog.Logger with stage-scoped helpers.
type Logger struct {
	zl zerolog.Logger
}

// New creates a Logger writing JSON lines to w at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return Logger{zl: zl}
}

// Default returns a Logger writing to stderr at info level.
func Default() Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}

// Nop returns a Logger that discards everything. Used in tests.
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

// WithStage returns a Logger with the stage field pre-populated.
func (l Logger) WithStage(stage string) Logger {
	return Logger{zl: l.zl.With().Str(StageKey, stage).Logger()}
}

// Debug starts a debug-level event.
func (l Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info starts an info-level event.
func (l Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn starts a warn-level event.
func (l Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error starts an error-level event.
func (l Logger) Error() *zerolog.Event { return l.zl.Error() }

// TimedOp logs the duration of an operation when the returned func runs.
//
//	defer logger.TimedOp("train_and_evaluate")()
func (l Logger) TimedOp(op string) func() {
	start := time.Now()
	return func() {
		l.zl.Info().
			Str(OperationKey, op).
			Int64(DurationMsKey, time.Since(start).Milliseconds()).
			Msg("operation completed")
	}
}
