// Package errors provides the structured error taxonomy for the analytical
// pipeline. Every stage reports failures through one of the typed errors
// below so the service layer can decide whether to abort, retry with new
// input, or degrade to a partial result.
package errors

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {}
)

// SetWarningHandler installs the handler invoked for non-fatal warnings
// such as DataConversionWarning or ConvergenceWarning.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn raises a warning through the installed handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an optimization loop stops before
// reaching its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max iterations.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("type", "ConvergenceWarning")
}

// DataConversionWarning is raised when a column's values are implicitly
// re-cast during type inference.
type DataConversionWarning struct {
	Column   string
	FromKind string
	ToKind   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("column %q converted from %s to %s", w.Column, w.FromKind, w.ToKind)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Str("from_kind", w.FromKind).
		Str("to_kind", w.ToKind).
		Str("type", "DataConversionWarning")
}

// ===========================================================================
//
//	Pipeline stage errors
//
// ===========================================================================

// IngestError reports unreadable, empty or oversized input. It is
// user-facing and not retryable without new input.
type IngestError struct {
	Filename string
	Reason   string
}

func (e *IngestError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("ingest: %s: %s", e.Filename, e.Reason)
	}
	return fmt.Sprintf("ingest: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *IngestError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("filename", e.Filename).
		Str("reason", e.Reason).
		Str("stage", "ingest").
		Str("type", "IngestError")
}

// NewIngestError creates an IngestError with a stack trace attached.
func NewIngestError(filename, reason string) error {
	return errors.WithStack(&IngestError{Filename: filename, Reason: reason})
}

// CleaningError reports a cleaning pass that left the dataset unusable,
// with column-level diagnostics.
type CleaningError struct {
	Reason  string
	Columns []string
}

func (e *CleaningError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("cleaning: %s (columns: %v)", e.Reason, e.Columns)
	}
	return fmt.Sprintf("cleaning: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *CleaningError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Strs("columns", e.Columns).
		Str("stage", "clean").
		Str("type", "CleaningError")
}

// NewCleaningError creates a CleaningError with a stack trace attached.
func NewCleaningError(reason string, columns []string) error {
	return errors.WithStack(&CleaningError{Reason: reason, Columns: columns})
}

// FeatureError reports that no features survive selection. The usual
// remedy is relaxing the variance or correlation thresholds.
type FeatureError struct {
	Reason  string
	Dropped []string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature engineering: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *FeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Strs("dropped", e.Dropped).
		Str("stage", "feature").
		Str("type", "FeatureError")
}

// NewFeatureError creates a FeatureError with a stack trace attached.
func NewFeatureError(reason string, dropped []string) error {
	return errors.WithStack(&FeatureError{Reason: reason, Dropped: dropped})
}

// TrainingError reports a violated training precondition: too few rows,
// a constant target, or an empty feature set.
type TrainingError struct {
	Precondition string
	Detail       string
}

func (e *TrainingError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("training: %s: %s", e.Precondition, e.Detail)
	}
	return fmt.Sprintf("training: %s", e.Precondition)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("precondition", e.Precondition).
		Str("detail", e.Detail).
		Str("stage", "train").
		Str("type", "TrainingError")
}

// NewTrainingError creates a TrainingError with a stack trace attached.
func NewTrainingError(precondition, detail string) error {
	return errors.WithStack(&TrainingError{Precondition: precondition, Detail: detail})
}

// ExplainError reports that no attribution strategy applies to a model.
// It is non-fatal: callers keep the trained model and omit the explanation.
type ExplainError struct {
	ModelName string
	Reason    string
}

func (e *ExplainError) Error() string {
	return fmt.Sprintf("explain: %s: %s", e.ModelName, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ExplainError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("reason", e.Reason).
		Str("stage", "explain").
		Str("type", "ExplainError")
}

// NewExplainError creates an ExplainError with a stack trace attached.
func NewExplainError(modelName, reason string) error {
	return errors.WithStack(&ExplainError{ModelName: modelName, Reason: reason})
}

// DriftError reports mismatched schemas between the reference and the
// current batch.
type DriftError struct {
	Reason  string
	Missing []string
}

func (e *DriftError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("drift: %s (missing: %v)", e.Reason, e.Missing)
	}
	return fmt.Sprintf("drift: %s", e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DriftError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Strs("missing", e.Missing).
		Str("stage", "drift").
		Str("type", "DriftError")
}

// NewDriftError creates a DriftError with a stack trace attached.
func NewDriftError(reason string, missing []string) error {
	return errors.WithStack(&DriftError{Reason: reason, Missing: missing})
}

// ===========================================================================
//
//	Estimator-level errors
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a shape mismatch between expected and actual input.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("%s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ===========================================================================
//
//	cockroachdb/errors passthroughs
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Common sentinel errors.
var (
	// ErrEmptyData is returned when an operation receives no data.
	ErrEmptyData = New("empty data")
)
