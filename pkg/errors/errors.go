// Package errors provides the error and warning types used across minet.
// Shape and parameter problems are reported eagerly as errors; convergence
// problems are reported as warnings attached to the affected path point and
// routed through a process-wide warning handler.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("minet-warning: %v\n", w)
	}
)

// SetWarningHandler replaces the process-wide warning handler. Solvers emit
// ConvergenceWarning through this hook instead of failing the whole path.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn raises a warning through the configured handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an iterative solver hits its iteration
// cap before meeting tolerance. The partial result is still returned.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Lambda     float64
	Alpha      float64
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s did not converge after %d iterations (lambda=%g, alpha=%g): %s",
			w.Algorithm, w.Iterations, w.Lambda, w.Alpha, w.Message)
	}
	return fmt.Sprintf("%s did not converge after %d iterations (lambda=%g, alpha=%g). Consider raising the iteration cap or loosening the tolerance.",
		w.Algorithm, w.Iterations, w.Lambda, w.Alpha)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Float64("lambda", w.Lambda).
		Float64("alpha", w.Alpha).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a ConvergenceWarning for one grid point.
func NewConvergenceWarning(algorithm string, iterations int, lambda, alpha float64, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Lambda: lambda, Alpha: alpha, Message: message}
}

// DimensionError reports a shape mismatch between matrices, responses, or
// weight/penalty vectors, including mismatches across imputations.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows/observations, 1 for columns/variables
}

func (e *DimensionError) Error() string {
	axisName := "variables"
	if e.Axis == 0 {
		axisName = "observations"
	}
	return fmt.Sprintf("minet: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports an invalid parameter value, such as alpha outside
// [0,1], a negative lambda, or an unknown family.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("minet: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// NotFittedError is returned when Predict or Coefficients is called on an
// estimator before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("minet: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// NotFoundError is returned when a coefficient vector is requested at a
// regularization setting that was never computed. No interpolation is done.
type NotFoundError struct {
	Op     string
	Lambda float64
	Alpha  float64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("minet: %s: no path point at lambda=%g, alpha=%g (exact grid match required)", e.Op, e.Lambda, e.Alpha)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Float64("lambda", e.Lambda).
		Float64("alpha", e.Alpha).
		Str("type", "NotFoundError")
}

// NewNotFoundError creates a NotFoundError with a stack trace.
func NewNotFoundError(op string, lambda, alpha float64) error {
	err := &NotFoundError{Op: op, Lambda: lambda, Alpha: alpha}
	return errors.WithStack(err)
}

// InsufficientFoldsError is returned when the cross-validation fold count is
// below two or a fold would be empty.
type InsufficientFoldsError struct {
	NFolds   int
	NSamples int
	Reason   string
}

func (e *InsufficientFoldsError) Error() string {
	return fmt.Sprintf("minet: cannot cross-validate with %d folds over %d observations: %s", e.NFolds, e.NSamples, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *InsufficientFoldsError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("nfolds", e.NFolds).
		Int("nsamples", e.NSamples).
		Str("reason", e.Reason).
		Str("type", "InsufficientFoldsError")
}

// NewInsufficientFoldsError creates an InsufficientFoldsError with a stack trace.
func NewInsufficientFoldsError(nfolds, nsamples int, reason string) error {
	err := &InsufficientFoldsError{NFolds: nfolds, NSamples: nsamples, Reason: reason}
	return errors.WithStack(err)
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps err with a formatted message.
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

var (
	// ErrEmptyData is returned when a fit receives no rows or no columns.
	ErrEmptyData = New("empty data")
)
