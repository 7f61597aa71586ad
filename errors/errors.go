// Package errors provides the classified error type used across varconv.
// Every terminal failure of a run is an *AppError carrying a machine-readable
// code, the stage where it happened and, when known, the batch sequence number.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Stage is the pipeline stage where the failure occurred.
	Stage string `json:"stage,omitempty"`
	// Seq is the sequence number of the offending batch, or -1.
	Seq int64 `json:"seq"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	prefix := string(e.Code)
	if e.Stage != "" {
		prefix += "[" + e.Stage + "]"
	}
	if e.Seq >= 0 {
		prefix += fmt.Sprintf(" seq=%d", e.Seq)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// ExitCode returns the process exit status for this error.
func (e *AppError) ExitCode() int {
	if c, ok := exitCodes[e.Code]; ok {
		return c
	}
	return 1
}

// Fatal reports whether this error aborts a run.
func (e *AppError) Fatal() bool { return IsFatalCode(e.Code) }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithSeq sets the batch sequence number and returns the receiver.
func (e *AppError) WithSeq(seq int64) *AppError {
	e.Seq = seq
	return e
}

// WithStage sets the stage and returns the receiver.
func (e *AppError) WithStage(stage string) *AppError {
	e.Stage = stage
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, stage, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Stage:     stage,
		Seq:       -1,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// InputResource creates an error for an input that cannot be opened or read.
func InputResource(path string, cause error) *AppError {
	return New(ErrCodeInputResource, StageRead, fmt.Sprintf("cannot read input %q", path)).
		WithDetail("path", path).WithCause(cause)
}

// DecodeBoundary creates an error for a batch boundary that could not be parsed.
func DecodeBoundary(seq int64, reason string) *AppError {
	return New(ErrCodeDecodeBoundary, StageRead, reason).WithSeq(seq)
}

// Transform creates an error for a batch a worker failed to decode or encode.
func Transform(seq int64, cause error) *AppError {
	return New(ErrCodeTransform, StageTransform, "batch transform failed").WithSeq(seq).WithCause(cause)
}

// OutputResource creates an error for an output target that cannot be created or written.
func OutputResource(target string, cause error) *AppError {
	return New(ErrCodeOutputResource, StageWrite, fmt.Sprintf("cannot write output %q", target)).
		WithDetail("target", target).WithCause(cause)
}

// MetadataWrite creates an error for a failed side-artifact write.
func MetadataWrite(path string, cause error) *AppError {
	return New(ErrCodeMetadataWrite, StageMetadata, fmt.Sprintf("cannot write metadata %q", path)).
		WithDetail("path", path).WithCause(cause)
}

// Configuration creates an error for an invalid configuration value.
func Configuration(field, reason string) *AppError {
	e := New(ErrCodeConfiguration, StageConfig, fmt.Sprintf("invalid configuration: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// IndexStore creates an error for a failed region store operation.
func IndexStore(op string, cause error) *AppError {
	return New(ErrCodeIndexStore, StageIndex, fmt.Sprintf("index store %s failed", op)).
		WithDetail("operation", op).WithCause(cause)
}

// Canceled creates an error for a run canceled by the caller.
func Canceled(cause error) *AppError {
	return New(ErrCodeCanceled, "", "run canceled").WithCause(cause)
}

// ShutdownTimeout creates an error for roles that did not stop within the grace period.
func ShutdownTimeout(grace string, cause error) *AppError {
	return New(ErrCodeShutdownTimeout, StageShutdown, fmt.Sprintf("workers did not stop within %s", grace)).
		WithCause(cause)
}

// Internal creates an error for a broken internal invariant.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, "", message)
}

// --- Inspection helpers ---

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first *AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// SeqOf returns the batch sequence number recorded in err, or -1.
func SeqOf(err error) int64 {
	if appErr, ok := As(err); ok {
		return appErr.Seq
	}
	return -1
}

// ExitCode returns the process exit status for err (0 for nil).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := As(err); ok {
		return appErr.ExitCode()
	}
	return 1
}
