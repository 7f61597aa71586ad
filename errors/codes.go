package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resource errors
const (
	// ErrCodeInputResource indicates the input cannot be opened or read.
	ErrCodeInputResource ErrorCode = "INPUT_RESOURCE"
	// ErrCodeOutputResource indicates the output target cannot be created or written.
	ErrCodeOutputResource ErrorCode = "OUTPUT_RESOURCE"
	// ErrCodeIndexStore indicates the region index store rejected an operation.
	ErrCodeIndexStore ErrorCode = "INDEX_STORE"
)

// Data errors
const (
	// ErrCodeDecodeBoundary indicates a batch boundary could not be parsed.
	ErrCodeDecodeBoundary ErrorCode = "DECODE_BOUNDARY"
	// ErrCodeTransform indicates a worker failed to decode or encode a batch.
	ErrCodeTransform ErrorCode = "TRANSFORM"
)

// Side-artifact errors (non-fatal)
const (
	// ErrCodeMetadataWrite indicates the metadata side file could not be written.
	ErrCodeMetadataWrite ErrorCode = "METADATA_WRITE"
)

// Validation errors
const (
	// ErrCodeConfiguration indicates invalid configuration, rejected before a run starts.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
)

// Lifecycle errors
const (
	// ErrCodeCanceled indicates the run was canceled by the caller.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeShutdownTimeout indicates workers did not stop within the grace period.
	ErrCodeShutdownTimeout ErrorCode = "SHUTDOWN_TIMEOUT"
	// ErrCodeInternal indicates a broken internal invariant.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Stage names where a failure occurred.
const (
	StageConfig    = "config"
	StageRead      = "read"
	StageTransform = "transform"
	StageWrite     = "write"
	StageMetadata  = "metadata"
	StageIndex     = "index"
	StagePublish   = "publish"
	StageShutdown  = "shutdown"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeOutputResource: true,
	ErrCodeIndexStore:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Only side operations (publishing, index writes) ever retry; the conversion
// pipeline itself fails fast.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

var fatalCodes = map[ErrorCode]bool{
	ErrCodeInputResource:   true,
	ErrCodeOutputResource:  true,
	ErrCodeIndexStore:      true,
	ErrCodeDecodeBoundary:  true,
	ErrCodeTransform:       true,
	ErrCodeConfiguration:   true,
	ErrCodeCanceled:        true,
	ErrCodeShutdownTimeout: true,
	ErrCodeInternal:        true,
}

// IsFatalCode reports whether an error with this code aborts a run.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}

var exitCodes = map[ErrorCode]int{
	ErrCodeConfiguration:   2,
	ErrCodeInputResource:   3,
	ErrCodeDecodeBoundary:  4,
	ErrCodeTransform:       5,
	ErrCodeOutputResource:  6,
	ErrCodeMetadataWrite:   7,
	ErrCodeIndexStore:      8,
	ErrCodeCanceled:        130,
	ErrCodeShutdownTimeout: 124,
}
