package analyses

import "errors"

var (
	// ErrNotFound indicates the analysis does not exist.
	ErrNotFound = errors.New("analysis not found")
	// ErrProvider marks a synchronous suggestion failure caused by the LLM
	// provider rather than by this service.
	ErrProvider = errors.New("provider failure")
)

// Failure codes stored on failed jobs.
const (
	ErrorCodeValidation     = "VALIDATION_ERROR"
	ErrorCodeTimeout        = "PROVIDER_TIMEOUT"
	ErrorCodeSchemaMismatch = "PROVIDER_SCHEMA_MISMATCH"
	ErrorCodeStorage        = "STORAGE_ERROR"
	ErrorCodeInternal       = "INTERNAL_ERROR"
)
