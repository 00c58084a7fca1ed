package repository

import "errors"

// Domain-specific errors for the tasks repository.
var (
	// ErrNotFound: the record was deleted or is not shared with the
	// integration. The caller drops it from the current pass only.
	ErrNotFound = errors.New("task record not found")

	// ErrSchemaMismatch: the remote record does not match the configured
	// schema. Soft failure; the enclosing update is abandoned for this pass.
	ErrSchemaMismatch = errors.New("task record does not match expected schema")
)
