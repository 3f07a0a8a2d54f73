package documents

import "errors"

var (
	// ErrNotFound is returned when no document matches the given ID.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput flags a rejected upload request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoContent is returned when a document's raw bytes are not retained.
	ErrNoContent = errors.New("document content not retained")
)
