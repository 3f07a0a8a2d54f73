package revisions

import "errors"

var (
	ErrNotFound       = errors.New("revision not found")
	ErrBadSelection   = errors.New("invalid change selection")
	ErrNothingApplied = errors.New("no changes applied")
)
