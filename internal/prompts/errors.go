package prompts

import "errors"

var (
	ErrNotFound     = errors.New("prompt not found")
	ErrEmptyContent = errors.New("content is required")
	ErrInvalidType  = errors.New("invalid prompt type")
	ErrNoPrompts    = errors.New("no prompts found")
)
