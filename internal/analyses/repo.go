package analyses

import (
	"context"
	"encoding/json"
	"time"
)

// Repo abstracts analysis job persistence. The Mark methods enforce the job
// state machine: each one matches only the legal prior states and reports
// ErrNotFound when the row is missing or already terminal.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, id string) (Analysis, error)
	ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Analysis, error)
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string, code, message string, retryable bool, completedAt time.Time) error
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
