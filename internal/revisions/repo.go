package revisions

import "context"

// Repo abstracts revision persistence.
type Repo interface {
	Create(ctx context.Context, rev Revision) error
	GetByID(ctx context.Context, id string) (Revision, error)
	ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Revision, error)
	PromptIDs(ctx context.Context) ([]string, error)
	DeleteByPrompt(ctx context.Context, promptID string) (int64, error)
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
