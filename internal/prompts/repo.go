package prompts

import "context"

// Repo stores prompts for the lifetime of a session.
type Repo interface {
	Create(ctx context.Context, p Prompt) error
	GetByID(ctx context.Context, id string) (Prompt, error)
	List(ctx context.Context) ([]Prompt, error)
	Update(ctx context.Context, p Prompt) error
	Delete(ctx context.Context, id string) error
	DeleteBySource(ctx context.Context, sourceDocumentID string) (int, error)
	Clear(ctx context.Context) error
}
