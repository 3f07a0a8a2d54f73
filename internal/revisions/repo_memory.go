package revisions

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and databaseless runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Revision
	order []string
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Revision)}
}

var _ Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) Create(ctx context.Context, rev Revision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[rev.ID]; !exists {
		r.order = append(r.order, rev.ID)
	}
	r.byID[rev.ID] = cloneRevision(rev)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return Revision{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rev, ok := r.byID[id]
	if !ok {
		return Revision{}, ErrNotFound
	}
	return cloneRevision(rev), nil
}

// ListByPrompt returns revisions newest-first. An empty promptID lists all.
func (r *MemoryRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Revision
	for i := len(r.order) - 1; i >= 0; i-- {
		rev, ok := r.byID[r.order[i]]
		if !ok {
			continue
		}
		if promptID != "" && rev.PromptID != promptID {
			continue
		}
		matched = append(matched, cloneRevision(rev))
	}
	if offset >= len(matched) {
		return []Revision{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) PromptIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for _, id := range r.order {
		rev, ok := r.byID[id]
		if !ok || seen[rev.PromptID] {
			continue
		}
		seen[rev.PromptID] = true
		ids = append(ids, rev.PromptID)
	}
	return ids, nil
}

func (r *MemoryRepo) DeleteByPrompt(ctx context.Context, promptID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	kept := r.order[:0]
	for _, id := range r.order {
		rev, ok := r.byID[id]
		if ok && rev.PromptID == promptID {
			delete(r.byID, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}

func cloneRevision(rev Revision) Revision {
	out := rev
	if rev.Changes != nil {
		out.Changes = append([]Change(nil), rev.Changes...)
	}
	return out
}
