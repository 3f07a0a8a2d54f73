package prompts

import (
	"context"
	"sync"
)

// MemoryRepo stores prompts in memory, preserving insertion order, and is
// safe for concurrent use.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Prompt
	order []string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Prompt)}
}

// Create stores the prompt.
func (r *MemoryRepo) Create(ctx context.Context, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = p
	return nil
}

// GetByID returns a prompt by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	if err := ctx.Err(); err != nil {
		return Prompt{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Prompt{}, ErrNotFound
	}
	return p, nil
}

// List returns all prompts in insertion (document) order.
func (r *MemoryRepo) List(ctx context.Context) ([]Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Prompt, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Update replaces an existing prompt.
func (r *MemoryRepo) Update(ctx context.Context, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

// Delete removes a prompt by ID.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteBySource removes all prompts extracted from one source document and
// returns how many were removed.
func (r *MemoryRepo) DeleteBySource(ctx context.Context, sourceDocumentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if sourceDocumentID == "" {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	kept := r.order[:0]
	for _, id := range r.order {
		p, ok := r.byID[id]
		if ok && p.SourceDocumentID == sourceDocumentID {
			delete(r.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed, nil
}

// Clear removes every prompt.
func (r *MemoryRepo) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]Prompt)
	r.order = nil
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
