package analyses

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for tests and databaseless runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Analysis
	order []string
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Analysis)}
}

var _ Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[analysis.ID]; !exists {
		r.order = append(r.order, analysis.ID)
	}
	r.byID[analysis.ID] = cloneAnalysis(analysis)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return cloneAnalysis(a), nil
}

// ListByPrompt returns jobs newest-first. An empty promptID lists all.
func (r *MemoryRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Analysis
	for i := len(r.order) - 1; i >= 0; i-- {
		a, ok := r.byID[r.order[i]]
		if !ok {
			continue
		}
		if promptID != "" && a.PromptID != promptID {
			continue
		}
		matched = append(matched, cloneAnalysis(a))
	}
	if offset >= len(matched) {
		return []Analysis{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.Status != StatusPending {
		return ErrNotFound
	}
	a.Status = StatusRunning
	a.StartedAt = &startedAt
	r.byID[id] = a
	return nil
}

func (r *MemoryRepo) MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.Status != StatusRunning {
		return ErrNotFound
	}
	a.Status = StatusCompleted
	a.Result = append(json.RawMessage(nil), result...)
	a.CompletedAt = &completedAt
	r.byID[id] = a
	return nil
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, id string, code, message string, retryable bool, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || IsTerminal(a.Status) {
		return ErrNotFound
	}
	a.Status = StatusFailed
	a.FailureCode = code
	a.FailureMessage = message
	a.Retryable = retryable
	a.CompletedAt = &completedAt
	r.byID[id] = a
	return nil
}

func (r *MemoryRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	kept := r.order[:0]
	for _, id := range r.order {
		a, ok := r.byID[id]
		if ok && IsTerminal(a.Status) && a.CompletedAt != nil && a.CompletedAt.Before(cutoff) {
			delete(r.byID, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}

func cloneAnalysis(a Analysis) Analysis {
	out := a
	if a.Result != nil {
		out.Result = append(json.RawMessage(nil), a.Result...)
	}
	if a.StartedAt != nil {
		t := *a.StartedAt
		out.StartedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
