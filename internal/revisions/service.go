package revisions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// Service manages stored suggestion runs and applies them to prompts.
type Service struct {
	Repo    Repo
	Prompts *prompts.Service
}

// Record stores a suggestion run for later inspection or apply.
func (s *Service) Record(ctx context.Context, promptID, suggested, explanation string, changes []Change) (Revision, error) {
	rev := Revision{
		ID:          uuid.NewString(),
		PromptID:    promptID,
		Suggested:   suggested,
		Explanation: explanation,
		Changes:     changes,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, rev); err != nil {
		return Revision{}, fmt.Errorf("store revision: %w", err)
	}
	return rev, nil
}

// Get returns a revision by id.
func (s *Service) Get(ctx context.Context, id string) (Revision, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns revisions newest-first, optionally filtered by prompt.
func (s *Service) List(ctx context.Context, promptID string, limit, offset int) ([]Revision, error) {
	return s.Repo.ListByPrompt(ctx, promptID, limit, offset)
}

// ApplyResult reports an apply run: what was replaced, what conflicted, and
// the prompt as it stands afterwards.
type ApplyResult struct {
	RevisionID string            `json:"revisionId"`
	PromptID   string            `json:"promptId"`
	Applied    int               `json:"applied"`
	Conflicts  int               `json:"conflicts"`
	Changes    []ChangeOutcome   `json:"changes"`
	Prompt     prompts.Prompt    `json:"prompt"`
	Warnings   []prompts.Warning `json:"warnings,omitempty"`
}

// Apply replays a revision's changes onto the prompt's current content.
// selected holds zero-based change indexes; empty means all. Each change must
// match its Original fragment exactly once in the working text or it is
// reported as a conflict and skipped. When at least one change lands the
// prompt is updated through the prompt store; when none do, ErrNothingApplied
// is returned alongside the outcomes.
func (s *Service) Apply(ctx context.Context, revisionID string, selected []int) (ApplyResult, error) {
	rev, err := s.Repo.GetByID(ctx, revisionID)
	if err != nil {
		return ApplyResult{}, err
	}
	p, err := s.Prompts.Get(ctx, rev.PromptID)
	if err != nil {
		return ApplyResult{}, err
	}

	picks, err := selectChanges(rev.Changes, selected)
	if err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{RevisionID: rev.ID, PromptID: rev.PromptID, Prompt: p}
	working := p.Content
	for _, idx := range picks {
		change := rev.Changes[idx]
		outcome := ChangeOutcome{Index: idx, Original: change.Original, Replacement: change.Replacement}
		switch n := strings.Count(working, change.Original); {
		case change.Original == "":
			outcome.Status = ChangeConflict
			outcome.Conflict = "original fragment is empty"
		case n == 0:
			outcome.Status = ChangeConflict
			outcome.Conflict = "original fragment not found in prompt"
		case n > 1:
			outcome.Status = ChangeConflict
			outcome.Conflict = fmt.Sprintf("original fragment occurs %d times", n)
		default:
			working = strings.Replace(working, change.Original, change.Replacement, 1)
			outcome.Status = ChangeApplied
		}
		if outcome.Status == ChangeConflict {
			result.Conflicts++
		} else {
			result.Applied++
		}
		result.Changes = append(result.Changes, outcome)
	}

	if result.Applied == 0 {
		return result, ErrNothingApplied
	}

	updated, warnings, err := s.Prompts.UpdateContent(ctx, p.ID, working)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("update prompt: %w", err)
	}
	result.Prompt = updated
	result.Warnings = warnings

	telemetry.Info("revision.applied", map[string]any{
		"revision_id": rev.ID,
		"prompt_id":   rev.PromptID,
		"applied":     result.Applied,
		"conflicts":   result.Conflicts,
	})
	return result, nil
}

// PruneOrphans deletes revisions whose prompt no longer exists.
func (s *Service) PruneOrphans(ctx context.Context) (int64, error) {
	ids, err := s.Repo.PromptIDs(ctx)
	if err != nil {
		return 0, err
	}
	var pruned int64
	for _, promptID := range ids {
		_, err := s.Prompts.Get(ctx, promptID)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return pruned, err
		}
		n, err := s.Repo.DeleteByPrompt(ctx, promptID)
		if err != nil {
			return pruned, err
		}
		pruned += n
	}
	return pruned, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, prompts.ErrNotFound)
}

func selectChanges(changes []Change, selected []int) ([]int, error) {
	if len(selected) == 0 {
		all := make([]int, len(changes))
		for i := range changes {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]bool)
	var picks []int
	for _, idx := range selected {
		if idx < 0 || idx >= len(changes) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrBadSelection, idx)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		picks = append(picks, idx)
	}
	return picks, nil
}
