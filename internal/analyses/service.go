package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/revisions"
	"github.com/zachzeid/prompteval/internal/shared/metrics"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// Service owns the analysis job lifecycle: submission, background execution
// against the LLM provider, polling, and synchronous suggestion runs. Quota
// is optional; leave it nil when the provider is a placeholder so dry runs
// never burn budget.
type Service struct {
	Repo       Repo
	Prompts    *prompts.Service
	Heuristics *heuristics.Service
	Revisions  *revisions.Service
	Quota      *quota.Service
	LLM        llm.Client
	Provider   string
	Model      string
	Timeout    time.Duration

	// MaxConcurrent caps simultaneously running jobs. Zero means 4.
	MaxConcurrent int

	slotOnce sync.Once
	slots    chan struct{}
}

// Submit validates the prompt, persists a pending job and kicks off
// asynchronous completion. It never blocks on the provider.
func (s *Service) Submit(ctx context.Context, promptID string) (Analysis, error) {
	p, err := s.Prompts.Get(ctx, promptID)
	if err != nil {
		return Analysis{}, err
	}

	if s.Quota != nil {
		ok, _, err := s.Quota.CanConsume(ctx, 1)
		if err != nil {
			return Analysis{}, err
		}
		if !ok {
			return Analysis{}, quota.ErrLimitReached
		}
	}

	analysis := Analysis{
		ID:        uuid.NewString(),
		PromptID:  p.ID,
		Status:    StatusPending,
		Provider:  s.Provider,
		Model:     s.Model,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, fmt.Errorf("store analysis: %w", err)
	}

	if s.Quota != nil {
		if _, err := s.Quota.Consume(ctx, 1); err != nil {
			return Analysis{}, err
		}
	}

	go s.completeAsync(backgroundWithRequestID(ctx), analysis.ID)

	return analysis, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (Analysis, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns jobs newest-first, optionally filtered by prompt.
func (s *Service) List(ctx context.Context, promptID string, limit, offset int) ([]Analysis, error) {
	return s.Repo.ListByPrompt(ctx, promptID, limit, offset)
}

func (s *Service) acquireSlot() {
	s.slotOnce.Do(func() {
		n := s.MaxConcurrent
		if n <= 0 {
			n = 4
		}
		s.slots = make(chan struct{}, n)
	})
	s.slots <- struct{}{}
}

func (s *Service) releaseSlot() {
	<-s.slots
}

// completeAsync drives one job from pending to a terminal state. Every
// failure path funnels through failAnalysis so the job never sticks in
// running.
func (s *Service) completeAsync(ctx context.Context, analysisID string) {
	var startedAt *time.Time
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	s.acquireSlot()
	defer s.releaseSlot()

	now := time.Now().UTC()
	startedAt = &now
	if err := s.Repo.MarkRunning(ctx, analysisID, now); err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("set running failed: %w", err), startedAt)
		return
	}
	metrics.IncJobStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"status":            StatusRunning,
		"status_transition": "pending->running",
	})

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("analysis lookup: %w", err), startedAt)
		return
	}
	p, err := s.Prompts.Get(ctx, analysis.PromptID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("prompt lookup id=%s: %w", analysis.PromptID, err), startedAt)
		return
	}
	if s.LLM == nil {
		s.failAnalysis(ctx, analysisID, errors.New("missing llm client"), startedAt)
		return
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	var promptHash string
	callCtx = llm.WithPromptHashSink(callCtx, &promptHash)

	client := newRetryingLLM(s.LLM, analysisID, requestIDFromContext(ctx))
	input := llm.AnalyzeInput{Content: p.Content, Type: string(p.Type)}

	raw, err := client.AnalyzePrompt(callCtx, input)
	if err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("llm analyze: %w", err), startedAt)
		return
	}

	result, err := normalizeResult(raw)
	if err != nil {
		// One repair pass: resend with the broken payload attached.
		raw, err = client.AnalyzePrompt(llm.WithFixJSON(callCtx, string(raw)), input)
		if err != nil {
			s.failAnalysis(ctx, analysisID, fmt.Errorf("llm analyze retry: %w", err), startedAt)
			return
		}
		result, err = normalizeResult(raw)
		if err != nil {
			s.failAnalysis(ctx, analysisID, fmt.Errorf("llm output invalid: %w", err), startedAt)
			return
		}
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.MarkCompleted(ctx, analysisID, result, completedAt); err != nil {
		s.failAnalysis(ctx, analysisID, fmt.Errorf("set analysis result failed: %w", err), startedAt)
		return
	}
	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(durationMs(startedAt, &completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"prompt_id":         analysis.PromptID,
		"prompt_hash":       promptHash,
		"status":            StatusCompleted,
		"status_transition": "running->completed",
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

// failAnalysis records a terminal failure. The write uses a fresh context so
// a cancelled or timed-out job context cannot also lose the failure record.
func (s *Service) failAnalysis(ctx context.Context, analysisID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.MarkFailed(context.Background(), analysisID, code, msg, retryable, completedAt); updateErr != nil {
		telemetry.Error("analysis.fail_write", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(updateErr),
			"cause":       msg,
		})
	}
	metrics.IncJobFailed()
	if startedAt != nil {
		metrics.ObserveJobDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"status":            StatusFailed,
		"status_transition": "running->failed",
		"failure_code":      code,
		"retryable":         retryable,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "request timeout") {
		return ErrorCodeTimeout, true
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeTimeout, true
	}
	if strings.Contains(msg, "invalid json") || strings.Contains(msg, "llm output invalid") || strings.Contains(msg, "schema") {
		return ErrorCodeSchemaMismatch, false
	}
	if strings.Contains(msg, "empty content") || strings.Contains(msg, "response missing") {
		return ErrorCodeSchemaMismatch, false
	}
	if strings.Contains(msg, "not configured") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "prompt lookup") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "validation") && !strings.Contains(msg, "llm") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "store analysis") || strings.Contains(msg, "analysis lookup") ||
		strings.Contains(msg, "set running") || strings.Contains(msg, "analysis result") ||
		strings.Contains(msg, "storage") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

// sanitizeError flattens an error into a single line capped at 500 bytes so
// raw provider detail never reaches pollers.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
