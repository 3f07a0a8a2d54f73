package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/revisions"
)

const validAnalysisJSON = `{
  "ambiguities": ["what does soon mean"],
  "missing_context": [],
  "injection_risks": [],
  "best_practice_issues": ["no output format"],
  "suggested_revision": "Reply within one business day.",
  "revision_explanation": "pins down the deadline"
}`

type staticLLM struct {
	analyzeResp string
	suggestResp string
}

func (s staticLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return json.RawMessage(s.analyzeResp), nil
}

func (s staticLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return json.RawMessage(s.suggestResp), nil
}

type timeoutLLM struct{}

func (timeoutLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, context.DeadlineExceeded
}

func (timeoutLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, context.DeadlineExceeded
}

type failingLLM struct {
	err error
}

func (f failingLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, f.err
}

func (f failingLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, f.err
}

// repairingLLM returns broken output until asked for a repair via the
// fix-JSON context.
type repairingLLM struct {
	calls  *int
	broken string
	fixed  string
}

func (r repairingLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = input
	*r.calls++
	if _, ok := llm.FixJSONFromContext(ctx); ok {
		return json.RawMessage(r.fixed), nil
	}
	return json.RawMessage(r.broken), nil
}

func (r repairingLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, errors.New("not used")
}

type recordingSuggestLLM struct {
	resp  string
	input *llm.SuggestInput
}

func (r *recordingSuggestLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, errors.New("not used")
}

func (r *recordingSuggestLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	_ = ctx
	in := input
	r.input = &in
	return json.RawMessage(r.resp), nil
}

func setupService(t *testing.T, client llm.Client) (*Service, *MemoryRepo, prompts.Prompt) {
	t.Helper()
	promptSvc := &prompts.Service{Repo: prompts.NewMemoryRepo()}
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:       repo,
		Prompts:    promptSvc,
		Heuristics: heuristics.NewService(heuristics.DefaultConfig()),
		Revisions:  &revisions.Service{Repo: revisions.NewMemoryRepo(), Prompts: promptSvc},
		LLM:        client,
		Provider:   "openai",
		Model:      "gpt-4o-mini",
	}

	p, err := promptSvc.CreateInline(context.Background(), "Summarize the report and list action items.", "user", "summarize")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	return svc, repo, p
}

func seedPending(t *testing.T, repo *MemoryRepo, promptID string) Analysis {
	t.Helper()
	analysis := Analysis{
		ID:        "analysis-" + promptID,
		PromptID:  promptID,
		Status:    StatusPending,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	return analysis
}

func waitForStatus(t *testing.T, repo Repo, id, status string) Analysis {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a, err := repo.GetByID(context.Background(), id)
		if err == nil && a.Status == status {
			return a
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("analysis %s never reached status %s", id, status)
	return Analysis{}
}

func TestSubmitRejectsUnknownPrompt(t *testing.T) {
	svc, _, _ := setupService(t, staticLLM{analyzeResp: validAnalysisJSON})

	_, err := svc.Submit(context.Background(), "missing-prompt")
	if !errors.Is(err, prompts.ErrNotFound) {
		t.Fatalf("expected prompts.ErrNotFound, got %v", err)
	}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	svc, repo, p := setupService(t, staticLLM{analyzeResp: validAnalysisJSON})
	svc.Quota = quota.NewService(10)

	analysis, err := svc.Submit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if analysis.Status != StatusPending {
		t.Fatalf("status = %s, want pending", analysis.Status)
	}

	got := waitForStatus(t, repo, analysis.ID, StatusCompleted)
	if got.Result == nil {
		t.Fatal("completed job has no result")
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatal("timestamps not set on completion")
	}

	snap, err := svc.Quota.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("quota snapshot: %v", err)
	}
	if snap.Used != 1 {
		t.Fatalf("quota used = %d, want 1", snap.Used)
	}
}

func TestSubmitBlockedByQuota(t *testing.T) {
	svc, _, p := setupService(t, staticLLM{analyzeResp: validAnalysisJSON})
	svc.Quota = quota.NewService(1)
	if _, err := svc.Quota.Consume(context.Background(), 1); err != nil {
		t.Fatalf("consume: %v", err)
	}

	_, err := svc.Submit(context.Background(), p.ID)
	if !errors.Is(err, quota.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestCompleteAsyncStoresNormalizedResult(t *testing.T) {
	svc, repo, p := setupService(t, staticLLM{analyzeResp: `{"ambiguities": ["vague deadline"], "suggested_revision": "be precise"}`})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed (failure: %s %s)", got.Status, got.FailureCode, got.FailureMessage)
	}

	var result AnalysisResult
	if err := json.Unmarshal(got.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Ambiguities) != 1 || result.Ambiguities[0] != "vague deadline" {
		t.Fatalf("ambiguities = %+v", result.Ambiguities)
	}
	// Fields the provider omitted come back as empty lists, not null.
	if result.MissingContext == nil || result.InjectionRisks == nil || result.BestPracticeIssues == nil {
		t.Fatalf("missing list fields not normalized: %+v", result)
	}
	if result.SuggestedRevision != "be precise" {
		t.Fatalf("suggested_revision = %q", result.SuggestedRevision)
	}
}

func TestCompleteAsyncRepairsInvalidJSON(t *testing.T) {
	calls := 0
	svc, repo, p := setupService(t, repairingLLM{calls: &calls, broken: `{"ambiguities": [`, fixed: validAnalysisJSON})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed (failure: %s %s)", got.Status, got.FailureCode, got.FailureMessage)
	}
	if calls != 2 {
		t.Fatalf("provider calls = %d, want 2", calls)
	}
}

func TestCompleteAsyncSchemaMismatch(t *testing.T) {
	svc, repo, p := setupService(t, staticLLM{analyzeResp: `["not", "an", "object"]`})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.FailureCode != ErrorCodeSchemaMismatch {
		t.Fatalf("failure code = %s, want %s", got.FailureCode, ErrorCodeSchemaMismatch)
	}
	if got.Retryable {
		t.Fatal("schema mismatch should not be retryable")
	}
	if strings.ContainsAny(got.FailureMessage, "\n\r") {
		t.Fatalf("failure message not single-line: %q", got.FailureMessage)
	}
}

func TestFailureCodeTimeout(t *testing.T) {
	svc, repo, p := setupService(t, timeoutLLM{})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.FailureCode != ErrorCodeTimeout {
		t.Fatalf("failure code = %s, want %s", got.FailureCode, ErrorCodeTimeout)
	}
	if !got.Retryable {
		t.Fatal("timeout should be retryable")
	}
}

func TestFailureCodeNotConfigured(t *testing.T) {
	svc, repo, p := setupService(t, llm.PlaceholderClient{})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.FailureCode != ErrorCodeValidation {
		t.Fatalf("failure code = %s, want %s", got.FailureCode, ErrorCodeValidation)
	}
}

func TestTerminalJobIsImmutable(t *testing.T) {
	svc, repo, p := setupService(t, staticLLM{analyzeResp: validAnalysisJSON})
	analysis := seedPending(t, repo, p.ID)

	svc.completeAsync(context.Background(), analysis.ID)
	first, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if first.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", first.Status)
	}

	// A second execution attempt must not touch the terminal record.
	svc.completeAsync(context.Background(), analysis.ID)
	second, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if second.Status != StatusCompleted {
		t.Fatalf("terminal status changed to %s", second.Status)
	}
	if string(second.Result) != string(first.Result) {
		t.Fatal("terminal result changed")
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatal("terminal completedAt changed")
	}
}

func TestGenerateSuggestionsSeedsHeuristicContext(t *testing.T) {
	client := &recordingSuggestLLM{resp: `{"suggested": "Do the thing with a checklist.", "explanation": "adds structure", "changes": [{"original": "do stuff", "replacement": "follow the checklist", "reason": "specific"}]}`}
	svc, _, _ := setupService(t, client)

	p, err := svc.Prompts.CreateInline(context.Background(), "do stuff", "user", "vague")
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}

	resp, err := svc.GenerateSuggestions(context.Background(), p.ID, []string{"clarity", "structure"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if client.input == nil {
		t.Fatal("provider never called")
	}
	if !strings.HasPrefix(client.input.Context, "Heuristic analysis scores:") {
		t.Fatalf("context missing score header: %q", client.input.Context)
	}
	if !strings.Contains(client.input.Context, "- Clarity: ") {
		t.Fatalf("context missing clarity line: %q", client.input.Context)
	}
	if len(client.input.FocusAreas) != 2 || client.input.FocusAreas[0] != "clarity" {
		t.Fatalf("focus areas = %+v", client.input.FocusAreas)
	}

	if resp.Original != "do stuff" {
		t.Fatalf("original = %q", resp.Original)
	}
	if resp.Suggested != "Do the thing with a checklist." {
		t.Fatalf("suggested = %q", resp.Suggested)
	}
	if len(resp.Changes) != 1 || resp.Changes[0].Replacement != "follow the checklist" {
		t.Fatalf("changes = %+v", resp.Changes)
	}
	if resp.RevisionID == "" {
		t.Fatal("suggestion not recorded as a revision")
	}
	rev, err := svc.Revisions.Get(context.Background(), resp.RevisionID)
	if err != nil {
		t.Fatalf("load revision: %v", err)
	}
	if rev.PromptID != p.ID || len(rev.Changes) != 1 {
		t.Fatalf("revision = %+v", rev)
	}
}

func TestGenerateSuggestionsProviderError(t *testing.T) {
	svc, _, p := setupService(t, failingLLM{err: errors.New("openai error: boom (server_error)")})

	_, err := svc.GenerateSuggestions(context.Background(), p.ID, nil)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestGenerateSuggestionsNotConfigured(t *testing.T) {
	svc, _, p := setupService(t, llm.PlaceholderClient{})

	_, err := svc.GenerateSuggestions(context.Background(), p.ID, nil)
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBuildSuggestionContextCapsIssues(t *testing.T) {
	low := heuristics.DimensionScore{Score: 40}
	for i := 0; i < 8; i++ {
		low.Issues = append(low.Issues, heuristics.Issue{Message: "problem"})
	}
	report := heuristics.HeuristicAnalysis{
		Clarity:      low,
		Specificity:  low,
		Structure:    heuristics.DimensionScore{Score: 90, Issues: []heuristics.Issue{{Message: "ignored"}}},
		Completeness: heuristics.DimensionScore{Score: 80},
		OutputFormat: heuristics.DimensionScore{Score: 80},
		Guardrails:   heuristics.DimensionScore{Score: 100},
	}

	got := buildSuggestionContext(report)

	if !strings.Contains(got, "- Output Format: 80/100") {
		t.Fatalf("missing display name line:\n%s", got)
	}
	if !strings.Contains(got, "\n\nIdentified issues:") {
		t.Fatalf("issues header not preceded by blank line:\n%s", got)
	}
	if n := strings.Count(got, "- [clarity] problem"); n != 8 {
		t.Fatalf("clarity issues = %d, want 8", n)
	}
	// Ten issue lines total: eight clarity plus the first two specificity.
	if n := strings.Count(got, "problem"); n != 10 {
		t.Fatalf("issue lines = %d, want 10", n)
	}
	if strings.Contains(got, "ignored") {
		t.Fatal("issues from high-scoring dimensions leaked into context")
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      string
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, ErrorCodeTimeout, true},
		{"request timeout", errors.New("openai request timeout: context deadline exceeded"), ErrorCodeTimeout, true},
		{"invalid json", errors.New("invalid JSON from Anthropic"), ErrorCodeSchemaMismatch, false},
		{"schema", errors.New("llm output invalid: cannot unmarshal"), ErrorCodeSchemaMismatch, false},
		{"empty content", errors.New("openai response empty content"), ErrorCodeSchemaMismatch, false},
		{"not configured", errors.New("llm analyze: llm provider not configured"), ErrorCodeValidation, false},
		{"prompt missing", errors.New("prompt lookup id=x: prompt not found"), ErrorCodeValidation, false},
		{"storage", errors.New("set analysis result failed: connection closed"), ErrorCodeStorage, true},
		{"unknown", errors.New("something odd"), ErrorCodeInternal, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, retryable := classifyFailure(tc.err)
			if code != tc.code || retryable != tc.retryable {
				t.Fatalf("classifyFailure(%v) = %s/%v, want %s/%v", tc.err, code, retryable, tc.code, tc.retryable)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	err := errors.New("line one\nline two\r\nline three")
	got := sanitizeError(err)
	if strings.ContainsAny(got, "\n\r") {
		t.Fatalf("still multi-line: %q", got)
	}

	long := errors.New(strings.Repeat("x", 600))
	if n := len(sanitizeError(long)); n != 500 {
		t.Fatalf("len = %d, want 500", n)
	}
}
