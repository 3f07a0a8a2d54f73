package analyses

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// IsTerminal reports whether a job status can no longer change.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Analysis is one asynchronous LLM analysis job for a prompt. Result is set
// only when completed; the failure fields only when failed. Terminal records
// never change again.
type Analysis struct {
	ID             string          `json:"id"`
	PromptID       string          `json:"promptId"`
	Status         string          `json:"status"`
	Provider       string          `json:"provider,omitempty"`
	Model          string          `json:"model,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	FailureCode    string          `json:"failureCode,omitempty"`
	FailureMessage string          `json:"failureMessage,omitempty"`
	Retryable      bool            `json:"retryable,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// AnalysisResult is the validated shape of a completed analysis. Keys are snake_case
// on the wire because that is the contract the provider system prompt asks
// for.
type AnalysisResult struct {
	Ambiguities         []string `json:"ambiguities"`
	MissingContext      []string `json:"missing_context"`
	InjectionRisks      []string `json:"injection_risks"`
	BestPracticeIssues  []string `json:"best_practice_issues"`
	SuggestedRevision   string   `json:"suggested_revision,omitempty"`
	RevisionExplanation string   `json:"revision_explanation,omitempty"`
}

// normalizeResult parses raw provider output into the analysis contract and
// re-marshals it canonically. Missing list fields become empty lists; a
// payload that is not an object with the expected shapes is an error.
func normalizeResult(raw json.RawMessage) (json.RawMessage, error) {
	var parsed AnalysisResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	if parsed.Ambiguities == nil {
		parsed.Ambiguities = []string{}
	}
	if parsed.MissingContext == nil {
		parsed.MissingContext = []string{}
	}
	if parsed.InjectionRisks == nil {
		parsed.InjectionRisks = []string{}
	}
	if parsed.BestPracticeIssues == nil {
		parsed.BestPracticeIssues = []string{}
	}
	return json.Marshal(parsed)
}
