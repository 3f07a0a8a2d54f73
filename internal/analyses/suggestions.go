package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/revisions"
	"github.com/zachzeid/prompteval/internal/shared/metrics"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// SuggestionResponse is the synchronous result of a suggestion run. The run
// is also recorded as a revision so its changes can be applied later.
type SuggestionResponse struct {
	PromptID    string             `json:"promptId"`
	RevisionID  string             `json:"revisionId,omitempty"`
	Original    string             `json:"original"`
	Suggested   string             `json:"suggested"`
	Explanation string             `json:"explanation"`
	Changes     []revisions.Change `json:"changes"`
}

type suggestionResult struct {
	Suggested   string             `json:"suggested"`
	Explanation string             `json:"explanation"`
	Changes     []revisions.Change `json:"changes"`
}

// GenerateSuggestions asks the provider to rewrite the prompt, seeding it
// with heuristic scores and the worst issues so the rewrite targets what the
// deterministic pass already flagged.
func (s *Service) GenerateSuggestions(ctx context.Context, promptID string, focusAreas []string) (SuggestionResponse, error) {
	p, err := s.Prompts.Get(ctx, promptID)
	if err != nil {
		return SuggestionResponse{}, err
	}
	if s.LLM == nil {
		return SuggestionResponse{}, llm.ErrNotConfigured
	}

	if s.Quota != nil {
		ok, _, err := s.Quota.CanConsume(ctx, 1)
		if err != nil {
			return SuggestionResponse{}, err
		}
		if !ok {
			return SuggestionResponse{}, quota.ErrLimitReached
		}
	}

	var heuristicContext string
	if s.Heuristics != nil {
		heuristicContext = buildSuggestionContext(s.Heuristics.Analyze(p))
	}

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	var promptHash string
	callCtx = llm.WithPromptHashSink(callCtx, &promptHash)

	input := llm.SuggestInput{
		Content:    p.Content,
		Type:       string(p.Type),
		Context:    heuristicContext,
		FocusAreas: focusAreas,
	}
	raw, err := s.LLM.SuggestRewrite(callCtx, input)
	if err != nil {
		return SuggestionResponse{}, fmt.Errorf("%w: llm suggest: %w", ErrProvider, err)
	}

	// Provider spend happened; count the unit even if parsing goes sideways.
	if s.Quota != nil {
		if _, err := s.Quota.Consume(ctx, 1); err != nil {
			return SuggestionResponse{}, err
		}
	}

	parsed, err := parseSuggestion(raw)
	if err != nil {
		raw, err = s.LLM.SuggestRewrite(llm.WithFixJSON(callCtx, string(raw)), input)
		if err != nil {
			return SuggestionResponse{}, fmt.Errorf("%w: llm suggest retry: %w", ErrProvider, err)
		}
		parsed, err = parseSuggestion(raw)
		if err != nil {
			return SuggestionResponse{}, fmt.Errorf("%w: llm output invalid: %w", ErrProvider, err)
		}
	}

	resp := SuggestionResponse{
		PromptID:    p.ID,
		Original:    p.Content,
		Suggested:   parsed.Suggested,
		Explanation: parsed.Explanation,
		Changes:     parsed.Changes,
	}
	if resp.Changes == nil {
		resp.Changes = []revisions.Change{}
	}

	if s.Revisions != nil {
		rev, err := s.Revisions.Record(ctx, p.ID, parsed.Suggested, parsed.Explanation, resp.Changes)
		if err != nil {
			return SuggestionResponse{}, err
		}
		resp.RevisionID = rev.ID
	}

	metrics.IncSuggestionRun()
	telemetry.Info("suggestion.complete", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"prompt_id":   p.ID,
		"revision_id": resp.RevisionID,
		"prompt_hash": promptHash,
		"changes":     len(resp.Changes),
	})
	return resp, nil
}

func parseSuggestion(raw json.RawMessage) (suggestionResult, error) {
	var parsed suggestionResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return suggestionResult{}, err
	}
	if strings.TrimSpace(parsed.Suggested) == "" {
		return suggestionResult{}, errors.New("missing suggested content")
	}
	return parsed, nil
}

// buildSuggestionContext renders heuristic results as provider context: the
// six scores, then up to ten issues from dimensions scoring below 70.
func buildSuggestionContext(report heuristics.HeuristicAnalysis) string {
	parts := []string{"Heuristic analysis scores:"}
	for _, dim := range report.Dimensions() {
		parts = append(parts, fmt.Sprintf("- %s: %d/100", displayDimName(dim.Name), dim.Score.Score))
	}

	var issues []string
	for _, dim := range report.Dimensions() {
		if dim.Score.Score >= 70 {
			continue
		}
		for _, issue := range dim.Score.Issues {
			issues = append(issues, fmt.Sprintf("- [%s] %s", dim.Name, issue.Message))
		}
	}
	if len(issues) > 0 {
		parts = append(parts, "\nIdentified issues:")
		if len(issues) > 10 {
			issues = issues[:10]
		}
		parts = append(parts, issues...)
	}
	return strings.Join(parts, "\n")
}

func displayDimName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
