package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zachzeid/prompteval/internal/shared/util"
)

// Client abstracts LLM providers for prompt analysis and rewriting.
type Client interface {
	AnalyzePrompt(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
	SuggestRewrite(ctx context.Context, input SuggestInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for a prompt analysis call.
type AnalyzeInput struct {
	Content string
	Type    string
}

// SuggestInput captures the inputs needed for an improvement-suggestion call.
// Context carries a pre-rendered heuristic summary; FocusAreas narrows the
// request to specific dimensions.
type SuggestInput struct {
	Content    string
	Type       string
	Context    string
	FocusAreas []string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type promptHashSinkKey struct{}

// WithPromptHashSink returns a context that captures the hash of the rendered
// prompt into sink on the next provider call.
func WithPromptHashSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashSinkKey{}, sink)
}

// PromptHashSinkFromContext returns the capture target, if any.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	sink, ok := ctx.Value(promptHashSinkKey{}).(*string)
	return sink, ok
}

// CapturePromptHash records the rendered prompt's hash into the context sink,
// when one is set. Providers call this once per outbound request with their
// flattened role-prefixed message text.
func CapturePromptHash(ctx context.Context, prompt string) {
	if sink, ok := PromptHashSinkFromContext(ctx); ok && sink != nil {
		*sink = util.HashKey(prompt)
	}
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient is the default client when no provider is configured.
type PlaceholderClient struct{}

// AnalyzePrompt returns ErrNotConfigured.
func (PlaceholderClient) AnalyzePrompt(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

// SuggestRewrite returns ErrNotConfigured.
func (PlaceholderClient) SuggestRewrite(ctx context.Context, input SuggestInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

// TypeLabel names the prompt type the way the analysis contracts phrase it.
// Only true system prompts are labeled as such; skills read as user prompts.
func TypeLabel(promptType string) string {
	if promptType == "system" {
		return "system prompt"
	}
	return "user prompt"
}

// AnalyzeUserMessage renders the user message for an analysis call.
func AnalyzeUserMessage(input AnalyzeInput) string {
	return fmt.Sprintf("Analyze this %s:\n\n---\n%s\n---\n\nProvide your analysis in the specified JSON format.",
		TypeLabel(input.Type), input.Content)
}

// SuggestUserMessage renders the user message for a suggestion call.
func SuggestUserMessage(input SuggestInput) string {
	var focus string
	if len(input.FocusAreas) > 0 {
		focus = "\nFocus especially on improving: " + strings.Join(input.FocusAreas, ", ")
	}
	return fmt.Sprintf("Improve this %s:\n\n---\n%s\n---\n\n%s\n%s\n\nProvide specific improvements in the specified JSON format.",
		TypeLabel(input.Type), input.Content, input.Context, focus)
}

// ExtractJSON strips Markdown code fences around a JSON payload. Providers
// without a native JSON response mode wrap their output in ```json fences
// often enough that every response goes through this.
func ExtractJSON(text string) string {
	if strings.Contains(text, "```json") {
		after := strings.SplitN(text, "```json", 2)[1]
		return strings.TrimSpace(strings.SplitN(after, "```", 2)[0])
	}
	if strings.Contains(text, "```") {
		parts := strings.Split(text, "```")
		if len(parts) > 1 {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(text)
}
