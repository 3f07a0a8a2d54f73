package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// DefaultModel is used when LLM_MODEL is unset.
const DefaultModel = "claude-sonnet-4-20250514"

const (
	analyzeMaxTokens = 2000
	suggestMaxTokens = 3000
)

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	client anthropic.Client
	model  string
}

// NewClient constructs a new Anthropic client. Extra options are passed
// through to the SDK.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  model,
	}, nil
}

// AnalyzePrompt runs the analysis contract against the Messages API.
func (c *Client) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	return c.complete(ctx, "analyze", llm.AnalysisSystemPrompt(), llm.AnalyzeUserMessage(input), analyzeMaxTokens)
}

// SuggestRewrite runs the suggestion contract against the Messages API.
func (c *Client) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	return c.complete(ctx, "suggest", llm.SuggestionSystemPrompt(), llm.SuggestUserMessage(input), suggestMaxTokens)
}

func (c *Client) complete(ctx context.Context, op, system, user string, maxTokens int64) (json.RawMessage, error) {
	if rawFix, hasFix := llm.FixJSONFromContext(ctx); hasFix {
		user = fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", rawFix)
	}
	llm.CapturePromptHash(ctx, "system: "+system+"\n\nuser: "+user)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := llm.ExtractJSON(text.String())
	if content == "" {
		return nil, fmt.Errorf("anthropic response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"provider":      "anthropic",
		"model":         c.model,
		"op":            op,
		"input_tokens":  message.Usage.InputTokens,
		"output_tokens": message.Usage.OutputTokens,
	})

	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("invalid JSON from Anthropic")
	}
	return json.RawMessage(content), nil
}

var _ llm.Client = (*Client)(nil)
