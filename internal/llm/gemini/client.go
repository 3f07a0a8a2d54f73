package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// DefaultModel is used when LLM_MODEL is unset.
const DefaultModel = "gemini-2.5-flash"

const (
	analyzeMaxTokens = 2000
	suggestMaxTokens = 3000
)

// Client implements llm.Client using the Gemini API.
type Client struct {
	cli   *genai.Client
	model string
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cli: cli, model: model}, nil
}

// AnalyzePrompt runs the analysis contract against GenerateContent.
func (c *Client) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	return c.generate(ctx, "analyze", llm.AnalysisSystemPrompt(), llm.AnalyzeUserMessage(input), analyzeMaxTokens)
}

// SuggestRewrite runs the suggestion contract against GenerateContent.
func (c *Client) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	return c.generate(ctx, "suggest", llm.SuggestionSystemPrompt(), llm.SuggestUserMessage(input), suggestMaxTokens)
}

func (c *Client) generate(ctx context.Context, op, system, user string, maxTokens int32) (json.RawMessage, error) {
	if rawFix, hasFix := llm.FixJSONFromContext(ctx); hasFix {
		user = fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", rawFix)
	}
	llm.CapturePromptHash(ctx, "system: "+system+"\n\nuser: "+user)

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
			MaxOutputTokens:   maxTokens,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response empty content")
	}

	content := llm.ExtractJSON(resp.Candidates[0].Content.Parts[0].Text)
	if content == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"provider": "gemini",
		"model":    c.model,
		"op":       op,
	})

	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("invalid JSON from Gemini")
	}
	return json.RawMessage(content), nil
}

var _ llm.Client = (*Client)(nil)
