package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// apiURL is a var so tests can point the client at a local server.
var apiURL = "https://api.openai.com/v1/chat/completions"

const systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzePrompt runs the analysis contract against Chat Completions.
func (c *Client) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	messages := []chatMessage{
		{Role: "system", Content: llm.AnalysisSystemPrompt()},
		{Role: "user", Content: llm.AnalyzeUserMessage(input)},
	}
	return c.complete(ctx, "analyze", llm.AnalysisSystemPrompt(), messages)
}

// SuggestRewrite runs the suggestion contract against Chat Completions.
func (c *Client) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	messages := []chatMessage{
		{Role: "system", Content: llm.SuggestionSystemPrompt()},
		{Role: "user", Content: llm.SuggestUserMessage(input)},
	}
	return c.complete(ctx, "suggest", llm.SuggestionSystemPrompt(), messages)
}

func (c *Client) complete(ctx context.Context, op, contract string, messages []chatMessage) (json.RawMessage, error) {
	if rawFix, hasFix := llm.FixJSONFromContext(ctx); hasFix {
		return c.completeFix(ctx, op, contract, []byte(rawFix))
	}

	raw, usage, err := c.completeOnce(ctx, messages)
	if err != nil {
		return nil, err
	}
	c.logUsage(op, usage)

	if json.Valid(raw) {
		return raw, nil
	}

	raw, usage, err = c.completeOnce(ctx, buildFixMessages(contract, raw))
	if err != nil {
		return nil, err
	}
	c.logUsage(op, usage)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return raw, nil
}

func (c *Client) completeFix(ctx context.Context, op, contract string, raw []byte) (json.RawMessage, error) {
	rawResp, usage, err := c.completeOnce(ctx, buildFixMessages(contract, raw))
	if err != nil {
		return nil, err
	}
	c.logUsage(op, usage)
	if !json.Valid(rawResp) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return rawResp, nil
}

func buildFixMessages(contract string, raw []byte) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: contract},
		{Role: "user", Content: fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))},
	}
}

// completeOnce sends one request, retrying once without temperature when the
// model rejects the pinned value.
func (c *Client) completeOnce(ctx context.Context, messages []chatMessage) (json.RawMessage, *chatResponseUsage, error) {
	includeTemp := !c.omitTemperature()
	raw, usage, err := c.send(ctx, messages, includeTemp)
	if err != nil && includeTemp && isTemperatureUnsupported(err) {
		return c.send(ctx, messages, false)
	}
	return raw, usage, err
}

func (c *Client) send(ctx context.Context, messages []chatMessage, includeTemp bool) (json.RawMessage, *chatResponseUsage, error) {
	llm.CapturePromptHash(ctx, promptStringFromMessages(messages))

	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: responseFormat{
			Type: "json_object",
		},
	}
	if includeTemp {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, nil, fmt.Errorf("openai response empty content")
	}
	return json.RawMessage(content), toUsage(parsed.Usage), nil
}

type chatResponseUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func toUsage(raw *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) *chatResponseUsage {
	if raw == nil {
		return nil
	}
	return &chatResponseUsage{
		PromptTokens:     raw.PromptTokens,
		CompletionTokens: raw.CompletionTokens,
		TotalTokens:      raw.TotalTokens,
	}
}

func (c *Client) logUsage(op string, usage *chatResponseUsage) {
	fields := map[string]any{
		"provider": "openai",
		"model":    c.model,
		"op":       op,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

// omitTemperature reports whether the model rejects an explicit temperature.
// gpt-5 family models only accept the default; LLM_NO_TEMP0_MODELS extends
// the denylist without a rebuild.
func (c *Client) omitTemperature() bool {
	if isGPT5(c.model) {
		return true
	}
	for _, m := range strings.Split(os.Getenv("LLM_NO_TEMP0_MODELS"), ",") {
		if m = strings.TrimSpace(m); m != "" && strings.EqualFold(m, c.model) {
			return true
		}
	}
	return false
}

func isTemperatureUnsupported(err error) bool {
	return err != nil && strings.Contains(err.Error(), "'temperature' does not support")
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func promptStringFromMessages(messages []chatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

var _ llm.Client = (*Client)(nil)
