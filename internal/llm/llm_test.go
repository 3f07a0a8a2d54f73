package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `  {"a":1}  `, want: `{"a":1}`},
		{name: "json fence", in: "Here you go:\n```json\n{\"a\":1}\n```\nDone.", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "unterminated fence", in: "```json\n{\"a\":1}", want: `{"a":1}`},
		{name: "no json", in: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Fatalf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeLabel(t *testing.T) {
	if got := TypeLabel("system"); got != "system prompt" {
		t.Fatalf("system label = %q", got)
	}
	if got := TypeLabel("user"); got != "user prompt" {
		t.Fatalf("user label = %q", got)
	}
	if got := TypeLabel("skill"); got != "user prompt" {
		t.Fatalf("skill label = %q", got)
	}
}

func TestAnalyzeUserMessage(t *testing.T) {
	msg := AnalyzeUserMessage(AnalyzeInput{Content: "Do the thing.", Type: "system"})

	if !strings.HasPrefix(msg, "Analyze this system prompt:\n\n---\nDo the thing.\n---\n") {
		t.Fatalf("unexpected message prefix:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "Provide your analysis in the specified JSON format.") {
		t.Fatalf("unexpected message suffix:\n%s", msg)
	}
}

func TestSuggestUserMessageIncludesContextAndFocus(t *testing.T) {
	msg := SuggestUserMessage(SuggestInput{
		Content:    "Do the thing.",
		Type:       "user",
		Context:    "Heuristic analysis scores:\n- Clarity: 40/100",
		FocusAreas: []string{"clarity", "structure"},
	})

	if !strings.Contains(msg, "Improve this user prompt:") {
		t.Fatalf("missing type label:\n%s", msg)
	}
	if !strings.Contains(msg, "Heuristic analysis scores:") {
		t.Fatalf("missing heuristic context:\n%s", msg)
	}
	if !strings.Contains(msg, "Focus especially on improving: clarity, structure") {
		t.Fatalf("missing focus instruction:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "Provide specific improvements in the specified JSON format.") {
		t.Fatalf("unexpected suffix:\n%s", msg)
	}
}

func TestSuggestUserMessageWithoutExtras(t *testing.T) {
	msg := SuggestUserMessage(SuggestInput{Content: "Do the thing.", Type: "user"})

	if strings.Contains(msg, "Focus especially") {
		t.Fatalf("focus instruction should be absent:\n%s", msg)
	}
	if !strings.Contains(msg, "---\nDo the thing.\n---") {
		t.Fatalf("content not delimited:\n%s", msg)
	}
}

func TestPlaceholderClient(t *testing.T) {
	var client Client = PlaceholderClient{}

	if _, err := client.AnalyzePrompt(context.Background(), AnalyzeInput{Content: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("AnalyzePrompt err = %v, want ErrNotConfigured", err)
	}
	if _, err := client.SuggestRewrite(context.Background(), SuggestInput{Content: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("SuggestRewrite err = %v, want ErrNotConfigured", err)
	}
}

func TestFixJSONContextRoundTrip(t *testing.T) {
	if _, ok := FixJSONFromContext(context.Background()); ok {
		t.Fatal("plain context must not carry fix JSON")
	}
	ctx := WithFixJSON(context.Background(), `{"broken":`)
	raw, ok := FixJSONFromContext(ctx)
	if !ok || raw != `{"broken":` {
		t.Fatalf("got %q, %v", raw, ok)
	}
}

func TestCapturePromptHash(t *testing.T) {
	var hash string
	ctx := WithPromptHashSink(context.Background(), &hash)

	CapturePromptHash(ctx, "system: a\n\nuser: b")
	if hash == "" {
		t.Fatal("expected hash to be captured")
	}

	first := hash
	CapturePromptHash(ctx, "system: a\n\nuser: c")
	if hash == first {
		t.Fatal("different prompts must hash differently")
	}

	// No sink: must not panic.
	CapturePromptHash(context.Background(), "system: a")
}
