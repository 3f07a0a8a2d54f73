package heuristics

import (
	"reflect"
	"testing"

	"github.com/zachzeid/prompteval/internal/prompts"
)

func TestServiceCacheIsTransparent(t *testing.T) {
	svc := NewService(DefaultConfig())

	a := prompts.Prompt{ID: "prompt-a", Type: prompts.TypeSystem, Content: "You are terse. Respond in JSON. Never speculate.", LineStart: 1}
	b := a
	b.ID = "prompt-b"

	first := svc.Analyze(a)
	second := svc.Analyze(b)

	if second.PromptID != "prompt-b" {
		t.Fatalf("cache hit must rebind the prompt id, got %q", second.PromptID)
	}
	first.PromptID = ""
	second.PromptID = ""
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("hit and miss must produce identical reports:\n%+v\n%+v", first, second)
	}
}

func TestServiceDistinguishesTypes(t *testing.T) {
	svc := NewService(DefaultConfig())
	content := "Examine the patch and report defects."

	system := svc.Analyze(prompts.Prompt{ID: "s", Type: prompts.TypeSystem, Content: content, LineStart: 1})
	user := svc.Analyze(prompts.Prompt{ID: "u", Type: prompts.TypeUser, Content: content, LineStart: 1})

	if system.Guardrails.Score == user.Guardrails.Score {
		t.Fatal("same content with different types must not share cache entries")
	}
	if user.Guardrails.Score != 100 {
		t.Fatalf("user guardrails = %d, want 100", user.Guardrails.Score)
	}
}

func TestServiceConfigEcho(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinWordCount = 7
	svc := NewService(cfg)

	if got := svc.Config().MinWordCount; got != 7 {
		t.Fatalf("expected effective config echo, got %d", got)
	}
}
