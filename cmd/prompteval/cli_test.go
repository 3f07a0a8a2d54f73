package main

import (
	"strings"
	"testing"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/prompts"
)

func TestSampleFileParses(t *testing.T) {
	parsed := prompts.Parse(samplePrompts)
	if len(parsed.Prompts) != 3 {
		t.Fatalf("sample parses into %d prompts, want 3", len(parsed.Prompts))
	}
	if len(parsed.Warnings) != 0 {
		t.Fatalf("sample produced warnings: %+v", parsed.Warnings)
	}
	first := parsed.Prompts[0]
	if first.Type != prompts.TypeSystem || first.Name != "Assistant" {
		t.Fatalf("unexpected first prompt: type=%s name=%q", first.Type, first.Name)
	}
}

func TestPickPrompt(t *testing.T) {
	ps := []prompts.Prompt{
		{Name: "Assistant"},
		{Name: "Code Review"},
		{Name: "Summarization"},
	}

	p, ok := pickPrompt(ps, "")
	if !ok || p.Name != "Assistant" {
		t.Fatalf("default pick = %q ok=%v, want Assistant", p.Name, ok)
	}
	p, ok = pickPrompt(ps, "code review")
	if !ok || p.Name != "Code Review" {
		t.Fatalf("name pick = %q ok=%v, want Code Review", p.Name, ok)
	}
	p, ok = pickPrompt(ps, "3")
	if !ok || p.Name != "Summarization" {
		t.Fatalf("index pick = %q ok=%v, want Summarization", p.Name, ok)
	}
	if _, ok := pickPrompt(ps, "4"); ok {
		t.Fatalf("out-of-range index matched")
	}
	if _, ok := pickPrompt(ps, "nope"); ok {
		t.Fatalf("unknown name matched")
	}
}

func TestNormalizeFocus(t *testing.T) {
	if got := normalizeFocus([]string{" "}); got != nil {
		t.Fatalf("blank focus = %v, want nil", got)
	}
	got := normalizeFocus([]string{"clarity, specificity", "guardrails"})
	want := []string{"clarity", "specificity", "guardrails"}
	if len(got) != len(want) {
		t.Fatalf("focus areas = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("focus[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTruncate60(t *testing.T) {
	if got := truncate60("short"); got != "short" {
		t.Fatalf("short string changed: %q", got)
	}
	long := strings.Repeat("x", 80)
	if got := truncate60(long); len(got) != 60 {
		t.Fatalf("len = %d, want 60", len(got))
	}
}

func TestCollectIssuesAddsLineRefs(t *testing.T) {
	h := heuristics.HeuristicAnalysis{
		Clarity: heuristics.DimensionScore{Issues: []heuristics.Issue{
			{Message: "Ambiguous term found", Line: 4},
			{Message: "No line info"},
		}},
	}
	issues := collectIssues(h)
	if len(issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(issues))
	}
	if issues[0] != "Ambiguous term found (line 4)" {
		t.Fatalf("issue[0] = %q", issues[0])
	}
	if issues[1] != "No line info" {
		t.Fatalf("issue[1] = %q", issues[1])
	}
}
