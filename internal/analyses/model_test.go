package analyses

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeResultFillsMissingLists(t *testing.T) {
	out, err := normalizeResult([]byte(`{"ambiguities": ["vague audience"]}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var parsed AnalysisResult
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(parsed.Ambiguities) != 1 || parsed.Ambiguities[0] != "vague audience" {
		t.Fatalf("ambiguities = %v", parsed.Ambiguities)
	}
	if parsed.MissingContext == nil || parsed.InjectionRisks == nil || parsed.BestPracticeIssues == nil {
		t.Fatalf("lists not defaulted: %+v", parsed)
	}
	for _, key := range []string{"missing_context", "injection_risks", "best_practice_issues"} {
		if !strings.Contains(string(out), `"`+key+`":[]`) {
			t.Fatalf("canonical output missing %s: %s", key, out)
		}
	}
}

func TestNormalizeResultDropsUnknownKeys(t *testing.T) {
	out, err := normalizeResult([]byte(`{"ambiguities": [], "confidence": 0.9}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if strings.Contains(string(out), "confidence") {
		t.Fatalf("unknown key survived: %s", out)
	}
}

func TestNormalizeResultRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`["just", "a", "list"]`, `"text"`, `42`} {
		if _, err := normalizeResult([]byte(raw)); err == nil {
			t.Fatalf("normalize(%s) succeeded, want error", raw)
		}
	}
}

func TestNormalizeResultRejectsWrongFieldType(t *testing.T) {
	if _, err := normalizeResult([]byte(`{"ambiguities": "should be a list"}`)); err == nil {
		t.Fatal("expected type error")
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusFailed:    true,
	} {
		if got := IsTerminal(status); got != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}
