package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zachzeid/prompteval/internal/bootstrap"
	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/config"
)

// fail prints a message to stderr and exits non-zero.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadRules resolves the rule configuration for a command, falling back to
// the built-in defaults when no --config flag was given.
func loadRules(path string) (heuristics.RuleConfig, error) {
	if strings.TrimSpace(path) == "" {
		return heuristics.DefaultConfig(), nil
	}
	return heuristics.LoadFile(path)
}

func parsePromptFile(path string) (prompts.ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return prompts.ParseResult{}, err
	}
	return prompts.ParseFile(string(raw), filepath.Base(path)), nil
}

func badge(t prompts.Type) string {
	if t == prompts.TypeSystem {
		return "[SYS]"
	}
	return "[USR]"
}

// truncate60 returns the head of a string for change previews.
func truncate60(s string) string {
	r := []rune(s)
	if len(r) > 60 {
		r = r[:60]
	}
	return string(r)
}

// mustLLMClient builds the provider client from the environment, exiting
// when no real provider is configured.
func mustLLMClient() (llm.Client, time.Duration) {
	cfg := config.Load()
	if cfg.LLMProvider == "placeholder" {
		fail("Error: LLM_PROVIDER not set. Set it to openai, anthropic, or gemini along with the provider API key.")
	}
	client, _, err := bootstrap.BuildLLM(context.Background(), cfg)
	if err != nil {
		fail("Error: %v", err)
	}
	return client, time.Duration(cfg.LLMTimeoutSeconds) * time.Second
}

// llmReport is the display subset of a provider analysis payload.
type llmReport struct {
	Ambiguities        []string `json:"ambiguities"`
	MissingContext     []string `json:"missing_context"`
	InjectionRisks     []string `json:"injection_risks"`
	BestPracticeIssues []string `json:"best_practice_issues"`
}

// collectIssues flattens dimension issues into display lines in report order.
func collectIssues(h heuristics.HeuristicAnalysis) []string {
	var out []string
	for _, dim := range h.Dimensions() {
		for _, issue := range dim.Score.Issues {
			ref := ""
			if issue.Line > 0 {
				ref = fmt.Sprintf(" (line %d)", issue.Line)
			}
			out = append(out, issue.Message+ref)
		}
	}
	return out
}

func collectSuggestions(h heuristics.HeuristicAnalysis) []string {
	var out []string
	for _, dim := range h.Dimensions() {
		out = append(out, dim.Score.Suggestions...)
	}
	return out
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("Error writing %s: %v", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		fail("Error writing %s: %v", path, err)
	}
}
