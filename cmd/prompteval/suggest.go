package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zachzeid/prompteval/internal/analyses"
	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/prompts"
)

var (
	suggestPrompt string
	suggestFocus  []string
	suggestConfig string
	suggestOutput string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Generate LLM-powered improvement suggestions for a prompt",
	Long: `Ask the configured provider to rewrite a prompt, seeded with its heuristic
scores. The target defaults to the first prompt in the file.

Examples:
  prompteval suggest prompts.md
  prompteval suggest prompts.md --prompt "Code Review" --focus clarity,specificity
  prompteval suggest prompts.md --prompt 2 --output improved.md
`,
	Args: cobra.ExactArgs(1),
	Run:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestPrompt, "prompt", "p", "", "Prompt to improve: name or 1-based index (default: first prompt)")
	suggestCmd.Flags().StringSliceVarP(&suggestFocus, "focus", "f", nil, "Focus areas, repeatable or comma-separated (e.g., 'clarity,specificity')")
	suggestCmd.Flags().StringVarP(&suggestConfig, "config", "c", "", "Custom rules config file (YAML)")
	suggestCmd.Flags().StringVarP(&suggestOutput, "output", "o", "", "Output file for the suggested prompt")
}

func runSuggest(cmd *cobra.Command, args []string) {
	file := args[0]

	client, timeout := mustLLMClient()

	if suggestConfig != "" {
		fmt.Printf("Loading config: %s\n", suggestConfig)
	}
	rules, err := loadRules(suggestConfig)
	if err != nil {
		fail("Error loading config: %v", err)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		fail("Error reading file: %v", err)
	}

	// Store the parsed prompts in a throwaway memory repo so the suggestion
	// run sees them exactly as the server would.
	ctx := context.Background()
	promptSvc := &prompts.Service{Repo: prompts.NewMemoryRepo()}
	parsed, err := promptSvc.ParseAndStore(ctx, string(raw), filepath.Base(file), "")
	if err != nil {
		if len(parsed.Prompts) == 0 {
			fail("No prompts found in file.")
		}
		fail("Error parsing file: %v", err)
	}

	target, ok := pickPrompt(parsed.Prompts, suggestPrompt)
	if !ok {
		fmt.Fprintf(os.Stderr, "Prompt '%s' not found.\n", suggestPrompt)
		fmt.Println("Available prompts:")
		for _, p := range parsed.Prompts {
			fmt.Printf("  - %s\n", p.Name)
		}
		os.Exit(1)
	}

	fmt.Printf("Generating suggestions for: %s\n\n", target.Name)

	svc := &analyses.Service{
		Prompts:    promptSvc,
		Heuristics: heuristics.NewService(rules),
		LLM:        client,
		Timeout:    timeout,
	}

	fmt.Println("Calling LLM for suggestions...")
	result, err := svc.GenerateSuggestions(ctx, target.ID, normalizeFocus(suggestFocus))
	if err != nil {
		fail("Error: Failed to generate suggestions: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUGGESTED IMPROVEMENTS")
	fmt.Println(strings.Repeat("=", 60) + "\n")

	fmt.Println(result.Explanation)
	fmt.Println()

	if len(result.Changes) > 0 {
		fmt.Println("Changes made:")
		for _, ch := range result.Changes {
			fmt.Printf("\n  Original: %s...\n", truncate60(ch.Original))
			fmt.Printf("  Replacement: %s...\n", truncate60(ch.Replacement))
			fmt.Printf("  Reason: %s\n", ch.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("-", 60))
	fmt.Println("IMPROVED PROMPT")
	fmt.Println(strings.Repeat("-", 60) + "\n")
	fmt.Println(result.Suggested)

	if suggestOutput != "" {
		if err := os.WriteFile(suggestOutput, []byte(result.Suggested), 0o644); err != nil {
			fail("Error writing %s: %v", suggestOutput, err)
		}
		fmt.Printf("\nSaved to: %s\n", suggestOutput)
	}
}

// pickPrompt resolves the --prompt selector: empty means the first prompt,
// otherwise match by name first and fall back to a 1-based index.
func pickPrompt(ps []prompts.Prompt, selector string) (prompts.Prompt, bool) {
	sel := strings.TrimSpace(selector)
	if sel == "" {
		return ps[0], true
	}
	for _, p := range ps {
		if strings.EqualFold(p.Name, sel) {
			return p, true
		}
	}
	if idx, err := strconv.Atoi(sel); err == nil && idx >= 1 && idx <= len(ps) {
		return ps[idx-1], true
	}
	return prompts.Prompt{}, false
}

func normalizeFocus(values []string) []string {
	var areas []string
	for _, v := range values {
		for _, f := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(f); trimmed != "" {
				areas = append(areas, trimmed)
			}
		}
	}
	return areas
}
