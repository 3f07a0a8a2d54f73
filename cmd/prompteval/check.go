package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/prompts"
)

var (
	checkStdin   bool
	checkType    string
	checkConfig  string
	checkOutput  string
	checkVerbose bool
	checkLLM     bool
)

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Analyze a prompt string directly",
	Long: `Score a prompt passed as an argument or on stdin, without a file.

Examples:
  prompteval check "Summarize the following text in two sentences."
  cat prompt.txt | prompteval check --stdin --type system --verbose
`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkStdin, "stdin", "s", false, "Read prompt from stdin")
	checkCmd.Flags().StringVarP(&checkType, "type", "t", "user", "Prompt type: 'system', 'user', or 'skill'")
	checkCmd.Flags().StringVarP(&checkConfig, "config", "c", "", "Custom rules config file (YAML)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Output file for analysis results (JSON)")
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Show detailed output")
	checkCmd.Flags().BoolVarP(&checkLLM, "llm", "l", false, "Include LLM-powered deep analysis")
}

type checkRecord struct {
	Heuristic heuristics.HeuristicAnalysis `json:"heuristic"`
	LLM       json.RawMessage              `json:"llm,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) {
	rules, err := loadRules(checkConfig)
	if err != nil {
		fail("Error loading config: %v", err)
	}

	var text string
	switch {
	case checkStdin:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail("Error reading stdin: %v", err)
		}
		text = strings.TrimSpace(string(data))
	case len(args) == 1:
		text = args[0]
	default:
		fail("Error: Provide prompt text as argument or use --stdin")
	}
	if text == "" {
		fail("Error: Prompt text is empty")
	}

	typ, ok := prompts.ParseType(strings.ToLower(checkType))
	if !ok {
		fail("Error: Invalid prompt type '%s'. Use 'system', 'user', or 'skill'.", checkType)
	}

	var client llm.Client
	var timeout time.Duration
	if checkLLM {
		client, timeout = mustLLMClient()
	}

	p := prompts.Prompt{
		ID:        uuid.NewString(),
		Name:      "inline-prompt",
		Type:      typ,
		Content:   text,
		LineStart: 1,
		LineEnd:   strings.Count(text, "\n") + 1,
	}

	fmt.Printf("Analyzing %s prompt (%d chars)\n\n", typ, len(text))

	svc := heuristics.NewService(rules)
	analysis := svc.Analyze(p)
	record := checkRecord{Heuristic: analysis}

	fmt.Printf("Overall Score: %d/100 (%s)\n", analysis.OverallScore, rules.ScoreLabel(analysis.OverallScore))

	if checkVerbose {
		fmt.Printf("  Clarity:       %d/100\n", analysis.Clarity.Score)
		fmt.Printf("  Specificity:   %d/100\n", analysis.Specificity.Score)
		fmt.Printf("  Structure:     %d/100\n", analysis.Structure.Score)
		fmt.Printf("  Completeness:  %d/100\n", analysis.Completeness.Score)
		fmt.Printf("  Output Format: %d/100\n", analysis.OutputFormat.Score)
		fmt.Printf("  Guardrails:    %d/100\n", analysis.Guardrails.Score)

		if issues := collectIssues(analysis); len(issues) > 0 {
			fmt.Println("\nIssues:")
			for _, issue := range issues {
				fmt.Printf("  - %s\n", issue)
			}
		}
		if suggestions := collectSuggestions(analysis); len(suggestions) > 0 {
			fmt.Println("\nSuggestions:")
			for _, suggestion := range suggestions {
				fmt.Printf("  - %s\n", suggestion)
			}
		}
	}

	if checkLLM {
		fmt.Println("\nRunning LLM analysis...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		raw, err := client.AnalyzePrompt(ctx, llm.AnalyzeInput{Content: p.Content, Type: string(p.Type)})
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "LLM Error: %v\n", err)
		} else {
			record.LLM = raw
			var rep llmReport
			if json.Unmarshal(raw, &rep) == nil {
				printAllItems("Ambiguities", rep.Ambiguities)
				printAllItems("Missing Context", rep.MissingContext)
				printAllItems("Injection Risks", rep.InjectionRisks)
				printAllItems("Best Practice Issues", rep.BestPracticeIssues)
			}
		}
	}

	if checkOutput != "" {
		writeJSONFile(checkOutput, record)
		fmt.Printf("\nResults saved to: %s\n", checkOutput)
	}
}

func printAllItems(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
