package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
)

var (
	analyzeOutput  string
	analyzeConfig  string
	analyzeVerbose bool
	analyzeLLM     bool
	analyzeJSON    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run heuristic analysis on prompts in a file",
	Long: `Parse a markdown file and score every prompt across the six heuristic
dimensions. With --llm the configured provider adds a deep analysis pass.

Examples:
  prompteval analyze prompts.md
  prompteval analyze prompts.md --verbose --config rules.yaml
  prompteval analyze prompts.md --llm --output results.json
`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Output file for analysis results (JSON)")
	analyzeCmd.Flags().StringVarP(&analyzeConfig, "config", "c", "", "Custom rules config file (YAML)")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Show detailed output")
	analyzeCmd.Flags().BoolVarP(&analyzeLLM, "llm", "l", false, "Include LLM-powered deep analysis (requires a provider)")
	analyzeCmd.Flags().BoolVarP(&analyzeJSON, "json", "j", false, "Print results as JSON instead of the report")
}

type analyzeRecord struct {
	Heuristic heuristics.HeuristicAnalysis `json:"heuristic"`
	LLM       json.RawMessage              `json:"llm,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	file := args[0]

	if analyzeConfig != "" && !analyzeJSON {
		fmt.Printf("Loading config: %s\n", analyzeConfig)
	}
	rules, err := loadRules(analyzeConfig)
	if err != nil {
		fail("Error loading config: %v", err)
	}
	svc := heuristics.NewService(rules)

	var client llm.Client
	var timeout time.Duration
	if analyzeLLM {
		client, timeout = mustLLMClient()
	}

	if !analyzeJSON {
		fmt.Printf("Analyzing: %s\n", file)
	}

	parsed, err := parsePromptFile(file)
	if err != nil {
		fail("Error reading file: %v", err)
	}
	if len(parsed.Prompts) == 0 {
		fail("No prompts found in file.")
	}

	if !analyzeJSON {
		fmt.Printf("Found %d prompt(s)\n\n", len(parsed.Prompts))
	}

	var results []analyzeRecord
	for _, p := range parsed.Prompts {
		analysis := svc.Analyze(p)
		record := analyzeRecord{Heuristic: analysis}

		if !analyzeJSON {
			fmt.Printf("%s %s\n", badge(p.Type), p.Name)
			fmt.Printf("    Overall Score: %d/100 (%s)\n", analysis.OverallScore, rules.ScoreLabel(analysis.OverallScore))
		}

		if analyzeVerbose && !analyzeJSON {
			fmt.Printf("    Clarity:       %d/100\n", analysis.Clarity.Score)
			fmt.Printf("    Specificity:   %d/100\n", analysis.Specificity.Score)
			fmt.Printf("    Structure:     %d/100\n", analysis.Structure.Score)
			fmt.Printf("    Completeness:  %d/100\n", analysis.Completeness.Score)
			fmt.Printf("    Output Format: %d/100\n", analysis.OutputFormat.Score)
			fmt.Printf("    Guardrails:    %d/100\n", analysis.Guardrails.Score)

			issues := collectIssues(analysis)
			if len(issues) > 5 {
				issues = issues[:5]
			}
			if len(issues) > 0 {
				fmt.Println("    Issues:")
				for _, issue := range issues {
					fmt.Printf("      - %s\n", issue)
				}
			}
		}

		if analyzeLLM {
			if !analyzeJSON {
				fmt.Println("    Running LLM analysis...")
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			raw, err := client.AnalyzePrompt(ctx, llm.AnalyzeInput{Content: p.Content, Type: string(p.Type)})
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "    LLM Error: %v\n", err)
			} else {
				record.LLM = raw
				if !analyzeJSON {
					printLLMHighlights(raw)
				}
			}
		}

		results = append(results, record)
		if !analyzeJSON {
			fmt.Println()
		}
	}

	if analyzeJSON {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fail("Error encoding results: %v", err)
		}
		fmt.Println(string(out))
	}

	if analyzeOutput != "" {
		writeJSONFile(analyzeOutput, results)
		if !analyzeJSON {
			fmt.Printf("Results saved to: %s\n", analyzeOutput)
		}
	}
}

func printLLMHighlights(raw json.RawMessage) {
	var rep llmReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return
	}
	printTopItems("Ambiguities", rep.Ambiguities)
	printTopItems("Missing Context", rep.MissingContext)
	printTopItems("Injection Risks", rep.InjectionRisks)
	printTopItems("Best Practice Issues", rep.BestPracticeIssues)
}

func printTopItems(title string, items []string) {
	if len(items) == 0 {
		return
	}
	if len(items) > 3 {
		items = items[:3]
	}
	fmt.Printf("    %s:\n", title)
	for _, item := range items {
		fmt.Printf("      - %s\n", item)
	}
}
