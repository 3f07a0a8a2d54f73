package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prompteval",
	Short: "Evaluate prompts in markdown files and suggest improvements",
	Long: `prompteval parses markdown prompt files ('## System Prompt' / '## User Prompt'
headings, or a YAML front matter skill), scores every prompt with deterministic
heuristics, and can ask an LLM provider for deeper analysis and rewrite
suggestions. Run without a provider configured to use the heuristic engine only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
