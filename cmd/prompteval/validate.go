package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zachzeid/prompteval/internal/prompts"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a markdown file's prompt format",
	Long: `Check that a markdown file parses into at least one prompt and that every
prompt passes the format checks. Exits 1 when validation fails.`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) {
	file := args[0]

	raw, err := os.ReadFile(file)
	if err != nil {
		msg := fmt.Sprintf("Failed to read file: %v", err)
		if errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("File not found: %s", file)
		}
		fmt.Fprintln(os.Stderr, "Validation failed:")
		fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		os.Exit(1)
	}

	parsed := prompts.ParseFile(string(raw), filepath.Base(file))

	var problems []string
	if len(parsed.Prompts) == 0 {
		problems = append(problems, "No prompts found. Use YAML frontmatter (---) or '## System Prompt' / '## User Prompt' headings.")
	}
	for _, w := range parsed.Warnings {
		problems = append(problems, w.Message)
	}

	if len(problems) > 0 {
		fmt.Fprintln(os.Stderr, "Validation failed:")
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  - %s\n", p)
		}
		os.Exit(1)
	}

	fmt.Printf("Valid! Found %d prompt(s):\n", len(parsed.Prompts))
	for _, p := range parsed.Prompts {
		fmt.Printf("  %s %s (lines %d-%d)\n", badge(p.Type), p.Name, p.LineStart, p.LineEnd)
	}
}
