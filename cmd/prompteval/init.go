package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a sample prompts.md file",
	Args:  cobra.MaximumNArgs(1),
	Run:   runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing prompts.md")
}

const samplePrompts = `# My Prompts

## System Prompt: Assistant
You are a helpful AI assistant. Your responsibilities include:
- Answering questions clearly and concisely
- Providing accurate information
- Asking for clarification when needed

Always be polite and professional. Never make up information.

## User Prompt: Code Review
Please review the following code for:
1. Potential bugs or errors
2. Performance issues
3. Code style and readability

Provide your feedback in a structured format with specific line references.

## User Prompt: Summarization
Summarize the following text in 2-3 sentences, focusing on the key points.
`

func runInit(cmd *cobra.Command, args []string) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	path := filepath.Join(dir, "prompts.md")
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			fail("Error: %s already exists. Use --force to overwrite.", path)
		}
	}

	if err := os.WriteFile(path, []byte(samplePrompts), 0o644); err != nil {
		fail("Error writing %s: %v", path, err)
	}

	fmt.Printf("Created sample file: %s\n", path)
	fmt.Println("\nRun 'prompteval serve' to start the API server.")
}
