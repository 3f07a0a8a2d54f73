package llm

import _ "embed"

var (
	//go:embed prompts/analysis_system.txt
	analysisSystemPrompt string
	//go:embed prompts/suggestion_system.txt
	suggestionSystemPrompt string
)

// AnalysisSystemPrompt returns the system prompt for analysis calls. The JSON
// schema it dictates is what result validation checks responses against.
func AnalysisSystemPrompt() string {
	return analysisSystemPrompt
}

// SuggestionSystemPrompt returns the system prompt for suggestion calls.
func SuggestionSystemPrompt() string {
	return suggestionSystemPrompt
}
