package heuristics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zachzeid/prompteval/internal/prompts"
)

var (
	passiveRe       = regexp.MustCompile(`(?i)\b(is|are|was|were|been|being)\s+\w+ed\b`)
	pronounRe       = regexp.MustCompile(`(?i)\b(it|this|that|these|those)\b`)
	numberRe        = regexp.MustCompile(`\b\d+\b`)
	numberedItemRe  = regexp.MustCompile(`^\s*\d+\.`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// quantityMarkers suppress the "no quantifiable criteria" finding for
// prompts that bound quantities in words rather than digits.
var quantityMarkers = []string{
	"at least", "at most", "maximum", "minimum", "up to", "no more than",
}

// evaluateClarity scores readability: Flesch base, long sentences, passive
// voice, and pronoun density.
func evaluateClarity(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	issues := []Issue{}
	suggestions := []string{}

	base := 95
	switch flesch := fleschReadingEase(p.Content); {
	case flesch < 30:
		base = 40
		issues = append(issues, Issue{Message: "Text is very difficult to read"})
		suggestions = append(suggestions, "Simplify language and sentence structure")
	case flesch < 50:
		base = 60
		issues = append(issues, Issue{Message: "Text is somewhat difficult to read"})
		suggestions = append(suggestions, "Simplify language and sentence structure")
	case flesch < 70:
		base = 80
	}

	longSentence := false
	for i, line := range strings.Split(p.Content, "\n") {
		for _, sentence := range sentenceSplitRe.Split(line, -1) {
			n := wordCount(sentence)
			if n <= cfg.MaxSentenceLength {
				continue
			}
			issues = append(issues, Issue{
				Message: fmt.Sprintf("Overly long sentence (%d words)", n),
				Line:    p.LineStart + i,
				Snippet: truncateSnippet(sentence),
			})
			longSentence = true
		}
	}
	if longSentence {
		suggestions = append(suggestions, "Break long sentences into shorter, clearer ones")
	}

	if passives := findPatternLines(p.Content, passiveRe, p.LineStart); len(passives) > 2 {
		for _, m := range passives[:3] {
			issues = append(issues, Issue{
				Message: "Passive voice construction",
				Line:    m.line,
				Snippet: m.text,
			})
		}
		suggestions = append(suggestions, "Use active voice for clearer instructions")
	}

	if pronouns := pronounRe.FindAllString(p.Content, -1); len(pronouns) > 5 {
		line := p.LineStart
		if ms := findPatternLines(p.Content, pronounRe, p.LineStart); len(ms) > 0 {
			line = ms[0].line
		}
		issues = append(issues, Issue{
			Message: fmt.Sprintf("High use of pronouns (%d) may cause ambiguity", len(pronouns)),
			Line:    line,
		})
		suggestions = append(suggestions, "Replace ambiguous pronouns with specific nouns")
	}

	penalty := len(issues) * 5
	if penalty > 30 {
		penalty = 30
	}
	return DimensionScore{Score: clampScore(base - penalty), Issues: issues, Suggestions: suggestions}
}

// evaluateSpecificity penalizes vague wording and rewards examples and
// quantifiable criteria.
func evaluateSpecificity(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	issues := []Issue{}
	suggestions := []string{}
	lower := strings.ToLower(p.Content)

	vagueCount := 0
	for _, term := range cfg.VagueTerms {
		for _, m := range findTermLines(p.Content, term, p.LineStart) {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("Vague term: '%s'", term),
				Line:    m.line,
				Snippet: m.text,
			})
			vagueCount++
		}
	}
	if vagueCount > 0 {
		suggestions = append(suggestions, "Replace vague terms with specific criteria or examples")
	}

	hasExamples := containsAny(lower, cfg.ExampleMarkers)
	if !hasExamples {
		issues = append(issues, Issue{Message: "No examples provided"})
		suggestions = append(suggestions, "Add concrete examples to clarify expectations")
	}

	hasNumbers := numberRe.MatchString(p.Content)
	if !hasNumbers && !containsAny(lower, quantityMarkers) {
		issues = append(issues, Issue{Message: "No quantifiable criteria found"})
		suggestions = append(suggestions, "Add specific numbers or quantities where applicable")
	}

	penalty := vagueCount * 5
	if !hasExamples {
		penalty += 15
	}
	// Quantity phrases suppress the issue, not the penalty.
	if !hasNumbers {
		penalty += 10
	}
	return DimensionScore{Score: clampScore(100 - penalty), Issues: issues, Suggestions: suggestions}
}

// evaluateStructure checks for lists, sections, flow markers, and paragraph
// breaks relative to prompt length.
func evaluateStructure(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	issues := []Issue{}
	suggestions := []string{}
	lines := strings.Split(p.Content, "\n")
	lower := strings.ToLower(p.Content)
	wc := wordCount(p.Content)

	hasLists, hasSections, hasNumbered := false, false, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•") {
			hasLists = true
		}
		if strings.HasPrefix(trimmed, "#") {
			hasSections = true
		}
		if numberedItemRe.MatchString(line) {
			hasNumbered = true
		}
	}
	hasFlow := containsAny(lower, cfg.FlowMarkers)

	if wc > 100 && !hasLists && !hasNumbered && !hasSections {
		issues = append(issues, Issue{
			Message: "Long prompt lacks organizational structure",
			Line:    p.LineStart,
		})
		suggestions = append(suggestions, "Break content into sections or bullet points")
	}
	if wc > 50 && !hasFlow && !hasNumbered {
		issues = append(issues, Issue{Message: "No clear sequence or flow indicators"})
		suggestions = append(suggestions, "Add sequence markers (first, then, finally) for multi-step instructions")
	}
	if wc > 80 && len(lines) < 3 {
		issues = append(issues, Issue{
			Message: "Dense text block without paragraph breaks",
			Line:    p.LineStart,
			Snippet: truncateAt(lines[0], 50),
		})
		suggestions = append(suggestions, "Add paragraph breaks to improve readability")
	}

	base := 100
	if wc > 100 {
		switch {
		case hasLists || hasNumbered:
			base = 95
		case hasSections:
			base = 90
		default:
			base = 60
		}
	}
	return DimensionScore{Score: clampScore(base - len(issues)*10), Issues: issues, Suggestions: suggestions}
}

// evaluateCompleteness checks length, role definition, context, and a stated
// task.
func evaluateCompleteness(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	issues := []Issue{}
	suggestions := []string{}
	lower := strings.ToLower(p.Content)
	wc := wordCount(p.Content)

	if wc < cfg.MinWordCount {
		issues = append(issues, Issue{
			Message: fmt.Sprintf("Prompt is very short (%d words)", wc),
			Line:    p.LineStart,
		})
		suggestions = append(suggestions, fmt.Sprintf("Consider expanding to at least %d words", cfg.MinWordCount))
	}
	if (p.Type == prompts.TypeSystem || p.Type == prompts.TypeSkill) && !containsAny(lower, cfg.RoleMarkers) {
		issues = append(issues, Issue{
			Message: "No clear role or persona defined",
			Line:    p.LineStart,
		})
		suggestions = append(suggestions, "Start with 'You are...' to establish the assistant's role")
	}
	if !containsAny(lower, cfg.ContextMarkers) && wc > 30 {
		issues = append(issues, Issue{Message: "No explicit context or background provided"})
		suggestions = append(suggestions, "Add context about the situation or domain")
	}
	if !containsAny(lower, cfg.TaskMarkers) {
		issues = append(issues, Issue{Message: "No clear task or objective stated"})
		suggestions = append(suggestions, "Clearly state what you want the assistant to do")
	}

	base := 100
	switch {
	case wc < 10:
		base = 30
	case wc < cfg.MinWordCount:
		base = 60
	}
	return DimensionScore{Score: clampScore(base - len(issues)*12), Issues: issues, Suggestions: suggestions}
}

// evaluateOutputFormat checks whether the prompt pins down response shape
// and length.
func evaluateOutputFormat(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	issues := []Issue{}
	suggestions := []string{}
	lower := strings.ToLower(p.Content)

	hasFormat := containsAny(lower, cfg.OutputFormatMarkers)
	hasSpecific := containsAny(lower, cfg.SpecificFormats)
	hasLength := containsAny(lower, cfg.LengthMarkers)

	if !hasFormat {
		issues = append(issues, Issue{Message: "No output format specified"})
		suggestions = append(suggestions, "Specify how you want the response formatted (JSON, list, paragraph, etc.)")
	}
	if !hasLength {
		issues = append(issues, Issue{Message: "No length or detail level specified"})
		suggestions = append(suggestions, "Indicate desired response length (e.g., 'in 2-3 sentences' or 'detailed explanation')")
	}

	base := 75
	switch {
	case !hasFormat:
		base = 50
	case hasSpecific:
		base = 100
	}
	if !hasLength {
		base -= 15
	}
	return DimensionScore{Score: clampScore(base), Issues: issues, Suggestions: suggestions}
}

// evaluateGuardrails checks safety constraints, edge-case handling, and
// scope boundaries. User prompts are exempt: guardrails belong to the
// system side of a conversation, so they score a flat 100.
func evaluateGuardrails(p prompts.Prompt, cfg RuleConfig) DimensionScore {
	if p.Type == prompts.TypeUser {
		return DimensionScore{Score: 100, Issues: []Issue{}, Suggestions: []string{}}
	}

	issues := []Issue{}
	suggestions := []string{}
	lower := strings.ToLower(p.Content)

	hasGuardrails := containsAny(lower, cfg.GuardrailMarkers)
	hasEdge := containsAny(lower, cfg.EdgeCaseMarkers)
	hasScope := containsAny(lower, cfg.ScopeMarkers)

	if !hasGuardrails {
		issues = append(issues, Issue{
			Message: "System prompt lacks safety constraints",
			Line:    p.LineStart,
		})
		suggestions = append(suggestions, "Add boundaries (e.g., 'Never share sensitive information', 'Only discuss topics related to...')")
	}
	if !hasEdge {
		issues = append(issues, Issue{Message: "No edge case handling defined"})
		suggestions = append(suggestions, "Add instructions for handling edge cases or unexpected inputs")
	}
	if !hasScope {
		issues = append(issues, Issue{Message: "No clear scope boundaries defined"})
		suggestions = append(suggestions, "Define the scope of what the assistant should and shouldn't do")
	}

	base := 100
	switch {
	case !hasGuardrails:
		base = 40
	case !hasScope:
		base = 70
	}
	return DimensionScore{Score: clampScore(base - len(issues)*10), Issues: issues, Suggestions: suggestions}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
