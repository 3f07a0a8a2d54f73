package heuristics

import (
	"regexp"
	"strings"
)

// lineMatch is one pattern hit, anchored to an absolute 1-based line.
type lineMatch struct {
	line int
	text string
}

// findPatternLines scans content line by line and records the first match
// per line. lineStart anchors relative positions to the source document.
func findPatternLines(content string, re *regexp.Regexp, lineStart int) []lineMatch {
	var out []lineMatch
	for i, line := range strings.Split(content, "\n") {
		if m := re.FindString(line); m != "" {
			out = append(out, lineMatch{line: lineStart + i, text: m})
		}
	}
	return out
}

// findTermLines is findPatternLines for a single whole-word term,
// case-insensitive.
func findTermLines(content, term string, lineStart int) []lineMatch {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	return findPatternLines(content, re, lineStart)
}

// containsAny reports whether the lowercased content contains any marker as
// a plain substring. Marker scans are deliberately loose; dimension scoring
// only needs presence, not position.
func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// wordCount counts whitespace-separated tokens.
func wordCount(content string) int {
	return len(strings.Fields(content))
}

const snippetLimit = 60

// truncateSnippet caps issue snippets for readable API payloads.
func truncateSnippet(s string) string {
	return truncateAt(s, snippetLimit)
}

func truncateAt(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
