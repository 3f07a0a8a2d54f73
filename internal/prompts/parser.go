package prompts

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	systemHeading = "## System Prompt"
	userHeading   = "## User Prompt"
)

// Parse extracts prompts from raw Markdown text. Two formats are supported:
// a YAML front-matter block describing a single skill prompt, and
// heading-based files where "## System Prompt" / "## User Prompt" sections
// each open a prompt. Parsing is deterministic and never fails: malformed
// front matter falls back to heading parsing, and a text with no matching
// headings yields an empty result.
func Parse(raw string) ParseResult {
	return ParseFile(raw, "")
}

// ParseFile is Parse with the source filename attached; skill prompts whose
// front matter lacks a name fall back to the filename stem.
func ParseFile(raw string, filename string) ParseResult {
	text := strings.TrimPrefix(raw, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var result ParseResult
	if isDelimiter(lines[0]) {
		if p, ok := parseFrontMatter(lines, filename); ok {
			result.Prompts = []Prompt{p}
			result.Warnings = Validate(result.Prompts)
			return result
		}
	}

	result.Prompts = parseHeadings(lines)
	result.Warnings = Validate(result.Prompts)
	return result
}

// parseHeadings scans for the literal, case-sensitive prompt headings and
// collects everything between them as content. Lines before the first
// heading are ignored; stray headings of other shapes are ordinary content.
func parseHeadings(lines []string) []Prompt {
	var out []Prompt
	counts := map[Type]int{}

	openIdx := -1
	var openType Type
	var openName string

	flush := func(endIdx int) {
		if openIdx < 0 {
			return
		}
		block := lines[openIdx+1 : endIdx+1]
		content := strings.TrimSpace(strings.Join(block, "\n"))
		if content == "" {
			return
		}
		lineEnd := openIdx + 2
		for j := len(block) - 1; j >= 0; j-- {
			if strings.TrimSpace(block[j]) != "" {
				lineEnd = openIdx + j + 2
				break
			}
		}
		out = append(out, Prompt{
			Name:      openName,
			Type:      openType,
			Content:   content,
			LineStart: openIdx + 2,
			LineEnd:   lineEnd,
		})
	}

	for i, line := range lines {
		typ, name, ok := matchHeading(line)
		if !ok {
			continue
		}
		flush(i - 1)
		counts[typ]++
		if name == "" {
			name = fmt.Sprintf("%s %d", headingLabel(typ), counts[typ])
		}
		openIdx = i
		openType = typ
		openName = name
	}
	flush(len(lines) - 1)

	return out
}

// matchHeading reports whether the line opens a prompt section. The heading
// prefix is matched case-sensitively at the start of the line.
func matchHeading(line string) (Type, string, bool) {
	trimmed := strings.TrimRight(line, " \t\r")
	switch {
	case trimmed == systemHeading:
		return TypeSystem, "", true
	case strings.HasPrefix(trimmed, systemHeading+":"):
		return TypeSystem, strings.TrimSpace(trimmed[len(systemHeading)+1:]), true
	case trimmed == userHeading:
		return TypeUser, "", true
	case strings.HasPrefix(trimmed, userHeading+":"):
		return TypeUser, strings.TrimSpace(trimmed[len(userHeading)+1:]), true
	}
	return "", "", false
}

func headingLabel(t Type) string {
	if t == TypeSystem {
		return "System Prompt"
	}
	return "User Prompt"
}

// parseFrontMatter parses the leading ----delimited block into skill
// metadata. It reports false when the block is structurally malformed so the
// caller can fall back to heading parsing on the whole text.
func parseFrontMatter(lines []string, filename string) (Prompt, bool) {
	closing := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			closing = i
			break
		}
	}
	// The closing delimiter must be followed by at least a newline.
	if closing < 0 || closing == len(lines)-1 {
		return Prompt{}, false
	}

	var raw map[string]any
	block := strings.Join(lines[1:closing], "\n")
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil || raw == nil {
		return Prompt{}, false
	}

	md := &Metadata{
		Name:        scalarField(raw, "name"),
		Description: scalarField(raw, "description"),
		License:     scalarField(raw, "license"),
		Version:     scalarField(raw, "version"),
		Author:      scalarField(raw, "author"),
		Tags:        tagList(raw["tags"]),
	}
	known := map[string]bool{
		"name": true, "description": true, "license": true,
		"version": true, "author": true, "tags": true,
	}
	for key, value := range raw {
		if known[key] || value == nil {
			continue
		}
		if md.Extra == nil {
			md.Extra = make(map[string]string)
		}
		md.Extra[key] = scalarString(value)
	}

	name := md.Name
	if name == "" {
		name = fileStem(filename)
	}

	body := lines[closing+1:]
	content := strings.TrimSpace(strings.Join(body, "\n"))

	lineStart := closing + 2
	lineEnd := lineStart
	for j := len(lines) - 1; j > closing; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			lineEnd = j + 1
			break
		}
	}

	return Prompt{
		Name:      name,
		Type:      TypeSkill,
		Content:   content,
		Metadata:  md,
		LineStart: lineStart,
		LineEnd:   lineEnd,
	}, true
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == "---"
}

func scalarField(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	return scalarString(value)
}

func scalarString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func tagList(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
	return nil
}

func fileStem(filename string) string {
	if filename == "" {
		return "Unnamed Skill"
	}
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "Unnamed Skill"
	}
	return stem
}
