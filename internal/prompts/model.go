package prompts

import "time"

// Type classifies a prompt block.
type Type string

const (
	TypeSystem Type = "system"
	TypeUser   Type = "user"
	TypeSkill  Type = "skill"
)

// ParseType maps a raw string to a Type.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeSystem, TypeUser, TypeSkill:
		return Type(raw), true
	}
	return "", false
}

// Metadata carries the front-matter fields of a skill prompt.
type Metadata struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	License     string            `json:"license,omitempty"`
	Version     string            `json:"version,omitempty"`
	Author      string            `json:"author,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Prompt is one self-contained block of instructional text extracted from a
// source file or created inline. LineStart/LineEnd are 1-based inclusive
// positions in the original file.
type Prompt struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             Type      `json:"type"`
	Content          string    `json:"content"`
	Metadata         *Metadata `json:"metadata,omitempty"`
	SourceDocumentID string    `json:"sourceDocumentId,omitempty"`
	LineStart        int       `json:"lineStart"`
	LineEnd          int       `json:"lineEnd"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Warning flags a non-fatal problem found while parsing or validating.
type Warning struct {
	Prompt  string `json:"prompt,omitempty"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ParseResult is the outcome of parsing one source text.
type ParseResult struct {
	Prompts  []Prompt  `json:"prompts"`
	Warnings []Warning `json:"warnings"`
}
