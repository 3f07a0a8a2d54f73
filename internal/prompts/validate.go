package prompts

import "fmt"

const minContentChars = 10

// Validate returns advisory warnings for parsed prompts. Parsing stays
// permissive, so contract violations (missing skill fields, near-empty
// content) surface here instead of failing the parse.
func Validate(ps []Prompt) []Warning {
	var warnings []Warning
	for _, p := range ps {
		if len(p.Content) < minContentChars {
			warnings = append(warnings, Warning{
				Prompt: p.Name,
				Line:   p.LineStart,
				Message: fmt.Sprintf("Prompt '%s' (line %d) is too short (%d chars). Consider adding more detail.",
					p.Name, p.LineStart, len(p.Content)),
			})
		}
		if p.Type != TypeSkill || p.Metadata == nil {
			continue
		}
		if p.Metadata.Name == "" {
			warnings = append(warnings, Warning{
				Prompt:  p.Name,
				Field:   "name",
				Message: fmt.Sprintf("Skill prompt '%s' is missing 'name' in frontmatter.", p.Name),
			})
		}
		if p.Metadata.Description == "" {
			warnings = append(warnings, Warning{
				Prompt:  p.Name,
				Field:   "description",
				Message: fmt.Sprintf("Skill prompt '%s' is missing 'description' in frontmatter.", p.Name),
			})
		}
	}
	return warnings
}
