package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// Render serializes prompts back to Markdown. A single skill prompt
// round-trips as a front-matter file; anything else becomes a heading-based
// document in store order, with skill metadata rendered as an inline block.
func Render(ps []Prompt) string {
	var b strings.Builder

	if len(ps) == 1 && ps[0].Type == TypeSkill {
		writeFrontMatter(&b, ps[0].Metadata)
		b.WriteString("\n")
		b.WriteString(ps[0].Content)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("# Exported Prompts\n")
	for _, p := range ps {
		b.WriteString("\n")
		if p.Type == TypeSkill {
			writeFrontMatter(&b, p.Metadata)
		} else if isDefaultName(p.Type, p.Name) {
			fmt.Fprintf(&b, "## %s\n", headingLabel(p.Type))
		} else {
			fmt.Fprintf(&b, "## %s: %s\n", headingLabel(p.Type), p.Name)
		}
		b.WriteString("\n")
		b.WriteString(p.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// isDefaultName reports whether the name is one the parser would have
// assigned itself ("System Prompt", "User Prompt 2", ...), in which case the
// heading renders without a name suffix.
func isDefaultName(t Type, name string) bool {
	label := headingLabel(t)
	if name == label {
		return true
	}
	rest, ok := strings.CutPrefix(name, label+" ")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeFrontMatter(b *strings.Builder, md *Metadata) {
	b.WriteString("---\n")
	if md != nil {
		writeScalar(b, "name", md.Name)
		writeScalar(b, "description", md.Description)
		writeScalar(b, "license", md.License)
		writeScalar(b, "version", md.Version)
		writeScalar(b, "author", md.Author)
		if len(md.Tags) > 0 {
			fmt.Fprintf(b, "tags: [%s]\n", strings.Join(md.Tags, ", "))
		}
		extraKeys := make([]string, 0, len(md.Extra))
		for key := range md.Extra {
			extraKeys = append(extraKeys, key)
		}
		sort.Strings(extraKeys)
		for _, key := range extraKeys {
			writeScalar(b, key, md.Extra[key])
		}
	}
	b.WriteString("---\n")
}

func writeScalar(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", key, value)
}
