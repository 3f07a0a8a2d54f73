package heuristics

import (
	"sort"
	"strings"
	"unicode"
)

// Recommendation is a deterministic, ranked improvement action derived from
// the dimension results.
type Recommendation struct {
	ID        string `json:"id"`
	Dimension string `json:"dimension"`
	Severity  string `json:"severity"`
	Action    string `json:"action"`
	Order     int    `json:"order"`
}

const maxRecommendations = 7

// buildRecommendations flattens the per-dimension suggestions into a single
// deduplicated, severity-ranked list capped at maxRecommendations. Worse
// dimensions surface first; ties break alphabetically so output is stable.
func buildRecommendations(h HeuristicAnalysis) []Recommendation {
	type candidate struct {
		rec   Recommendation
		score int
	}
	var candidates []candidate
	for _, d := range h.Dimensions() {
		for _, action := range d.Score.Suggestions {
			candidates = append(candidates, candidate{
				rec: Recommendation{
					ID:        slugify(action),
					Dimension: d.Name,
					Severity:  severityFor(d.Score.Score),
					Action:    action,
				},
				score: d.Score.Score,
			})
		}
	}

	// Dedupe by id, keeping the copy from the worst-scoring dimension.
	byID := make(map[string]candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		existing, ok := byID[c.rec.ID]
		if !ok {
			byID[c.rec.ID] = c
			order = append(order, c.rec.ID)
			continue
		}
		if c.score < existing.score {
			byID[c.rec.ID] = c
		}
	}

	deduped := make([]candidate, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, byID[id])
	}
	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if ra, rb := severityRank(a.rec.Severity), severityRank(b.rec.Severity); ra != rb {
			return ra > rb
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.rec.Action < b.rec.Action
	})

	if len(deduped) > maxRecommendations {
		deduped = deduped[:maxRecommendations]
	}
	out := make([]Recommendation, 0, len(deduped))
	for i, c := range deduped {
		c.rec.Order = i + 1
		out = append(out, c.rec)
	}
	return out
}

func severityFor(score int) string {
	switch {
	case score < 40:
		return "critical"
	case score < 70:
		return "warning"
	default:
		return "info"
	}
}

func severityRank(value string) int {
	switch value {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}

func slugify(input string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}
