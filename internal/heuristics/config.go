package heuristics

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/util"
)

// RuleConfig holds every tunable the dimension evaluators read. The zero
// value is not usable; start from DefaultConfig and overlay a rules file
// with LoadFile.
type RuleConfig struct {
	MinWordCount      int `json:"min_word_count"`
	MaxSentenceLength int `json:"max_sentence_length"`

	// Weights keys: the six dimension names, with guardrails split into
	// guardrails_system and guardrails_user. Missing keys count as 1.0.
	Weights     map[string]float64 `json:"weights"`
	ScoreLabels map[string]int     `json:"score_labels"`

	VagueTerms          []string `json:"vague_terms"`
	OutputFormatMarkers []string `json:"output_format_markers"`
	GuardrailMarkers    []string `json:"guardrail_markers"`
	ExampleMarkers      []string `json:"example_markers"`
	RoleMarkers         []string `json:"role_markers"`
	ContextMarkers      []string `json:"context_markers"`
	TaskMarkers         []string `json:"task_markers"`
	FlowMarkers         []string `json:"flow_markers"`
	ScopeMarkers        []string `json:"scope_markers"`
	EdgeCaseMarkers     []string `json:"edge_case_markers"`
	LengthMarkers       []string `json:"length_markers"`
	SpecificFormats     []string `json:"specific_formats"`
}

// DefaultConfig returns the built-in rule set.
func DefaultConfig() RuleConfig {
	return RuleConfig{
		MinWordCount:      20,
		MaxSentenceLength: 40,
		Weights: map[string]float64{
			DimClarity:          1.0,
			DimSpecificity:      1.0,
			DimStructure:        1.0,
			DimCompleteness:     1.0,
			DimOutputFormat:     1.0,
			"guardrails_system": 1.0,
			"guardrails_user":   1.0,
		},
		ScoreLabels: map[string]int{
			"excellent": 80,
			"good":      60,
			"fair":      40,
		},
		VagueTerms: []string{
			"good", "proper", "appropriate", "nice", "better", "best",
			"correct", "right", "wrong", "bad", "okay", "fine", "reasonable",
			"suitable", "adequate", "sufficient", "effective", "efficient",
			"optimal", "ideal",
		},
		OutputFormatMarkers: []string{
			"format", "respond", "output", "return", "provide", "give",
			"answer", "reply", "json", "markdown", "bullet", "list", "table",
		},
		GuardrailMarkers: []string{
			"never", "always", "must", "don't", "do not", "avoid", "refuse",
			"only", "cannot", "should not", "forbidden", "prohibited",
			"limit", "restrict", "boundary", "exception", "unless", "if not",
		},
		ExampleMarkers: []string{
			"example", "for instance", "such as", "e.g.", "like this",
		},
		RoleMarkers: []string{
			"you are", "act as", "behave as", "role", "persona",
			"assistant", "expert",
		},
		ContextMarkers: []string{
			"context", "background", "given", "assuming", "based on",
			"considering",
		},
		TaskMarkers: []string{
			"task", "goal", "objective", "help", "assist", "create",
			"generate", "analyze", "review", "write",
		},
		FlowMarkers: []string{
			"first", "then", "next", "finally", "after", "before", "step",
		},
		ScopeMarkers: []string{
			"only", "limited to", "focus on", "specifically", "exclusively",
		},
		EdgeCaseMarkers: []string{
			"if", "when", "unless", "except", "in case", "otherwise",
		},
		LengthMarkers: []string{
			"brief", "concise", "detailed", "comprehensive", "short", "long",
			"words", "sentences", "paragraphs",
		},
		SpecificFormats: []string{
			"json", "xml", "yaml", "markdown", "html", "csv", "table",
		},
	}
}

// fileConfig mirrors the rules YAML. Every field is optional; absent or
// invalid values keep their defaults.
type fileConfig struct {
	Thresholds struct {
		MinWordCount      *int `yaml:"min_word_count"`
		MaxSentenceLength *int `yaml:"max_sentence_length"`
	} `yaml:"thresholds"`
	Weights     map[string]float64 `yaml:"weights"`
	ScoreLabels map[string]int     `yaml:"score_labels"`

	VagueTerms          []string `yaml:"vague_terms"`
	OutputFormatMarkers []string `yaml:"output_format_markers"`
	GuardrailMarkers    []string `yaml:"guardrail_markers"`
	ExampleMarkers      []string `yaml:"example_markers"`
	RoleMarkers         []string `yaml:"role_markers"`
	ContextMarkers      []string `yaml:"context_markers"`
	TaskMarkers         []string `yaml:"task_markers"`
	FlowMarkers         []string `yaml:"flow_markers"`
	ScopeMarkers        []string `yaml:"scope_markers"`
	EdgeCaseMarkers     []string `yaml:"edge_case_markers"`
	LengthMarkers       []string `yaml:"length_markers"`
	SpecificFormats     []string `yaml:"specific_formats"`
}

// LoadFile overlays a rules YAML onto the defaults. Thresholds apply
// per field when positive; weights and score_labels merge key by key; marker
// lists replace wholesale when present. On read or parse failure the
// defaults are returned alongside the error so callers can log and continue.
func LoadFile(path string) (RuleConfig, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read rules file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, fmt.Errorf("parse rules file: %w", err)
	}

	if v := file.Thresholds.MinWordCount; v != nil && *v > 0 {
		cfg.MinWordCount = *v
	}
	if v := file.Thresholds.MaxSentenceLength; v != nil && *v > 0 {
		cfg.MaxSentenceLength = *v
	}
	for key, w := range file.Weights {
		if w >= 0 {
			cfg.Weights[key] = w
		}
	}
	for key, threshold := range file.ScoreLabels {
		if threshold >= 0 && threshold <= 100 {
			cfg.ScoreLabels[key] = threshold
		}
	}

	replace := func(dst *[]string, src []string) {
		if src != nil {
			*dst = src
		}
	}
	replace(&cfg.VagueTerms, file.VagueTerms)
	replace(&cfg.OutputFormatMarkers, file.OutputFormatMarkers)
	replace(&cfg.GuardrailMarkers, file.GuardrailMarkers)
	replace(&cfg.ExampleMarkers, file.ExampleMarkers)
	replace(&cfg.RoleMarkers, file.RoleMarkers)
	replace(&cfg.ContextMarkers, file.ContextMarkers)
	replace(&cfg.TaskMarkers, file.TaskMarkers)
	replace(&cfg.FlowMarkers, file.FlowMarkers)
	replace(&cfg.ScopeMarkers, file.ScopeMarkers)
	replace(&cfg.EdgeCaseMarkers, file.EdgeCaseMarkers)
	replace(&cfg.LengthMarkers, file.LengthMarkers)
	replace(&cfg.SpecificFormats, file.SpecificFormats)

	return cfg, nil
}

// ScoreLabel maps a score to its configured label band.
func (c RuleConfig) ScoreLabel(score int) string {
	if score >= c.labelThreshold("excellent", 80) {
		return "excellent"
	}
	if score >= c.labelThreshold("good", 60) {
		return "good"
	}
	if score >= c.labelThreshold("fair", 40) {
		return "fair"
	}
	return "poor"
}

func (c RuleConfig) labelThreshold(name string, fallback int) int {
	if v, ok := c.ScoreLabels[name]; ok {
		return v
	}
	return fallback
}

// DimensionWeight returns the configured weight for a dimension, resolving
// guardrails by prompt type. Unknown keys weigh 1.0.
func (c RuleConfig) DimensionWeight(name string, typ prompts.Type) float64 {
	key := name
	if name == DimGuardrails {
		if typ == prompts.TypeUser {
			key = "guardrails_user"
		} else {
			key = "guardrails_system"
		}
	}
	if w, ok := c.Weights[key]; ok {
		return w
	}
	return 1.0
}

// Fingerprint returns a stable digest of the effective configuration, used
// to key the report cache so rule changes never serve stale reports.
func (c RuleConfig) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "thresholds:%d,%d\n", c.MinWordCount, c.MaxSentenceLength)

	writeSortedFloats(&b, "weights", c.Weights)
	writeSortedInts(&b, "score_labels", c.ScoreLabels)
	for _, list := range [][]string{
		c.VagueTerms, c.OutputFormatMarkers, c.GuardrailMarkers,
		c.ExampleMarkers, c.RoleMarkers, c.ContextMarkers, c.TaskMarkers,
		c.FlowMarkers, c.ScopeMarkers, c.EdgeCaseMarkers, c.LengthMarkers,
		c.SpecificFormats,
	} {
		b.WriteString(strings.Join(list, ","))
		b.WriteString("\n")
	}
	return util.HashKey(b.String())
}

func writeSortedFloats(b *strings.Builder, label string, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(label)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%g", k, m[k])
	}
	b.WriteString("\n")
}

func writeSortedInts(b *strings.Builder, label string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(label)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%d", k, m[k])
	}
	b.WriteString("\n")
}
