package heuristics

// Issue is a single finding inside a dimension, optionally anchored to a
// 1-based line in the source document.
type Issue struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	LineEnd int    `json:"lineEnd,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// DimensionScore is the result of one dimension evaluator.
type DimensionScore struct {
	Score       int      `json:"score"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// HeuristicAnalysis is the full deterministic report for one prompt.
type HeuristicAnalysis struct {
	PromptID        string           `json:"promptId,omitempty"`
	OverallScore    int              `json:"overallScore"`
	Label           string           `json:"label"`
	Clarity         DimensionScore   `json:"clarity"`
	Specificity     DimensionScore   `json:"specificity"`
	Structure       DimensionScore   `json:"structure"`
	Completeness    DimensionScore   `json:"completeness"`
	OutputFormat    DimensionScore   `json:"outputFormat"`
	Guardrails      DimensionScore   `json:"guardrails"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// NamedDimension pairs a dimension result with its canonical name. Names use
// the rule-file dialect (output_format, not outputFormat) so they line up
// with configured weights and with issue context sent to LLM providers.
type NamedDimension struct {
	Name  string
	Score DimensionScore
}

// Dimension name constants, in report order.
const (
	DimClarity      = "clarity"
	DimSpecificity  = "specificity"
	DimStructure    = "structure"
	DimCompleteness = "completeness"
	DimOutputFormat = "output_format"
	DimGuardrails   = "guardrails"
)

// Dimensions returns the six dimension results in canonical order.
func (h HeuristicAnalysis) Dimensions() []NamedDimension {
	return []NamedDimension{
		{DimClarity, h.Clarity},
		{DimSpecificity, h.Specificity},
		{DimStructure, h.Structure},
		{DimCompleteness, h.Completeness},
		{DimOutputFormat, h.OutputFormat},
		{DimGuardrails, h.Guardrails},
	}
}
