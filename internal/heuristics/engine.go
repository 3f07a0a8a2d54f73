package heuristics

import (
	"math"

	"github.com/zachzeid/prompteval/internal/prompts"
)

// Analyze runs every dimension evaluator over the prompt and returns the
// full report. Pure and deterministic: same prompt and config always yield
// the same report.
func Analyze(p prompts.Prompt, cfg RuleConfig) HeuristicAnalysis {
	if p.LineStart < 1 {
		p.LineStart = 1
	}

	h := HeuristicAnalysis{
		PromptID:     p.ID,
		Clarity:      evaluateClarity(p, cfg),
		Specificity:  evaluateSpecificity(p, cfg),
		Structure:    evaluateStructure(p, cfg),
		Completeness: evaluateCompleteness(p, cfg),
		OutputFormat: evaluateOutputFormat(p, cfg),
		Guardrails:   evaluateGuardrails(p, cfg),
	}
	h.OverallScore = overallScore(h, p.Type, cfg)
	h.Label = cfg.ScoreLabel(h.OverallScore)
	h.Recommendations = buildRecommendations(h)
	return h
}

// overallScore is the weighted average of the six dimensions, rounded to the
// nearest integer and clamped to [0,100].
func overallScore(h HeuristicAnalysis, typ prompts.Type, cfg RuleConfig) int {
	total := 0.0
	weightSum := 0.0
	for _, d := range h.Dimensions() {
		w := cfg.DimensionWeight(d.Name, typ)
		total += float64(d.Score.Score) * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return clampScore(int(math.Round(total / weightSum)))
}
