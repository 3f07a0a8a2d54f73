package heuristics

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/metrics"
	"github.com/zachzeid/prompteval/internal/shared/util"
)

const cacheSize = 1024

// Service runs the engine behind a content-keyed LRU cache. The engine is
// deterministic, so identical content, type, and rule configuration always
// map to the same report; the cache is invisible to callers.
type Service struct {
	cfg         RuleConfig
	fingerprint string
	cache       *lru.Cache[string, HeuristicAnalysis]
}

// NewService builds a Service around the given rule configuration.
func NewService(cfg RuleConfig) *Service {
	cache, err := lru.New[string, HeuristicAnalysis](cacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Service{
		cfg:         cfg,
		fingerprint: cfg.Fingerprint(),
		cache:       cache,
	}
}

// Config returns the effective rule configuration.
func (s *Service) Config() RuleConfig {
	return s.cfg
}

// Analyze returns the heuristic report for the prompt, served from cache
// when the same content and type have been scored under this configuration.
func (s *Service) Analyze(p prompts.Prompt) HeuristicAnalysis {
	key := util.HashKey(p.Content, string(p.Type), s.fingerprint)
	if cached, ok := s.cache.Get(key); ok {
		metrics.IncHeuristicRun(true)
		cached.PromptID = p.ID
		return cached
	}

	report := Analyze(p, s.cfg)
	stored := report
	// Cache entries are content-keyed, not prompt-keyed.
	stored.PromptID = ""
	s.cache.Add(key, stored)
	metrics.IncHeuristicRun(false)
	return report
}
