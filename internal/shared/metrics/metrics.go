package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	promptsParsedTotal      atomic.Uint64
	heuristicRunsTotal      atomic.Uint64
	heuristicCacheHitsTotal atomic.Uint64
	jobStartedTotal         atomic.Uint64
	jobCompletedTotal       atomic.Uint64
	jobFailedTotal          atomic.Uint64
	suggestionRunsTotal     atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// AddPromptsParsed adds to the parsed-prompt counter.
func AddPromptsParsed(n int) {
	if n > 0 {
		promptsParsedTotal.Add(uint64(n))
	}
}

// IncHeuristicRun counts one heuristic analysis, cached or not.
func IncHeuristicRun(cacheHit bool) {
	heuristicRunsTotal.Add(1)
	if cacheHit {
		heuristicCacheHitsTotal.Add(1)
	}
}

// IncJobStarted increments the started counter.
func IncJobStarted() {
	jobStartedTotal.Add(1)
}

// IncJobCompleted increments the completed counter.
func IncJobCompleted() {
	jobCompletedTotal.Add(1)
}

// IncJobFailed increments the failed counter.
func IncJobFailed() {
	jobFailedTotal.Add(1)
}

// IncSuggestionRun increments the suggestion counter.
func IncSuggestionRun() {
	suggestionRunsTotal.Add(1)
}

// ObserveJobDurationMs records a job duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "prompts_parsed_total", "Total prompts extracted from inputs", promptsParsedTotal.Load())
	writeCounter(&buf, "heuristic_runs_total", "Total heuristic analyses served", heuristicRunsTotal.Load())
	writeCounter(&buf, "heuristic_cache_hits_total", "Heuristic analyses served from cache", heuristicCacheHitsTotal.Load())
	writeCounter(&buf, "analysis_jobs_started_total", "Total LLM analysis jobs started", jobStartedTotal.Load())
	writeCounter(&buf, "analysis_jobs_completed_total", "Total LLM analysis jobs completed", jobCompletedTotal.Load())
	writeCounter(&buf, "analysis_jobs_failed_total", "Total LLM analysis jobs failed", jobFailedTotal.Load())
	writeCounter(&buf, "suggestion_runs_total", "Total suggestion generations", suggestionRunsTotal.Load())
	writeHistogram(&buf, "analysis_job_duration_ms", "LLM analysis job duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
