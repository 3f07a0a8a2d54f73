package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

const llmRetryBaseDelay = 300 * time.Millisecond

// retryingLLM retries a transiently failed provider call once. Schema and
// validation failures are not retried here; the service handles those.
type retryingLLM struct {
	base       llm.Client
	requestID  string
	analysisID string
}

func newRetryingLLM(base llm.Client, analysisID, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	return retryingLLM{
		base:       base,
		requestID:  requestID,
		analysisID: analysisID,
	}
}

func (r retryingLLM) AnalyzePrompt(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	return r.retry(ctx, func() (json.RawMessage, error) {
		return r.base.AnalyzePrompt(ctx, input)
	})
}

func (r retryingLLM) SuggestRewrite(ctx context.Context, input llm.SuggestInput) (json.RawMessage, error) {
	return r.retry(ctx, func() (json.RawMessage, error) {
		return r.base.SuggestRewrite(ctx, input)
	})
}

func (r retryingLLM) retry(ctx context.Context, call func() (json.RawMessage, error)) (json.RawMessage, error) {
	resp, err := call()
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"request_id":  r.requestID,
		"analysis_id": r.analysisID,
		"attempt":     1,
		"error":       sanitizeError(err),
	})
	select {
	case <-time.After(llmRetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return call()
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "request timeout") || strings.Contains(msg, "client.timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
