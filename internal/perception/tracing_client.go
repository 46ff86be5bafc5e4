package perception

import (
	"context"
	"sync/atomic"
	"time"

	"aipm/internal/logging"
)

// CallStats summarizes the calls made through a TracingClient.
type CallStats struct {
	Calls    int64
	Failures int64
	InFlight int64
	// PeakInFlight is the highest number of concurrently outstanding calls seen.
	PeakInFlight int64
}

// TracingClient wraps any LLMClient and logs every interaction.
type TracingClient struct {
	underlying LLMClient
	provider   Provider

	calls    atomic.Int64
	failures atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewTracingClient creates a tracing wrapper around an existing client.
func NewTracingClient(underlying LLMClient, provider Provider) *TracingClient {
	return &TracingClient{underlying: underlying, provider: provider}
}

// Complete implements LLMClient.Complete with tracing.
func (tc *TracingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.CompleteWithSystem with tracing.
func (tc *TracingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	tc.calls.Add(1)
	n := tc.inFlight.Add(1)
	defer tc.inFlight.Add(-1)
	for {
		peak := tc.peak.Load()
		if n <= peak || tc.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	start := time.Now()
	logging.APIDebug("LLM call started: provider=%s prompt_len=%d in_flight=%d", tc.provider, len(userPrompt), n)

	response, err := tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)

	duration := time.Since(start)
	if err != nil {
		tc.failures.Add(1)
		logging.APIError("LLM call failed: provider=%s duration=%v error=%v", tc.provider, duration, err)
		return "", err
	}
	logging.API("LLM call completed: provider=%s duration=%v response_len=%d", tc.provider, duration, len(response))
	return response, nil
}

// GetModel returns the wrapped client's model.
func (tc *TracingClient) GetModel() string {
	return ModelOf(tc.underlying)
}

// Unwrap returns the wrapped client.
func (tc *TracingClient) Unwrap() LLMClient {
	return tc.underlying
}

// Stats returns a snapshot of the call counters.
func (tc *TracingClient) Stats() CallStats {
	return CallStats{
		Calls:        tc.calls.Load(),
		Failures:     tc.failures.Load(),
		InFlight:     tc.inFlight.Load(),
		PeakInFlight: tc.peak.Load(),
	}
}
