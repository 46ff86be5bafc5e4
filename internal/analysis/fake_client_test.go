package analysis

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"aipm/internal/perception"
)

var rulePattern = regexp.MustCompile(`(?m)^Rule: (.*)$`)

// reply is a scripted answer for one rule.
type reply struct {
	text  string
	err   error
	panic any
}

// fakeClient answers by rule name and records concurrency.
type fakeClient struct {
	replies  map[string]reply
	fallback reply
	delay    time.Duration

	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64

	mu      sync.Mutex
	systems []string
	prompts map[string]string
}

func newFakeClient(replies map[string]reply) *fakeClient {
	return &fakeClient{
		replies:  replies,
		fallback: reply{text: `{"decision": true, "justification": "default"}`},
		prompts:  make(map[string]string),
	}
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	name := ""
	if m := rulePattern.FindStringSubmatch(userPrompt); m != nil {
		name = m[1]
	}
	f.mu.Lock()
	f.systems = append(f.systems, systemPrompt)
	f.prompts[name] = userPrompt
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", &perception.TransportError{Provider: "fake", Message: "request aborted", Err: ctx.Err()}
		}
	}

	r, ok := f.replies[name]
	if !ok {
		r = f.fallback
	}
	if r.panic != nil {
		panic(r.panic)
	}
	return r.text, r.err
}

var errBoom = &perception.TransportError{Provider: "fake", StatusCode: 503, Message: "service unavailable"}
