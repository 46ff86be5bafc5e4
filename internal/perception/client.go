// Package perception holds the completion clients used to judge rules.
// Every client turns a prompt into free text; any failure to do so is
// reported as a *TransportError.
package perception

import (
	"context"
	"errors"
	"fmt"
)

// LLMClient defines the interface for completion providers.
// Implementations must be safe for concurrent use.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider represents a completion provider.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

// ErrTransport matches every *TransportError via errors.Is.
var ErrTransport = errors.New("completion transport error")

// TransportError describes a completion call that did not produce text:
// network failures, rejected credentials, quota, timeouts and protocol errors.
type TransportError struct {
	Provider   Provider
	StatusCode int // HTTP status when the service answered, else 0
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("status %d: %s", e.StatusCode, msg)
	}
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func transportErr(p Provider, status int, msg string, err error) error {
	return &TransportError{Provider: p, StatusCode: status, Message: msg, Err: err}
}
