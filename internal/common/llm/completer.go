// Package llm talks to the text-completion service used for criteria
// extraction and role disambiguation.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTimeout          = errors.New("LLM_TIMEOUT")
	ErrCompletionFailed = errors.New("LLM_COMPLETION_FAILED")
	ErrCircuitOpen      = errors.New("LLM_CIRCUIT_OPEN")
)

// Request is a single-shot completion.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer returns the model's raw text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ExtractJSON strips optional markdown code fences around a JSON reply.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```json"); idx != -1 {
		raw = raw[idx+len("```json"):]
	} else if idx := strings.Index(raw, "```"); idx != -1 {
		raw = raw[idx+len("```"):]
	} else {
		return raw
	}
	if idx := strings.Index(raw, "```"); idx != -1 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
