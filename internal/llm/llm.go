// Package llm abstracts the completion and embedding model calls the
// service depends on, so storage and analysis code never talk to a
// provider SDK directly.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by client factories when no provider
// credentials are available.
var ErrNotConfigured = errors.New("llm: no provider configured")

// Completer produces a text completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder converts text into a fixed-length embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MalformedResponseError reports a completion whose text could not be
// parsed into the expected structure. Raw carries the original response so
// callers can degrade gracefully.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("llm: malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
