package generate

import (
	"context"
	"errors"
)

// Backend maps a prompt to a completion. Implementations make exactly one
// outbound call per Complete and do not retry.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, prompt string) (string, error)

func (f BackendFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrEmptyPrompt is reported when Generate is called without a prompt.
	ErrEmptyPrompt = errors.New("empty prompt provided")
	// ErrEmptyCompletion is reported when a backend answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// BackendError wraps a failure from a generation backend (auth, timeout,
// malformed response).
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	if e == nil || e.Err == nil {
		return "backend error"
	}
	if e.Backend == "" {
		return e.Err.Error()
	}
	return e.Backend + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
