// Package generate is the single point of contact with the text-generation
// backend.
//
// Client.Generate never returns an error value. Failures travel in-band as
// strings starting with ErrorPrefix, which downstream code checks with IsError.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/redact"
)

// ErrorPrefix starts every failure string returned by Client.Generate.
const ErrorPrefix = "Error"

// Client wraps a Backend and folds its failures into error-prefixed strings.
// It holds no per-call state and is safe for concurrent use if the backend is.
type Client struct {
	backend Backend
}

func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// Generate sends prompt to the backend once.
//
// An empty prompt returns "Error: Empty prompt provided" without calling the
// backend. Backend errors, panics and empty completions return
// "Error generating content: <reason>".
func (c *Client) Generate(ctx context.Context, prompt string) string {
	out, err := c.complete(ctx, prompt)
	if err != nil {
		return FormatError(err)
	}
	return out
}

func (c *Client) complete(ctx context.Context, prompt string) (out string, err error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if c == nil || c.backend == nil {
		return "", &BackendError{Err: errors.New("no backend configured")}
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", &BackendError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = c.backend.Complete(ctx, prompt)
	if err != nil {
		var be *BackendError
		if !errors.As(err, &be) {
			err = &BackendError{Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &BackendError{Err: ErrEmptyCompletion}
	}
	return out, nil
}

// FormatError renders err in the in-band error form.
func FormatError(err error) string {
	if errors.Is(err, ErrEmptyPrompt) {
		return ErrorPrefix + ": Empty prompt provided"
	}
	return ErrorPrefix + " generating content: " + redact.Secrets(err.Error())
}

// IsError reports whether s is an in-band failure from Generate.
func IsError(s string) bool {
	return strings.HasPrefix(s, ErrorPrefix)
}
