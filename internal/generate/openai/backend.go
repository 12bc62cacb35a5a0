// Package openai calls an OpenAI-compatible chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
)

// Config holds configuration for the OpenAI backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Temperature is sent when non-nil.
	Temperature *float64

	// HTTPClient defaults to a client without a timeout; the caller's context
	// bounds each request.
	HTTPClient *http.Client
}

type Backend struct {
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	http        *http.Client
}

func New(cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	b := &Backend{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:       strings.TrimSpace(cfg.Model),
		temperature: cfg.Temperature,
		http:        cfg.HTTPClient,
	}
	if b.baseURL == "" {
		b.baseURL = DefaultBaseURL
	}
	if b.model == "" {
		b.model = DefaultModel
	}
	if b.http == nil {
		b.http = &http.Client{}
	}
	return b, nil
}

// Model returns the configured model name.
func (b *Backend) Model() string { return b.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// Complete sends prompt as a single user message.
func (b *Backend) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       b.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: b.temperature,
	})
	if err != nil {
		return "", backendErr(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", backendErr(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.http.Do(req)
	if err != nil {
		return "", backendErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", backendErr(fmt.Errorf("read response: %w", err))
	}

	var out chatResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode/100 != 2 {
		msg := resp.Status
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = resp.Status + ": " + out.Error.Message
		}
		return "", backendErr(fmt.Errorf("api error: %s", msg))
	}
	if decodeErr != nil {
		return "", backendErr(fmt.Errorf("parse response: %w", decodeErr))
	}
	if len(out.Choices) == 0 {
		return "", backendErr(errors.New("response has no choices"))
	}
	return out.Choices[0].Message.Content, nil
}

func backendErr(err error) error {
	return &generate.BackendError{Backend: "openai", Err: err}
}
