package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Temperature is the sampling temperature. Nil leaves the model default.
	Temperature *float32
}

type Backend struct {
	client      *genai.Client
	model       string
	temperature *float32
}

func New(ctx context.Context, cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Backend{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the configured model name.
func (b *Backend) Model() string { return b.model }

// Complete sends prompt as a single user turn and returns the candidate text.
func (b *Backend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(
		ctx,
		b.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount: 1,
			Temperature:    b.temperature,
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &generate.BackendError{Backend: "gemini", Err: errors.New("response has no candidates")}
	}
	return resp.Text(), nil
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generate.BackendError{
			Backend: "gemini",
			Err:     fmt.Errorf("api error %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message),
		}
	}
	return &generate.BackendError{Backend: "gemini", Err: err}
}
