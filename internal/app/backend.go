package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/outreach-email-pipeline/internal/config"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate/gemini"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate/openai"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/redact"
)

// NewBackend builds the generation backend selected by cfg.Provider and
// returns it with the model name it will use.
func NewBackend(ctx context.Context, cfg config.Config) (generate.Backend, string, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		temp := float32(cfg.Temperature)
		b, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			BaseURL:     cfg.Gemini.BaseURL,
			Temperature: &temp,
		})
		if err != nil {
			return nil, "", fmt.Errorf("gemini: %w", err)
		}
		return b, b.Model(), nil
	case config.ProviderOpenAI:
		temp := cfg.Temperature
		b, err := openai.New(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: &temp,
		})
		if err != nil {
			return nil, "", fmt.Errorf("openai: %w", err)
		}
		return b, b.Model(), nil
	case config.ProviderStub:
		return generate.Stub{}, "stub", nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// tracedBackend logs every backend call of a run.
type tracedBackend struct {
	next   generate.Backend
	logger *zap.Logger
	calls  atomic.Int64
}

func newTracedBackend(next generate.Backend, logger *zap.Logger) *tracedBackend {
	return &tracedBackend{next: next, logger: logger}
}

func (t *tracedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	call := t.calls.Add(1)

	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Debug("llm request",
		zap.Int64("call", call),
		zap.Int("prompt_chars", len(prompt)),
		zap.String("deadline_in", deadlineIn),
	)

	start := time.Now()
	out, err := t.next.Complete(ctx, prompt)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.logger.Warn("llm response",
			zap.Int64("call", call),
			zap.Duration("duration", elapsed),
			zap.String("status", "error"),
			zap.String("error", redact.Secrets(err.Error())),
		)
		return out, err
	}

	t.logger.Debug("llm response",
		zap.Int64("call", call),
		zap.Duration("duration", elapsed),
		zap.String("status", "ok"),
		zap.Int("response_chars", len(out)),
	)
	return out, nil
}

// Calls returns the number of backend calls made so far.
func (t *tracedBackend) Calls() int64 { return t.calls.Load() }
