// Package outreach turns a lead and a product into a drafted email.
//
// The orchestrator tries a single-prompt direct path first. If the backend
// fails there, it runs an analyze-then-write fallback: one round analyzes the
// lead, a second round writes the email with that analysis as context. If
// both fail the result is a Failure. Nothing panics out of Generate.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/outreach-email-pipeline/internal/email"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
	"github.com/shpitdev/outreach-email-pipeline/internal/prompt"
)

// Generator is the text-generation boundary. Failures come back as strings
// for which generate.IsError reports true.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// ParseFunc splits generated content into subject and body.
type ParseFunc func(content string) (subject, body string)

type Orchestrator struct {
	gen    Generator
	parse  ParseFunc
	logger *zap.Logger
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParser replaces email.Parse.
func WithParser(p ParseFunc) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.parse = p
		}
	}
}

func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:    gen,
		parse:  email.Parse,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GenerateEmail returns the (subject, body) pair for lead and product.
func (o *Orchestrator) GenerateEmail(ctx context.Context, lead leads.Lead, product leads.Product) (subject, body string) {
	return o.Generate(ctx, lead, product).Pair()
}

// Generate runs the direct path, then the fallback path, and always returns a
// Result.
func (o *Orchestrator) Generate(ctx context.Context, lead leads.Lead, product leads.Product) Result {
	log := o.logger.With(zap.String("lead_id", lead.IDString()), zap.String("lead_name", lead.DisplayName()))

	if lead.IsZero() && product.IsZero() {
		log.Warn("no lead or product data")
		return Result{Failure: insufficientData, Path: PathNone}
	}

	start := time.Now()
	res, err := o.direct(ctx, lead, product)
	if err == nil {
		log.Debug("direct generation succeeded", zap.Duration("duration", time.Since(start)))
		return res
	}
	log.Warn("direct generation failed, falling back to analyze-then-write", zap.Error(err))

	start = time.Now()
	res, err = o.fallback(ctx, lead, product)
	if err == nil {
		log.Debug("fallback generation succeeded", zap.Duration("duration", time.Since(start)))
		return res
	}
	log.Error("fallback generation failed", zap.Error(err))
	return Result{Failure: failurePrefix + err.Error(), Path: PathNone}
}

// direct is the single-prompt strategy. A returned error means the fallback
// should run.
func (o *Orchestrator) direct(ctx context.Context, lead leads.Lead, product leads.Product) (Result, error) {
	content := o.safeGenerate(ctx, prompt.Email(lead, product))
	if generate.IsError(content) {
		return Result{}, errors.New(content)
	}

	subject, body, fault := o.safeParse(content)
	if fault != nil {
		// Keep the raw generation: the parse step failed, not the backend.
		o.logger.Warn("parse fault on direct generation", zap.Error(fault))
		return Result{
			Email: email.GeneratedEmail{
				SubjectLine: ParseFaultSubject,
				Body:        fmt.Sprintf("Error parsing content: %v\n\n%s", fault, content),
			},
			Path: PathDirect,
		}, nil
	}
	if subject == "" && body == "" {
		return Result{}, errors.New("direct generation produced no content")
	}
	return Result{
		Email: email.GeneratedEmail{SubjectLine: subject, Body: body},
		Path:  PathDirect,
	}, nil
}

// fallback is the two-round analyze-then-write strategy.
func (o *Orchestrator) fallback(ctx context.Context, lead leads.Lead, product leads.Product) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("fallback fault: %v", r)
		}
	}()

	analysis := o.safeGenerate(ctx, prompt.Analysis(lead))
	if generate.IsError(analysis) {
		return Result{}, fmt.Errorf("lead analysis: %s", analysis)
	}

	content := o.safeGenerate(ctx, prompt.Writer(analysis, product))
	if generate.IsError(content) {
		return Result{}, fmt.Errorf("email writing: %s", content)
	}

	subject, body := o.parse(content)
	if subject == "" && body == "" {
		return Result{}, errors.New("email writing produced no content")
	}
	return Result{
		Email:    email.GeneratedEmail{SubjectLine: subject, Body: body},
		Path:     PathFallback,
		Analysis: analysis,
	}, nil
}

// safeGenerate turns a panicking or missing Generator into an in-band error.
func (o *Orchestrator) safeGenerate(ctx context.Context, p string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = generate.FormatError(&generate.BackendError{Err: fmt.Errorf("panic: %v", r)})
		}
	}()
	return o.gen.Generate(ctx, p)
}

func (o *Orchestrator) safeParse(content string) (subject, body string, fault error) {
	defer func() {
		if r := recover(); r != nil {
			subject, body, fault = "", "", fmt.Errorf("%v", r)
		}
	}()
	subject, body = o.parse(content)
	return subject, body, nil
}
