// Package app wires the dataset, generation backend, orchestrator, and output
// writers into batch and single-lead runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shpitdev/outreach-email-pipeline/internal/config"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
	"github.com/shpitdev/outreach-email-pipeline/internal/outreach"
	"github.com/shpitdev/outreach-email-pipeline/internal/pipeline"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/core"
)

// ErrLeadNotFound is returned by RunSingle for an unknown lead id.
var ErrLeadNotFound = errors.New("lead not found")

type Options struct {
	OutputDir string
	// Format is config.FormatJSON or config.FormatCSV. CSV output is written
	// in addition to the JSON files.
	Format   string
	Pipeline pipeline.Options
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Records []pipeline.Record
	OK      int
	Failed  int
	Skipped bool
}

type run struct {
	id     string
	logger *zap.Logger
	traced *tracedBackend
	orch   *outreach.Orchestrator
}

func newRun(backend generate.Backend, logger *zap.Logger) *run {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("run_id", id))
	traced := newTracedBackend(backend, logger)
	return &run{
		id:     id,
		logger: logger,
		traced: traced,
		orch:   outreach.New(generate.NewClient(traced), outreach.WithLogger(logger)),
	}
}

// RunBatch drafts an email for every lead in the dataset, writing one JSON
// file per lead as it completes and the aggregate file at the end.
//
// A dataset without leads or without product information is skipped with a
// warning and no files are written.
func RunBatch(ctx context.Context, input core.InputAdapter[leads.Lead], product leads.Product, backend generate.Backend, opts Options, logger *zap.Logger) (Summary, error) {
	r := newRun(backend, logger)
	runStart := time.Now()

	list, err := input.Load(ctx)
	if err != nil {
		return Summary{RunID: r.id}, fmt.Errorf("load leads: %w", err)
	}
	if len(list) == 0 {
		r.logger.Warn("no leads found in dataset, nothing to generate")
		return Summary{RunID: r.id, Skipped: true}, nil
	}
	if product.IsZero() {
		r.logger.Warn("no product information found in dataset, nothing to generate")
		return Summary{RunID: r.id, Skipped: true}, nil
	}

	r.logger.Info("batch run start",
		zap.Int("leads", len(list)),
		zap.String("product", product.Name),
		zap.String("output_dir", opts.OutputDir),
		zap.Int("workers", opts.Pipeline.Workers),
		zap.Duration("request_timeout", opts.Pipeline.RequestTimeout),
		zap.Float64("rate_limit_rps", opts.Pipeline.RateLimitRPS),
		zap.Bool("fail_fast", opts.Pipeline.FailFast),
	)

	dir := pipeline.NewJSONDir(opts.OutputDir)
	completed := 0
	records, err := pipeline.GenerateAll(ctx, list, product, r.orch, opts.Pipeline, func(rec pipeline.Record) error {
		completed++
		path, err := dir.WriteRecord(rec)
		if err != nil {
			// The record still lands in the aggregate file.
			r.logger.Error("email save failed",
				zap.String("lead_id", rec.LeadID.String()),
				zap.String("lead_name", rec.LeadName),
				zap.Error(err),
			)
			return nil
		}
		r.logger.Info("email saved",
			zap.String("lead_id", rec.LeadID.String()),
			zap.String("lead_name", rec.LeadName),
			zap.String("status", rec.Status),
			zap.String("path", rec.Path),
			zap.String("file", path),
			zap.Int("completed", completed),
			zap.Int("total", len(list)),
		)
		return nil
	})
	if err != nil {
		return Summary{RunID: r.id}, err
	}

	outputs := core.MultiOutput[pipeline.Record]{dir}
	if opts.Format == config.FormatCSV {
		outputs = append(outputs, pipeline.CSVOutput{Path: filepath.Join(opts.OutputDir, pipeline.CSVFile)})
	}
	if err := outputs.Store(ctx, records); err != nil {
		return Summary{RunID: r.id}, err
	}

	okCount, failed := pipeline.CountStatuses(records)
	r.logger.Info("batch run complete",
		zap.Int("ok", okCount),
		zap.Int("error", failed),
		zap.Int64("llm_calls", r.traced.Calls()),
		zap.Duration("duration", time.Since(runStart).Round(time.Millisecond)),
	)
	return Summary{RunID: r.id, Records: records, OK: okCount, Failed: failed}, nil
}

// RunSingle drafts and saves the email for one lead.
func RunSingle(ctx context.Context, ds *leads.Dataset, id string, backend generate.Backend, opts Options, logger *zap.Logger) (pipeline.Record, error) {
	lead, ok := ds.LeadByID(id)
	if !ok {
		return pipeline.Record{}, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}

	r := newRun(backend, logger)
	r.logger.Info("single lead run start", zap.String("lead_id", lead.IDString()), zap.String("lead_name", lead.DisplayName()))

	ctx, cancel := withOptionalTimeout(ctx, opts.Pipeline.RequestTimeout)
	defer cancel()

	rec := pipeline.NewRecord(lead, r.orch.Generate(ctx, lead, ds.Product()))
	path, err := pipeline.JSONDir{Dir: opts.OutputDir}.WriteRecord(rec)
	if err != nil {
		return rec, err
	}
	r.logger.Info("email saved", zap.String("status", rec.Status), zap.String("path", rec.Path), zap.String("file", path))
	return rec, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
