package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/outreach-email-pipeline/internal/app"
	"github.com/shpitdev/outreach-email-pipeline/internal/config"
	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
	"github.com/shpitdev/outreach-email-pipeline/internal/pipeline"
	"github.com/shpitdev/outreach-email-pipeline/internal/prompt"
	"github.com/shpitdev/outreach-email-pipeline/internal/version"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/redact"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		os.Exit(2)
	}

	var code int
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		_, _ = fmt.Fprintln(os.Stdout, version.Current)
		return
	case "run":
		code = runBatch(ctx, os.Args[2:])
	case "lead":
		code = runLead(ctx, os.Args[2:])
	case "prompt":
		code = runPrompt(os.Args[2:])
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		code = 2
	}
	stop()
	os.Exit(code)
}

// settings is the parsed command line on top of the resolved config.
type settings struct {
	cfg     config.Config
	model   string
	baseURL string
	id      string
}

func parseSettings(name string, args []string, withID bool) (settings, int) {
	var s settings
	cfg, err := config.Load(configPath(args), nil)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return s, 2
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var ignoredConfig string
	fs.StringVar(&ignoredConfig, "config", "", "YAML config file (env: "+config.ConfigPathEnv+")")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Generation backend: gemini, openai or stub (env: LLM_PROVIDER)")
	fs.StringVar(&s.model, "model", "", "Model name for the selected provider (env: GEMINI_MODEL / OPENAI_MODEL)")
	fs.StringVar(&s.baseURL, "base-url", "", "API base URL override for the selected provider (env: GEMINI_BASE_URL / OPENAI_BASE_URL)")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Sampling temperature (env: LLM_TEMPERATURE)")
	fs.StringVar(&cfg.DataPath, "data", cfg.DataPath, "Lead dataset: .json, .yaml or .csv (env: DATA_PATH)")
	fs.StringVar(&cfg.ProductPath, "product", cfg.ProductPath, "Product file overriding the dataset's product (env: PRODUCT_PATH)")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output directory (env: OUTPUT_PATH)")
	fs.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: json, or csv for an extra CSV file (env: OUTPUT_FORMAT)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent leads (env: WORKERS)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Per-lead timeout, 0 disables (env: REQUEST_TIMEOUT)")
	fs.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", cfg.RateLimitRPS, "Global lead rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	fs.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Stop at the first lead that fails (env: FAIL_FAST)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Debug logging (env: VERBOSE)")
	if withID {
		fs.StringVar(&s.id, "id", "", "Lead id")
	}
	if err := fs.Parse(args); err != nil {
		return s, 2
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	switch cfg.Provider {
	case config.ProviderGemini:
		applyOverride(&cfg.Gemini.Model, s.model)
		applyOverride(&cfg.Gemini.BaseURL, s.baseURL)
	case config.ProviderOpenAI:
		applyOverride(&cfg.OpenAI.Model, s.model)
		applyOverride(&cfg.OpenAI.BaseURL, s.baseURL)
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		return s, 2
	}
	if withID && strings.TrimSpace(s.id) == "" {
		_, _ = fmt.Fprintf(os.Stderr, "%s requires --id\n", name)
		return s, 2
	}
	s.cfg = cfg
	return s, 0
}

func runBatch(ctx context.Context, args []string) int {
	s, code := parseSettings("run", args, false)
	if code != 0 {
		return code
	}
	logger := newLogger(s.cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ds, code := loadDataset(s.cfg, logger)
	if code != 0 {
		return code
	}
	backend, model, err := app.NewBackend(ctx, s.cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "backend config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	logger.Info("backend ready",
		zap.String("version", version.Current),
		zap.String("provider", s.cfg.Provider),
		zap.String("model", model),
	)

	start := time.Now()
	sum, err := app.RunBatch(ctx, ds, ds.Product(), backend, options(s.cfg), logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	if sum.Skipped {
		_, _ = fmt.Fprintln(os.Stdout, "nothing to generate")
		return 0
	}
	_, _ = fmt.Fprintf(os.Stdout, "generated %d emails (%d ok, %d error) in %s, saved to %s\n",
		len(sum.Records), sum.OK, sum.Failed, time.Since(start).Round(time.Millisecond), s.cfg.OutputPath)
	return 0
}

func runLead(ctx context.Context, args []string) int {
	s, code := parseSettings("lead", args, true)
	if code != 0 {
		return code
	}
	logger := newLogger(s.cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ds, code := loadDataset(s.cfg, logger)
	if code != 0 {
		return code
	}
	backend, _, err := app.NewBackend(ctx, s.cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "backend config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	rec, err := app.RunSingle(ctx, ds, s.id, backend, options(s.cfg), logger)
	if errors.Is(err, app.ErrLeadNotFound) {
		_, _ = fmt.Fprintf(os.Stderr, "lead %s not found in %s\n", s.id, s.cfg.DataPath)
		return 1
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "lead run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	printRecord(os.Stdout, rec)
	if !rec.OK() {
		return 1
	}
	return 0
}

func runPrompt(args []string) int {
	s, code := parseSettings("prompt", args, true)
	if code != 0 {
		return code
	}
	logger := newLogger(s.cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	ds, code := loadDataset(s.cfg, logger)
	if code != 0 {
		return code
	}
	lead, ok := ds.LeadByID(s.id)
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "lead %s not found in %s\n", s.id, s.cfg.DataPath)
		return 1
	}
	_, _ = fmt.Fprintln(os.Stdout, prompt.Email(lead, ds.Product()))
	return 0
}

// loadDataset reads the dataset and applies the product override. A dataset
// that cannot be read is logged and treated as empty.
func loadDataset(cfg config.Config, logger *zap.Logger) (*leads.Dataset, int) {
	ds, err := leads.Load(cfg.DataPath)
	if err != nil {
		logger.Warn("could not load dataset, continuing with no leads",
			zap.String("path", cfg.DataPath), zap.Error(err))
	} else {
		logger.Info("dataset loaded", zap.String("path", cfg.DataPath), zap.Int("leads", len(ds.Leads())))
	}
	if cfg.ProductPath == "" {
		return ds, 0
	}
	p, err := leads.LoadProduct(cfg.ProductPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "product file error: %s\n", err)
		return nil, 2
	}
	return ds.WithProduct(p), 0
}

func options(cfg config.Config) app.Options {
	return app.Options{
		OutputDir: cfg.OutputPath,
		Format:    cfg.OutputFormat,
		Pipeline: pipeline.Options{
			Workers:        cfg.Workers,
			RequestTimeout: cfg.RequestTimeout,
			RateLimitRPS:   cfg.RateLimitRPS,
			FailFast:       cfg.FailFast,
		},
	}
}

func printRecord(w io.Writer, rec pipeline.Record) {
	_, _ = fmt.Fprintf(w, "Lead: %s (%s)\nSubject: %s\n\n%s\n", rec.LeadName, rec.Company, rec.SubjectLine, rec.EmailBody)
}

func newLogger(verbose bool) *zap.Logger {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// configPath finds --config in args before flag parsing so that file values
// can serve as flag defaults.
func configPath(args []string) string {
	for i, a := range args {
		for _, prefix := range []string{"--config", "-config"} {
			if a == prefix && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(a, prefix+"="); ok {
				return v
			}
		}
	}
	return strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
}

func applyOverride(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `outreach: draft personalized sales emails for a list of leads

Usage:
  outreach <command> [flags]

Commands:
  run      Generate an email for every lead in the dataset
  lead     Generate the email for one lead (--id)
  prompt   Print the generation prompt for one lead (--id)
  version  Print the version
  help     Show this help

Examples:
  outreach run --data data/sample_leads.json --output output
  outreach lead --id 2 --provider openai
  outreach run --provider stub --format csv

Environment:
  LLM_PROVIDER      gemini (default), openai or stub
  GEMINI_API_KEY    Gemini API key (required for gemini)
  GEMINI_MODEL      Gemini model name (default %s)
  GEMINI_BASE_URL   Optional base URL override (proxies/testing)
  OPENAI_API_KEY    OpenAI API key (required for openai)
  OPENAI_MODEL      OpenAI model name (default gpt-3.5-turbo)
  OPENAI_BASE_URL   OpenAI-compatible API base URL
  OUTREACH_CONFIG   Optional YAML config file

Variables are also read from a .env file in the working directory.

`, config.Default().Gemini.Model)
}
