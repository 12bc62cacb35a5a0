// Package config resolves run settings from defaults, an optional YAML file,
// and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shpitdev/outreach-email-pipeline/internal/generate/gemini"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate/openai"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"

	FormatJSON = "json"
	FormatCSV  = "csv"

	DefaultDataPath    = "data/sample_leads.json"
	DefaultOutputPath  = "output"
	DefaultTemperature = 0.7

	// ConfigPathEnv names the YAML config file when --config is not given.
	ConfigPathEnv = "OUTREACH_CONFIG"
)

type Gemini struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Config is the fully resolved run configuration.
type Config struct {
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
	Gemini      Gemini  `yaml:"gemini"`
	OpenAI      OpenAI  `yaml:"openai"`

	DataPath     string `yaml:"data_path"`
	ProductPath  string `yaml:"product_path"`
	OutputPath   string `yaml:"output_path"`
	OutputFormat string `yaml:"output_format"`

	Workers        int           `yaml:"workers"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	FailFast       bool          `yaml:"fail_fast"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Provider:     ProviderGemini,
		Temperature:  DefaultTemperature,
		Gemini:       Gemini{Model: gemini.DefaultModel},
		OpenAI:       OpenAI{Model: openai.DefaultModel, BaseURL: openai.DefaultBaseURL},
		DataPath:     DefaultDataPath,
		OutputPath:   DefaultOutputPath,
		OutputFormat: FormatJSON,
		Workers:      1,
	}
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load resolves a Config. path may be empty, in which case only defaults and
// the environment apply. A nil lookup reads the process environment.
func Load(path string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("LLM_PROVIDER", &c.Provider)
	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("GEMINI_MODEL", &c.Gemini.Model)
	str("GEMINI_BASE_URL", &c.Gemini.BaseURL)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	str("DATA_PATH", &c.DataPath)
	str("PRODUCT_PATH", &c.ProductPath)
	str("OUTPUT_PATH", &c.OutputPath)
	str("OUTPUT_FORMAT", &c.OutputFormat)

	var err error
	if c.Temperature, err = envFloat(lookup, "LLM_TEMPERATURE", c.Temperature); err != nil {
		return err
	}
	if c.Workers, err = envInt(lookup, "WORKERS", c.Workers); err != nil {
		return err
	}
	if c.RateLimitRPS, err = envFloat(lookup, "RATE_LIMIT_RPS", c.RateLimitRPS); err != nil {
		return err
	}
	if c.RequestTimeout, err = envDuration(lookup, "REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.FailFast, err = envBool(lookup, "FAIL_FAST", c.FailFast); err != nil {
		return err
	}
	if c.Verbose, err = envBool(lookup, "VERBOSE", c.Verbose); err != nil {
		return err
	}
	return nil
}

// Validate checks enumerations and ranges. Credentials are checked by the
// backend constructors.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case ProviderGemini, ProviderOpenAI, ProviderStub:
	default:
		return fmt.Errorf("invalid provider %q (want %s, %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI, ProviderStub)
	}
	switch strings.ToLower(strings.TrimSpace(c.OutputFormat)) {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("invalid output format %q (want %s or %s)", c.OutputFormat, FormatJSON, FormatCSV)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %g", c.RateLimitRPS)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must be >= 0, got %s", c.RequestTimeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	}
	return nil
}

func envInt(lookup LookupFunc, varName string, fallback int) (int, error) {
	v, _ := lookup(varName)
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(lookup LookupFunc, varName string, fallback float64) (float64, error) {
	v, _ := lookup(varName)
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(lookup LookupFunc, varName string, fallback time.Duration) (time.Duration, error) {
	v, _ := lookup(varName)
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(lookup LookupFunc, varName string, fallback bool) (bool, error) {
	v, _ := lookup(varName)
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
