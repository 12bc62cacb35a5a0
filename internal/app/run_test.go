package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shpitdev/outreach-email-pipeline/internal/app"
	"github.com/shpitdev/outreach-email-pipeline/internal/config"
	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
	"github.com/shpitdev/outreach-email-pipeline/internal/mockgemini"
	"github.com/shpitdev/outreach-email-pipeline/internal/pipeline"
)

const datasetJSON = `{
  "leads": [
    {"id": 1, "name": "Ada Lovelace", "company": "Engines Ltd", "interests": ["automation"], "pain_points": ["manual reporting"]},
    {"id": 2, "name": "Grace Hopper", "company": "Navy"}
  ],
  "product": {"name": "Ledger", "description": "Bookkeeping on autopilot"}
}`

func dataset(t *testing.T) *leads.Dataset {
	t.Helper()
	ds, err := leads.Parse([]byte(datasetJSON), leads.FormatJSON)
	require.NoError(t, err)
	return ds
}

func readAggregate(t *testing.T, dir string) []pipeline.Record {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, pipeline.AggregateFile))
	require.NoError(t, err)
	var agg struct {
		GeneratedEmails []pipeline.Record `json:"generated_emails"`
	}
	require.NoError(t, json.Unmarshal(b, &agg))
	return agg.GeneratedEmails
}

func TestRunBatch_StubBackend(t *testing.T) {
	ds := dataset(t)
	dir := filepath.Join(t.TempDir(), "output")

	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), generate.Stub{}, app.Options{OutputDir: dir}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.OK)
	assert.Zero(t, sum.Failed)

	assert.FileExists(t, filepath.Join(dir, "email_1_Ada_Lovelace.json"))
	assert.FileExists(t, filepath.Join(dir, "email_2_Grace_Hopper.json"))
	assert.NoFileExists(t, filepath.Join(dir, pipeline.CSVFile))

	got := readAggregate(t, dir)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada Lovelace", got[0].LeadName)
	assert.Equal(t, "A quick idea about Ledger", got[0].SubjectLine)
	assert.Equal(t, "Grace Hopper", got[1].LeadName)
}

func TestRunBatch_CSVFormat(t *testing.T) {
	ds := dataset(t)
	dir := t.TempDir()

	_, err := app.RunBatch(context.Background(), ds, ds.Product(), generate.Stub{}, app.Options{OutputDir: dir, Format: config.FormatCSV}, nil)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, pipeline.CSVFile))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := pipeline.ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, pipeline.StatusOK, records[0].Status)
	assert.Equal(t, "direct", records[0].Path)
}

func TestRunBatch_BackendDown(t *testing.T) {
	ds := dataset(t)
	dir := t.TempDir()
	down := generate.BackendFunc(func(context.Context, string) (string, error) {
		return "", errors.New("connection refused api_key=sk-secret")
	})

	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), down, app.Options{OutputDir: dir}, nil)
	require.NoError(t, err, "per-lead failures must not fail the run")
	assert.Zero(t, sum.OK)
	assert.Equal(t, 2, sum.Failed)

	for _, r := range readAggregate(t, dir) {
		assert.Equal(t, "Error", r.SubjectLine)
		assert.True(t, strings.HasPrefix(r.EmailBody, "Failed to generate email: "), r.EmailBody)
		assert.NotContains(t, r.EmailBody, "sk-secret")
	}
}

func TestRunBatch_SkipsWithoutLeadsOrProduct(t *testing.T) {
	tests := []struct {
		name    string
		ds      *leads.Dataset
		product leads.Product
	}{
		{name: "no leads", ds: leads.NewDataset(nil, leads.Product{Name: "Ledger"}), product: leads.Product{Name: "Ledger"}},
		{name: "no product", ds: leads.NewDataset([]leads.Lead{{Name: "Ada"}}, leads.Product{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "output")
			core, logs := observer.New(zapcore.WarnLevel)
			called := false
			backend := generate.BackendFunc(func(context.Context, string) (string, error) {
				called = true
				return "Subject: x\n\ny", nil
			})

			sum, err := app.RunBatch(context.Background(), tt.ds, tt.product, backend, app.Options{OutputDir: dir}, zap.New(core))
			require.NoError(t, err)
			assert.True(t, sum.Skipped)
			assert.False(t, called)
			assert.NoDirExists(t, dir)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestRunBatch_LogsCarryRunID(t *testing.T) {
	ds := dataset(t)
	core, logs := observer.New(zapcore.DebugLevel)

	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), generate.Stub{}, app.Options{OutputDir: t.TempDir()}, zap.New(core))
	require.NoError(t, err)

	require.NotZero(t, logs.Len())
	for _, e := range logs.All() {
		assert.Equal(t, sum.RunID, e.ContextMap()["run_id"], e.Message)
	}
	assert.Equal(t, 2, logs.FilterMessage("llm request").Len())
	assert.Equal(t, 2, logs.FilterMessage("email saved").Len())
}

func TestRunBatch_GeminiAgainstMock(t *testing.T) {
	mock := mockgemini.New(nil)
	mock.RequireAPIKey("test-key")
	ts := httptest.NewServer(mock.Handler())
	defer ts.Close()

	cfg := config.Default()
	cfg.Gemini.APIKey = "test-key"
	cfg.Gemini.BaseURL = ts.URL
	cfg.Gemini.Model = "mock-model"

	backend, model, err := app.NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock-model", model)

	ds := dataset(t)
	dir := t.TempDir()
	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), backend, app.Options{OutputDir: dir, Pipeline: pipeline.Options{Workers: 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OK)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, http.MethodPost, c.Method)
		assert.True(t, strings.HasSuffix(c.Path, "/models/mock-model:generateContent"), c.Path)
		assert.Contains(t, c.Prompt, "Product Name: Ledger")
	}
}

func TestRunBatch_GeminiFallbackAgainstMock(t *testing.T) {
	mock := mockgemini.New(func(prompt string) (string, int) {
		if strings.HasPrefix(prompt, "Create a personalized sales email") {
			return "invalid argument", http.StatusBadRequest
		}
		return mockgemini.StubResponder(prompt)
	})
	ts := httptest.NewServer(mock.Handler())
	defer ts.Close()

	cfg := config.Default()
	cfg.Gemini.APIKey = "test-key"
	cfg.Gemini.BaseURL = ts.URL
	backend, _, err := app.NewBackend(context.Background(), cfg)
	require.NoError(t, err)

	ds := leads.NewDataset(dataset(t).Leads()[:1], dataset(t).Product())
	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), backend, app.Options{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)
	require.Len(t, sum.Records, 1)
	assert.Equal(t, "fallback", sum.Records[0].Path)
	assert.Equal(t, "A quick idea about Ledger", sum.Records[0].SubjectLine)
}

func TestRunSingle(t *testing.T) {
	ds := dataset(t)
	dir := t.TempDir()

	rec, err := app.RunSingle(context.Background(), ds, "2", generate.Stub{}, app.Options{OutputDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", rec.LeadName)
	assert.True(t, rec.OK())
	assert.FileExists(t, filepath.Join(dir, "email_2_Grace_Hopper.json"))
	assert.NoFileExists(t, filepath.Join(dir, pipeline.AggregateFile))

	_, err = app.RunSingle(context.Background(), ds, "42", generate.Stub{}, app.Options{OutputDir: dir}, nil)
	assert.ErrorIs(t, err, app.ErrLeadNotFound)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		model   string
		wantErr string
	}{
		{name: "stub", mutate: func(c *config.Config) { c.Provider = config.ProviderStub }, model: "stub"},
		{name: "openai", mutate: func(c *config.Config) {
			c.Provider = config.ProviderOpenAI
			c.OpenAI.APIKey = "sk-test"
		}, model: "gpt-3.5-turbo"},
		{name: "gemini without key", mutate: func(*config.Config) {}, wantErr: "GEMINI_API_KEY"},
		{name: "openai without key", mutate: func(c *config.Config) { c.Provider = config.ProviderOpenAI }, wantErr: "OPENAI_API_KEY"},
		{name: "unknown", mutate: func(c *config.Config) { c.Provider = "bard" }, wantErr: "unknown provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			_, model, err := app.NewBackend(context.Background(), cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, model)
		})
	}
}

func TestRunBatch_SaveFailureDoesNotAbortRun(t *testing.T) {
	ds := dataset(t)
	dir := t.TempDir()
	// A directory where the first lead's file should go makes that write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "email_1_Ada_Lovelace.json"), 0o755))
	core, logs := observer.New(zapcore.ErrorLevel)

	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), generate.Stub{}, app.Options{OutputDir: dir}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OK)
	assert.Equal(t, 1, logs.FilterMessage("email save failed").Len())

	assert.FileExists(t, filepath.Join(dir, "email_2_Grace_Hopper.json"))
	assert.Len(t, readAggregate(t, dir), 2)
}

func TestRunBatch_YAMLIDsAndAnonymousLeads(t *testing.T) {
	ds, err := leads.Parse([]byte(`
leads:
  - id: 007
    name: James
  - company: Nameless
  - company: Also Nameless
product:
  name: Ledger
`), leads.FormatYAML)
	require.NoError(t, err)
	dir := t.TempDir()

	sum, err := app.RunBatch(context.Background(), ds, ds.Product(), generate.Stub{}, app.Options{OutputDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.OK)

	assert.FileExists(t, filepath.Join(dir, "email_007_James.json"))
	assert.FileExists(t, filepath.Join(dir, "email_unknown_Unknown_Lead.json"))
	assert.FileExists(t, filepath.Join(dir, "email_unknown_Unknown_Lead_2.json"))

	got := readAggregate(t, dir)
	require.Len(t, got, 3)
	assert.Equal(t, "007", got[0].LeadID.String())
	assert.Equal(t, "unknown", got[1].LeadID.String())
}
