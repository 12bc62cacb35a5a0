// Package pipeline runs the email orchestrator over a batch of leads and
// persists the resulting records.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
	"github.com/shpitdev/outreach-email-pipeline/internal/outreach"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/core"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/redact"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/worker"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Record is the stable per-lead output contract.
type Record struct {
	LeadID      leads.ID `json:"lead_id"`
	LeadName    string   `json:"lead_name"`
	Company     string   `json:"company"`
	SubjectLine string   `json:"subject_line"`
	EmailBody   string   `json:"email_body"`

	// CSV-only columns.
	Status string `json:"-"`
	Error  string `json:"-"`
	Path   string `json:"-"`
}

// OK reports whether the record carries a generated email.
func (r Record) OK() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusOK)
}

type Options struct {
	Workers        int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	// FailFast stops the batch at the first lead that ends in failure.
	FailFast bool
}

// Generator produces one outreach result per lead.
type Generator interface {
	Generate(ctx context.Context, lead leads.Lead, product leads.Product) outreach.Result
}

// ErrLeadFailed is returned by GenerateAll in fail-fast mode.
var ErrLeadFailed = errors.New("lead generation failed")

// GenerateAll drafts an email for every lead and returns one Record per lead
// in input order.
//
// A failing lead is recorded with subject "Error" and does not stop the batch
// unless opts.FailFast is set. onRecord, if non-nil, is called in completion
// order as each lead finishes.
func GenerateAll(
	ctx context.Context,
	list []leads.Lead,
	product leads.Product,
	gen Generator,
	opts Options,
	onRecord func(Record) error,
) ([]Record, error) {
	policy := worker.FailurePolicyPartialOutput
	if opts.FailFast {
		policy = worker.FailurePolicyFailFast
	}

	process := core.ProcessFunc[leads.Lead, outreach.Result](func(ctx context.Context, lead leads.Lead) (outreach.Result, error) {
		res := gen.Generate(ctx, lead, product)
		if opts.FailFast && !res.OK() {
			return res, ErrLeadFailed
		}
		return res, nil
	})

	var cb func(worker.Result[leads.Lead, outreach.Result]) error
	if onRecord != nil {
		cb = func(r worker.Result[leads.Lead, outreach.Result]) error {
			return onRecord(toRecord(r))
		}
	}

	out, err := worker.ProcessAllWithCallback(ctx, list, process.Process, cb, worker.Options{
		Workers:        opts.Workers,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
		FailurePolicy:  policy,
	})
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(out))
	for _, item := range out {
		records = append(records, toRecord(item))
	}
	return records, nil
}

// NewRecord builds the output record for one orchestrator result.
func NewRecord(lead leads.Lead, res outreach.Result) Record {
	subject, body := res.Pair()
	rec := Record{
		LeadID:      lead.ID,
		LeadName:    lead.DisplayName(),
		Company:     lead.DisplayCompany(),
		SubjectLine: subject,
		EmailBody:   body,
		Status:      StatusOK,
		Path:        string(res.Path),
	}
	if lead.ID.IsZero() {
		rec.LeadID = leads.StringID(lead.IDString())
	}
	if !res.OK() {
		rec.Status = StatusError
		rec.EmailBody = redact.Secrets(body)
		rec.Error = rec.EmailBody
	}
	return rec
}

func toRecord(item worker.Result[leads.Lead, outreach.Result]) Record {
	if item.Err != nil && item.Output.Failure == "" && item.Output.Email.SubjectLine == "" {
		// The processor never produced a result (panic or cancellation).
		item.Output = outreach.Result{
			Failure: "Failed to generate email: " + item.Err.Error(),
			Path:    outreach.PathNone,
		}
	}
	return NewRecord(item.Input, item.Output)
}

// CountStatuses tallies ok and error records.
func CountStatuses(records []Record) (okRecords int, errorRecords int) {
	for _, r := range records {
		if r.OK() {
			okRecords++
			continue
		}
		errorRecords++
	}
	return okRecords, errorRecords
}
