package consumer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/core"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/redact"
	"github.com/shpitdev/outreach-email-pipeline/pkg/pipeline/worker"
)

type memoryOutput struct {
	rows []string
}

func (m *memoryOutput) Store(_ context.Context, rows []string) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func TestPublicPackagesFromOutsideModule(t *testing.T) {
	t.Parallel()

	upper := core.ProcessFunc[string, string](func(_ context.Context, in string) (string, error) {
		if in == "" {
			return "", errors.New("empty input")
		}
		return strings.ToUpper(in), nil
	})

	out, err := worker.ProcessAll(context.Background(), []string{"ada", "", "grace"}, upper.Process, worker.Options{Workers: 2})
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if len(out) != 3 || out[0].Output != "ADA" || out[1].Err == nil || out[2].Output != "GRACE" {
		t.Fatalf("unexpected output: %#v", out)
	}

	a, b := &memoryOutput{}, &memoryOutput{}
	var sink core.OutputAdapter[string] = core.MultiOutput[string]{a, b}
	if err := sink.Store(context.Background(), []string{out[0].Output}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if len(a.rows) != 1 || len(b.rows) != 1 {
		t.Fatalf("expected both outputs to receive the row: %v %v", a.rows, b.rows)
	}

	if got := redact.Secrets("api_key=abc123"); strings.Contains(got, "abc123") {
		t.Fatalf("secret not redacted: %q", got)
	}
}
