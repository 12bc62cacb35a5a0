package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
)

// Header returns the stable CSV header for Record.
func Header() []string {
	return []string{
		"lead_id",
		"lead_name",
		"company",
		"subject_line",
		"email_body",
		"status",
		"error",
		"path",
	}
}

// WriteCSV writes records as a CSV with the stable Header() ordering.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		id := ""
		if !r.LeadID.IsZero() {
			id = r.LeadID.String()
		}
		if err := cw.Write([]string{
			id,
			r.LeadName,
			r.Company,
			r.SubjectLine,
			r.EmailBody,
			r.Status,
			r.Error,
			r.Path,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads records written by WriteCSV.
//
// Extra columns are ignored. Required columns from Header() must exist.
// Numeric ids come back as numbers.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range Header() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var records []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		get := func(col string) string {
			i := index[col]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		records = append(records, Record{
			LeadID:      leads.ParseID(get("lead_id")),
			LeadName:    get("lead_name"),
			Company:     get("company"),
			SubjectLine: get("subject_line"),
			EmailBody:   get("email_body"),
			Status:      get("status"),
			Error:       get("error"),
			Path:        get("path"),
		})
	}
}
