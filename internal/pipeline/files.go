package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// AggregateFile holds every record of a run under "generated_emails".
	AggregateFile = "all_generated_emails.json"
	// CSVFile is written alongside the JSON files in csv output mode.
	CSVFile = "generated_emails.csv"
)

var fileNameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// FileName is the per-lead file name: email_<id>_<name>.json with spaces in
// the name replaced by underscores.
func FileName(r Record) string {
	id := "unknown"
	if !r.LeadID.IsZero() {
		id = r.LeadID.String()
	}
	return fmt.Sprintf("email_%s_%s.json", fileNameReplacer.Replace(id), fileNameReplacer.Replace(r.LeadName))
}

// JSONDir writes records as JSON files under Dir.
//
// A JSONDir from NewJSONDir never reuses a per-lead file name: a repeated
// name gets a _2, _3, ... suffix. The zero value overwrites.
type JSONDir struct {
	Dir   string
	names *nameSet
}

func NewJSONDir(dir string) JSONDir {
	return JSONDir{Dir: dir, names: &nameSet{taken: make(map[string]bool)}}
}

// WriteRecord writes one per-lead file and returns its path.
func (d JSONDir) WriteRecord(r Record) (string, error) {
	name := FileName(r)
	if d.names != nil {
		name = d.names.claim(name)
	}
	path := filepath.Join(d.Dir, name)
	if err := writeJSON(path, r); err != nil {
		return "", err
	}
	return path, nil
}

// Store writes the aggregate file.
func (d JSONDir) Store(_ context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return writeJSON(filepath.Join(d.Dir, AggregateFile), struct {
		GeneratedEmails []Record `json:"generated_emails"`
	}{records})
}

type nameSet struct {
	mu    sync.Mutex
	taken map[string]bool
}

func (s *nameSet) claim(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := name
	for i := 2; s.taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d.json", strings.TrimSuffix(name, ".json"), i)
	}
	s.taken[candidate] = true
	return candidate
}

// CSVOutput writes the records as a CSV file at Path.
type CSVOutput struct {
	Path string
}

func (c CSVOutput) Store(_ context.Context, records []Record) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return err
	}
	return writeFile(c.Path, buf.Bytes())
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(b, '\n'))
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
