package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ListSeparator splits list-valued CSV cells (interests, pain_points).
const ListSeparator = ";"

// CSVHeader is the column set understood by ReadLeadsCSV.
func CSVHeader() []string {
	return []string{
		"id",
		"name",
		"job_title",
		"company",
		"industry",
		"interests",
		"pain_points",
		"linkedin_activity",
	}
}

// ReadLeadsCSV reads leads from a CSV with a header row.
//
// Column names are matched case-insensitively; unknown columns are ignored and
// missing ones leave the field empty. At least one known column is required.
func ReadLeadsCSV(r io.Reader) ([]Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	known := 0
	for _, col := range CSVHeader() {
		if _, ok := index[col]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("no lead columns found in header %q", header)
	}

	var out []Lead
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		out = append(out, Lead{
			ID:               ParseID(get("id")),
			Name:             get("name"),
			JobTitle:         get("job_title"),
			Company:          get("company"),
			Industry:         get("industry"),
			Interests:        splitList(get("interests")),
			PainPoints:       splitList(get("pain_points")),
			LinkedInActivity: get("linkedin_activity"),
		})
	}
}

// ParseID reads an id from text: integers in canonical form become numeric
// ids, anything else (including 007 or +5) a string id, and empty text the
// zero ID.
func ParseID(v string) ID {
	v = strings.TrimSpace(v)
	if v == "" {
		return ID{}
	}
	if n, err := strconv.Atoi(v); err == nil && strconv.Itoa(n) == v {
		return IntID(n)
	}
	return StringID(v)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
