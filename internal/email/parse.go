// Package email extracts a subject line and body from generated text.
package email

import "strings"

// DefaultSubject is used when generated text carries no subject marker.
const DefaultSubject = "Generated Email"

// Marker prefixes, matched case-insensitively against trimmed lines.
var markers = []string{"subject line:", "subject:"}

// GeneratedEmail is one drafted outreach email.
type GeneratedEmail struct {
	SubjectLine string `json:"subject_line"`
	Body        string `json:"email_body"`
}

// Parse splits generated content into subject and body.
//
// The first line (after trimming) that starts with "Subject Line:" or
// "Subject:" in any case is the marker line. Its remainder is the subject and
// every later line, rejoined and trimmed, is the body. Later marker-like lines
// are body text. Without a marker, non-empty content becomes the body under
// DefaultSubject. Empty content yields two empty strings.
func Parse(content string) (subject, body string) {
	content = strings.TrimSpace(content)
	lines := strings.Split(content, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		prefix, ok := matchMarker(line)
		if !ok {
			continue
		}
		subject = strings.TrimSpace(line[len(prefix):])
		body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		break
	}

	if subject == "" && content != "" {
		return DefaultSubject, content
	}
	return subject, body
}

// ParseEmail is Parse returning a GeneratedEmail.
func ParseEmail(content string) GeneratedEmail {
	s, b := Parse(content)
	return GeneratedEmail{SubjectLine: s, Body: b}
}

func matchMarker(line string) (string, bool) {
	for _, m := range markers {
		if len(line) >= len(m) && strings.EqualFold(line[:len(m)], m) {
			return m, true
		}
	}
	return "", false
}
