package outreach

import "github.com/shpitdev/outreach-email-pipeline/internal/email"

// Path names the strategy that produced a Result.
type Path string

const (
	PathDirect   Path = "direct"
	PathFallback Path = "fallback"
	PathNone     Path = "none"
)

const (
	// ErrorSubject is the subject of every failed result.
	ErrorSubject = "Error"
	// ParseFaultSubject marks a direct-path result whose parse step faulted.
	ParseFaultSubject = "Generated Subject"

	failurePrefix    = "Failed to generate email: "
	insufficientData = "Insufficient data provided to generate email."
)

// Result is the outcome for one (lead, product) pair: either an Email or a
// Failure diagnostic, never both.
type Result struct {
	Email   email.GeneratedEmail
	Failure string
	Path    Path

	// Analysis is the first-round text of the fallback path, kept as an
	// audit trail. Empty for direct-path results.
	Analysis string
}

// OK reports whether the result carries an email.
func (r Result) OK() bool { return r.Failure == "" }

// Pair returns the (subject, body) form. Failures map to ("Error", diagnostic).
func (r Result) Pair() (subject, body string) {
	if !r.OK() {
		return ErrorSubject, r.Failure
	}
	return r.Email.SubjectLine, r.Email.Body
}
