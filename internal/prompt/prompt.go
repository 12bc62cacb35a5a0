// Package prompt renders lead and product records into generation prompts.
//
// All builders are pure: the same records always produce the same text, and
// missing fields are filled from leads.Defaults before rendering.
package prompt

import (
	"strings"
	"text/template"

	"github.com/shpitdev/outreach-email-pipeline/internal/leads"
)

// ListSeparator joins list-valued fields inside a prompt.
const ListSeparator = ", "

var funcs = template.FuncMap{
	"join": func(v []string) string { return strings.Join(v, ListSeparator) },
}

var (
	emailTmpl    = template.Must(template.New("email").Funcs(funcs).Parse(emailTemplate))
	analysisTmpl = template.Must(template.New("analysis").Funcs(funcs).Parse(analysisTemplate))
	writerTmpl   = template.Must(template.New("writer").Funcs(funcs).Parse(writerTemplate))
)

type data struct {
	Lead     leads.Lead
	Product  leads.Product
	Analysis string
	Shape    string
}

// Email builds the single-shot prompt used by the direct path.
func Email(lead leads.Lead, product leads.Product) string {
	return render(emailTmpl, data{
		Lead:    lead.Resolved(),
		Product: product.Resolved(),
		Shape:   OutputShape,
	})
}

// Analysis builds the first fallback round: a free-text analysis of the lead.
func Analysis(lead leads.Lead) string {
	return render(analysisTmpl, data{Lead: lead.Resolved()})
}

// Writer builds the second fallback round, carrying the analysis forward as
// context for the final email.
func Writer(analysis string, product leads.Product) string {
	analysis = strings.TrimSpace(analysis)
	if analysis == "" {
		analysis = "No analysis available."
	}
	return render(writerTmpl, data{
		Product:  product.Resolved(),
		Analysis: analysis,
		Shape:    OutputShape,
	})
}

func render(t *template.Template, d data) string {
	var sb strings.Builder
	// Fixed templates over plain strings: Execute cannot fail here.
	_ = t.Execute(&sb, d)
	return strings.TrimSpace(sb.String())
}
