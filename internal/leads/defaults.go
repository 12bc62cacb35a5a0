package leads

import "strings"

// DefaultTable holds the fallback value for every optional field.
type DefaultTable struct {
	Lead    Lead
	Product Product
}

// Defaults is the single table consulted whenever a field is missing or empty.
var Defaults = DefaultTable{
	Lead: Lead{
		Name:             "Prospect",
		JobTitle:         "Professional",
		Company:          "Company",
		Industry:         "Industry",
		Interests:        []string{"professional growth"},
		PainPoints:       []string{"efficiency"},
		LinkedInActivity: "None",
	},
	Product: Product{
		Name:        "Our Product",
		Description: "A solution designed to help businesses",
		KeyFeatures: []string{"customizable features"},
		Benefits:    []string{"improved efficiency"},
	},
}

// Resolved returns a copy of l with every missing or empty field replaced by
// its entry in Defaults.
func (l Lead) Resolved() Lead {
	d := Defaults.Lead
	return Lead{
		ID:               l.ID,
		Name:             orText(l.Name, d.Name),
		JobTitle:         orText(l.JobTitle, d.JobTitle),
		Company:          orText(l.Company, d.Company),
		Industry:         orText(l.Industry, d.Industry),
		Interests:        orList(l.Interests, d.Interests),
		PainPoints:       orList(l.PainPoints, d.PainPoints),
		LinkedInActivity: orText(l.LinkedInActivity, d.LinkedInActivity),
	}
}

// Resolved returns a copy of p with defaults applied.
func (p Product) Resolved() Product {
	d := Defaults.Product
	return Product{
		Name:        orText(p.Name, d.Name),
		Description: orText(p.Description, d.Description),
		KeyFeatures: orList(p.KeyFeatures, d.KeyFeatures),
		Benefits:    orList(p.Benefits, d.Benefits),
	}
}

func orText(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// orList drops blank entries; a list with nothing left takes the fallback.
func orList(v, fallback []string) []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
