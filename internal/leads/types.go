package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID is a lead identifier. Source documents use either integers or strings;
// the source JSON kind is kept so output records echo it unchanged.
type ID struct {
	text    string
	numeric bool
}

// IntID returns a numeric ID.
func IntID(n int) ID {
	return ID{text: fmt.Sprint(n), numeric: true}
}

// StringID returns a textual ID.
func StringID(s string) ID {
	return ID{text: s}
}

// String returns the ID text, or "" when unset.
func (id ID) String() string { return id.text }

// IsZero reports whether the ID was absent from the source record.
func (id ID) IsZero() bool { return id.text == "" && !id.numeric }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric && json.Valid([]byte(id.text)) {
		return []byte(id.text), nil
	}
	return json.Marshal(id.text)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ID{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID{text: s}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("lead id: %w", err)
		}
		*id = ID{text: n.String(), numeric: true}
		return nil
	}
}

func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("lead id: line %d: expected scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!null":
		*id = ID{}
	case "!!int", "!!float":
		// YAML accepts forms like 007, 0x1F, +5 and .inf that are not JSON
		// numbers. Those keep their text as a string ID.
		text := strings.TrimSpace(node.Value)
		if !json.Valid([]byte(text)) {
			*id = ID{text: text}
			return nil
		}
		*id = ID{text: text, numeric: true}
	default:
		*id = ID{text: node.Value}
	}
	return nil
}

// Lead is a sales prospect. Every field is optional; use Resolved to fill
// gaps from Defaults.
type Lead struct {
	ID               ID       `json:"id" yaml:"id"`
	Name             string   `json:"name,omitempty" yaml:"name"`
	JobTitle         string   `json:"job_title,omitempty" yaml:"job_title"`
	Company          string   `json:"company,omitempty" yaml:"company"`
	Industry         string   `json:"industry,omitempty" yaml:"industry"`
	Interests        []string `json:"interests,omitempty" yaml:"interests"`
	PainPoints       []string `json:"pain_points,omitempty" yaml:"pain_points"`
	LinkedInActivity string   `json:"linkedin_activity,omitempty" yaml:"linkedin_activity"`
}

// Product is the offering being pitched.
type Product struct {
	Name        string   `json:"name,omitempty" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	KeyFeatures []string `json:"key_features,omitempty" yaml:"key_features"`
	Benefits    []string `json:"benefits,omitempty" yaml:"benefits"`
}

// IsZero reports whether no field of the lead was provided.
func (l Lead) IsZero() bool {
	return l.ID.IsZero() &&
		l.Name == "" &&
		l.JobTitle == "" &&
		l.Company == "" &&
		l.Industry == "" &&
		len(l.Interests) == 0 &&
		len(l.PainPoints) == 0 &&
		l.LinkedInActivity == ""
}

// IsZero reports whether no field of the product was provided.
func (p Product) IsZero() bool {
	return p.Name == "" && p.Description == "" && len(p.KeyFeatures) == 0 && len(p.Benefits) == 0
}

// IDString is the lead id as used in output records and file names.
func (l Lead) IDString() string {
	if l.ID.IsZero() {
		return "unknown"
	}
	return l.ID.String()
}

// DisplayName is the name used for logging and output records.
func (l Lead) DisplayName() string {
	if strings.TrimSpace(l.Name) == "" {
		return "Unknown Lead"
	}
	return l.Name
}

// DisplayCompany is the company used in output records.
func (l Lead) DisplayCompany() string {
	if strings.TrimSpace(l.Company) == "" {
		return "Unknown Company"
	}
	return l.Company
}
