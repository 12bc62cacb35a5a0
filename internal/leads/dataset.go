package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv":
		return FormatCSV
	default:
		return FormatJSON
	}
}

type document struct {
	Leads   []Lead  `json:"leads" yaml:"leads"`
	Product Product `json:"product" yaml:"product"`
}

// Dataset is the loaded input: an ordered list of leads and one product.
// It is read-only after loading.
type Dataset struct {
	leads   []Lead
	product Product
}

// NewDataset builds a dataset from already-decoded records.
func NewDataset(leads []Lead, product Product) *Dataset {
	return &Dataset{leads: append([]Lead(nil), leads...), product: product}
}

// Load reads a dataset from path.
//
// Load never returns a nil dataset. A missing or malformed file yields an
// empty dataset together with an error describing why; callers treat that
// error as a warning.
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &Dataset{}, fmt.Errorf("read data file: %w", err)
	}
	return Parse(b, FormatFromPath(path))
}

// Parse decodes a dataset document. Like Load, it returns an empty dataset
// alongside any decode error.
func Parse(b []byte, format Format) (*Dataset, error) {
	if format == FormatCSV {
		leads, err := ReadLeadsCSV(bytes.NewReader(b))
		if err != nil {
			return &Dataset{}, fmt.Errorf("parse csv leads: %w", err)
		}
		return &Dataset{leads: leads}, nil
	}

	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(b, &doc)
	default:
		err = json.Unmarshal(b, &doc)
	}
	if err != nil {
		return &Dataset{}, fmt.Errorf("parse %s dataset: %w", format, err)
	}
	return &Dataset{leads: doc.Leads, product: doc.Product}, nil
}

// LoadProduct reads only the product section of a JSON or YAML document.
func LoadProduct(path string) (Product, error) {
	ds, err := Load(path)
	if err != nil {
		return Product{}, err
	}
	return ds.Product(), nil
}

// Leads returns all leads in document order.
func (d *Dataset) Leads() []Lead {
	return append([]Lead(nil), d.leads...)
}

// Product returns the product record, zero-valued if absent.
func (d *Dataset) Product() Product {
	return d.product
}

// WithProduct returns a copy of the dataset with its product replaced.
func (d *Dataset) WithProduct(p Product) *Dataset {
	return &Dataset{leads: d.leads, product: p}
}

// LeadByID finds a lead by the text form of its id.
func (d *Dataset) LeadByID(id string) (Lead, bool) {
	id = strings.TrimSpace(id)
	for _, l := range d.leads {
		if !l.ID.IsZero() && l.ID.String() == id {
			return l, true
		}
	}
	return Lead{}, false
}

// Load implements core.InputAdapter.
func (d *Dataset) Load(_ context.Context) ([]Lead, error) {
	return d.Leads(), nil
}
