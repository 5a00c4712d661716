package entity

import (
	"slices"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

// Issue is one validation finding on a record field.
type Issue struct {
	Field    string             `json:"field"`
	Message  string             `json:"message"`
	Severity constants.Severity `json:"severity"`
}

// RecordFields maps record id -> field names.
type RecordFields map[string][]string

// RecordIssues maps record id -> issues.
type RecordIssues map[string][]Issue

// Metadata carries diagnosable data produced alongside the records.
type Metadata struct {
	UnexpectedFields map[constants.EntityType]RecordFields `json:"unexpectedFields"`
	Warnings         []string                              `json:"warnings"`
}

// ExtractedData is the bundle produced by one extraction run.
type ExtractedData struct {
	Invoices        []Invoice                             `json:"invoices"`
	Products        []Product                             `json:"products"`
	Customers       []Customer                            `json:"customers"`
	Metadata        Metadata                              `json:"metadata"`
	ValidationState map[constants.EntityType]RecordIssues `json:"validationState"`
}

// NewExtractedData returns an empty bundle with every map and slice allocated
// so it serializes as empty collections rather than null.
func NewExtractedData() *ExtractedData {
	d := &ExtractedData{
		Invoices:  []Invoice{},
		Products:  []Product{},
		Customers: []Customer{},
		Metadata: Metadata{
			UnexpectedFields: map[constants.EntityType]RecordFields{},
			Warnings:         []string{},
		},
		ValidationState: map[constants.EntityType]RecordIssues{},
	}
	for _, et := range constants.EntityTypes {
		d.Metadata.UnexpectedFields[et] = RecordFields{}
		d.ValidationState[et] = RecordIssues{}
	}
	return d
}

// AddWarning appends an advisory message.
func (d *ExtractedData) AddWarning(msg string) {
	d.Metadata.Warnings = append(d.Metadata.Warnings, msg)
}

// SetUnexpected records unexpected field names for a record; nil or empty
// clears them.
func (d *ExtractedData) SetUnexpected(et constants.EntityType, id string, fields []string) {
	if len(fields) == 0 {
		delete(d.Metadata.UnexpectedFields[et], id)
		return
	}
	if d.Metadata.UnexpectedFields == nil {
		d.Metadata.UnexpectedFields = map[constants.EntityType]RecordFields{}
	}
	if d.Metadata.UnexpectedFields[et] == nil {
		d.Metadata.UnexpectedFields[et] = RecordFields{}
	}
	d.Metadata.UnexpectedFields[et][id] = slices.Clone(fields)
}

// SetIssues replaces the validation state of a record; nil or empty clears it.
func (d *ExtractedData) SetIssues(et constants.EntityType, id string, issues []Issue) {
	if d.ValidationState == nil {
		d.ValidationState = map[constants.EntityType]RecordIssues{}
	}
	if d.ValidationState[et] == nil {
		d.ValidationState[et] = RecordIssues{}
	}
	if len(issues) == 0 {
		delete(d.ValidationState[et], id)
		return
	}
	d.ValidationState[et][id] = slices.Clone(issues)
}

// Clone returns a deep copy.
func (d *ExtractedData) Clone() *ExtractedData {
	if d == nil {
		return NewExtractedData()
	}
	out := NewExtractedData()
	for _, inv := range d.Invoices {
		out.Invoices = append(out.Invoices, inv.Clone())
	}
	for _, p := range d.Products {
		out.Products = append(out.Products, p.Clone())
	}
	for _, c := range d.Customers {
		out.Customers = append(out.Customers, c.Clone())
	}
	out.Metadata.Warnings = append(out.Metadata.Warnings, d.Metadata.Warnings...)
	for et, recs := range d.Metadata.UnexpectedFields {
		cp := make(RecordFields, len(recs))
		for id, f := range recs {
			cp[id] = slices.Clone(f)
		}
		out.Metadata.UnexpectedFields[et] = cp
	}
	for et, recs := range d.ValidationState {
		cp := make(RecordIssues, len(recs))
		for id, is := range recs {
			cp[id] = slices.Clone(is)
		}
		out.ValidationState[et] = cp
	}
	return out
}

// Collections is the record set the propagator works on.
type Collections struct {
	Invoices  []Invoice
	Products  []Product
	Customers []Customer
}

// Collections returns a deep copy of the three record collections.
func (d *ExtractedData) Collections() Collections {
	c := d.Clone()
	return Collections{Invoices: c.Invoices, Products: c.Products, Customers: c.Customers}
}
