package entity

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

type fieldSet map[string]struct{}

func newFieldSet(names ...string) fieldSet {
	s := make(fieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name belongs to the set.
func (s fieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

var (
	invoiceFields = newFieldSet(
		"id", "serialNumber", "customerName", "productName", "quantity", "tax",
		"totalAmount", "date", "makingCharges", "debitCardCharges",
		"shippingCharges", "taxableAmount", "cgst", "sgst", "gstIn",
	)
	productFields  = newFieldSet("id", "name", "quantity", "unitPrice", "tax", "priceWithTax", "discount")
	customerFields = newFieldSet("id", "name", "phoneNumber", "totalPurchaseAmount", "email", "address")

	invoiceNumeric = newFieldSet(
		"quantity", "tax", "totalAmount", "taxableAmount", "cgst", "sgst",
		"makingCharges", "debitCardCharges", "shippingCharges",
	)
	productNumeric  = newFieldSet("quantity", "unitPrice", "tax", "priceWithTax", "discount")
	customerNumeric = newFieldSet("totalPurchaseAmount")
)

// KnownFields is the fixed schema of an entity type; anything else on a
// record is an unexpected field.
func KnownFields(et constants.EntityType) fieldSet {
	switch et {
	case constants.Invoices:
		return invoiceFields
	case constants.Products:
		return productFields
	case constants.Customers:
		return customerFields
	}
	return fieldSet{}
}

// NumericFields lists the known fields that hold numbers.
func NumericFields(et constants.EntityType) fieldSet {
	switch et {
	case constants.Invoices:
		return invoiceNumeric
	case constants.Products:
		return productNumeric
	case constants.Customers:
		return customerNumeric
	}
	return fieldSet{}
}

// IsTextField reports whether name is a known, non-numeric field of et.
func IsTextField(et constants.EntityType, name string) bool {
	return KnownFields(et).Has(name) && !NumericFields(et).Has(name)
}

// extraFields decodes the keys of a JSON object that are not in known.
func extraFields(data []byte, known fieldSet) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, v := range all {
		if known.Has(k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra, nil
}

// marshalWithExtra encodes v (a JSON object) and appends the extra keys in
// sorted order so output is deterministic.
func marshalWithExtra(v any, extra map[string]any, known fieldSet) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	empty := bytes.Equal(bytes.TrimSpace(b), []byte("{}"))
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if known.Has(k) {
			continue
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(extra[k])
		if err != nil {
			return nil, err
		}
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToMap converts a record into the loosely-typed shape the validator reads.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a loosely-typed record into out.
func FromMap(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
