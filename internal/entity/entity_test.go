package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/constants"
)

func TestInvoiceKeepsUnknownFields(t *testing.T) {
	var inv Invoice
	require.NoError(t, json.Unmarshal([]byte(`{"id":"i1","serialNumber":"7","quantity":2,"discountCode":"XY","cgst":1.5}`), &inv))
	assert.Equal(t, "7", inv.SerialNumber)
	assert.Equal(t, 1.5, *inv.CGST)
	assert.Equal(t, map[string]any{"discountCode": "XY"}, inv.Extra)

	b, err := json.Marshal(inv)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "XY", back["discountCode"])
	assert.NotContains(t, back, "sgst", "absent optional amounts stay absent")
}

func TestMarshalExtraCannotShadowKnownField(t *testing.T) {
	p := Product{ID: "p1", Name: "Widget", Extra: map[string]any{"name": "Other", "color": "red"}}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "Widget", back["name"])
	assert.Equal(t, "red", back["color"])
}

func TestFieldSets(t *testing.T) {
	assert.True(t, KnownFields(constants.Customers).Has("email"))
	assert.False(t, KnownFields(constants.Customers).Has("discountCode"))
	assert.True(t, NumericFields(constants.Products).Has("discount"))
	assert.True(t, IsTextField(constants.Invoices, "gstIn"))
	assert.False(t, IsTextField(constants.Invoices, "cgst"))
	assert.False(t, IsTextField(constants.Invoices, "unknown"))
}

func TestToMapFromMap(t *testing.T) {
	c := Customer{ID: "c1", Name: "Alice", PhoneNumber: "5551234567", TotalPurchaseAmount: 22, Extra: map[string]any{"tier": "gold"}}
	m, err := ToMap(c)
	require.NoError(t, err)
	assert.Equal(t, 22.0, m["totalPurchaseAmount"])
	assert.Equal(t, "gold", m["tier"])

	var back Customer
	require.NoError(t, FromMap(m, &back))
	assert.Equal(t, c, back)
}

func TestExtractedDataCloneIsDeep(t *testing.T) {
	d := NewExtractedData()
	d.Products = append(d.Products, Product{ID: "p1", Name: "Widget", Discount: Float(5), Extra: map[string]any{"k": "v"}})
	d.SetIssues(constants.Products, "p1", []Issue{{Field: "tax", Message: "m", Severity: constants.SeverityWarning}})
	d.SetUnexpected(constants.Products, "p1", []string{"k"})
	d.AddWarning("w")

	cp := d.Clone()
	*cp.Products[0].Discount = 50
	cp.Products[0].Extra["k"] = "changed"
	cp.ValidationState[constants.Products]["p1"][0].Message = "changed"
	cp.Metadata.UnexpectedFields[constants.Products]["p1"][0] = "changed"

	assert.Equal(t, 5.0, d.Products[0].DiscountPercent())
	assert.Equal(t, "v", d.Products[0].Extra["k"])
	assert.Equal(t, "m", d.ValidationState[constants.Products]["p1"][0].Message)
	assert.Equal(t, "k", d.Metadata.UnexpectedFields[constants.Products]["p1"][0])
	assert.Equal(t, []string{"w"}, cp.Metadata.Warnings)
}

func TestSetIssuesAndUnexpectedClear(t *testing.T) {
	d := NewExtractedData()
	d.SetIssues(constants.Invoices, "i1", []Issue{{Field: "tax"}})
	d.SetUnexpected(constants.Invoices, "i1", []string{"x"})
	d.SetIssues(constants.Invoices, "i1", nil)
	d.SetUnexpected(constants.Invoices, "i1", nil)
	assert.NotContains(t, d.ValidationState[constants.Invoices], "i1")
	assert.NotContains(t, d.Metadata.UnexpectedFields[constants.Invoices], "i1")
}

func TestEmptyBundleSerializesCollections(t *testing.T) {
	b, err := json.Marshal(NewExtractedData())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, []any{}, m["invoices"])
	assert.Equal(t, []any{}, m["products"])
	assert.Equal(t, []any{}, m["customers"])
	assert.Equal(t, []any{}, m["metadata"].(map[string]any)["warnings"])
}

func TestCollectionsCopy(t *testing.T) {
	d := NewExtractedData()
	d.Invoices = append(d.Invoices, Invoice{ID: "i1", TaxableAmount: Float(10)})
	c := d.Collections()
	*c.Invoices[0].TaxableAmount = 99
	assert.Equal(t, 10.0, *d.Invoices[0].TaxableAmount)
}
