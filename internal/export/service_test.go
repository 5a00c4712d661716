package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

func sampleData() *entity.ExtractedData {
	d := entity.NewExtractedData()
	d.Invoices = []entity.Invoice{{
		ID: "i1", SerialNumber: "INV-1", CustomerName: "Alice", ProductName: "Widget",
		Quantity: 2, Tax: 2, TotalAmount: 22, Date: "2024-01-05",
		Extra: map[string]any{"discountCode": "XY"},
	}}
	d.Products = []entity.Product{{ID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 10, Tax: 10, PriceWithTax: 22}}
	d.Customers = []entity.Customer{{ID: "c1", Name: "Alice", PhoneNumber: "5551234567", TotalPurchaseAmount: 22}}
	d.SetUnexpected(constants.Invoices, "i1", []string{"discountCode"})
	d.SetIssues(constants.Invoices, "i1", []entity.Issue{{Field: "discountCode", Message: "Unexpected field found: discountCode with value: XY", Severity: constants.SeverityWarning}})
	d.AddWarning("invoices[1] rejected: Missing required field: date")
	return d
}

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExportXLSX(t *testing.T) {
	b, err := NewService(nil).ExportXLSX(context.Background(), sampleData())
	require.NoError(t, err)
	f := open(t, b)

	assert.Equal(t, []string{SheetInvoices, SheetProducts, SheetCustomers, SheetWarnings}, f.GetSheetList())

	inv, err := f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, inv, 2)
	header := inv[0]
	assert.Equal(t, "ID", header[0])
	assert.Equal(t, "discountCode", header[len(columns[constants.Invoices])], "unexpected field becomes an extra column")
	assert.Equal(t, "Validation", header[len(header)-1])
	assert.Equal(t, "INV-1", inv[1][1])
	assert.Equal(t, "22", inv[1][13])
	assert.Equal(t, "XY", inv[1][len(columns[constants.Invoices])])
	assert.Contains(t, inv[1][len(header)-1], "warning: Unexpected field found")

	prod, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, prod, 2)
	require.GreaterOrEqual(t, len(prod[1]), 7)
	assert.Equal(t, []string{"p1", "Widget", "2", "10", "", "10", "22"}, prod[1][:7])

	cust, err := f.GetRows(SheetCustomers)
	require.NoError(t, err)
	require.Len(t, cust, 2)
	assert.Equal(t, "5551234567", cust[1][2])

	warn, err := f.GetRows(SheetWarnings)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Warning"}, {"invoices[1] rejected: Missing required field: date"}}, warn)
}

func TestExportXLSXEmpty(t *testing.T) {
	b, err := NewService(nil).ExportXLSX(context.Background(), nil)
	require.NoError(t, err)
	f := open(t, b)

	rows, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
	assert.Equal(t, "Price With Tax", rows[0][6])
}
