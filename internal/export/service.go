package export

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

// Sheet names of an exported workbook.
const (
	SheetInvoices  = "Invoices"
	SheetProducts  = "Products"
	SheetCustomers = "Customers"
	SheetWarnings  = "Warnings"
)

type column struct {
	key   string
	title string
	width float64
}

var columns = map[constants.EntityType][]column{
	constants.Invoices: {
		{"id", "ID", 38},
		{"serialNumber", "Serial Number", 16},
		{"date", "Date", 12},
		{"customerName", "Customer", 22},
		{"productName", "Products", 32},
		{"quantity", "Quantity", 10},
		{"taxableAmount", "Taxable Amount", 14},
		{"cgst", "CGST", 10},
		{"sgst", "SGST", 10},
		{"tax", "Tax", 10},
		{"makingCharges", "Making Charges", 14},
		{"debitCardCharges", "Debit Card Charges", 14},
		{"shippingCharges", "Shipping Charges", 14},
		{"totalAmount", "Total Amount", 14},
		{"gstIn", "GSTIN", 18},
	},
	constants.Products: {
		{"id", "ID", 38},
		{"name", "Name", 28},
		{"quantity", "Quantity", 10},
		{"unitPrice", "Unit Price", 12},
		{"discount", "Discount", 10},
		{"tax", "Tax %", 10},
		{"priceWithTax", "Price With Tax", 14},
	},
	constants.Customers: {
		{"id", "ID", 38},
		{"name", "Name", 22},
		{"phoneNumber", "Phone", 16},
		{"email", "Email", 26},
		{"address", "Address", 40},
		{"totalPurchaseAmount", "Total Purchase Amount", 18},
	},
}

var sheetNames = map[constants.EntityType]string{
	constants.Invoices:  SheetInvoices,
	constants.Products:  SheetProducts,
	constants.Customers: SheetCustomers,
}

// Service writes a session bundle as an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns the workbook bytes for data: one sheet per entity, with
// unexpected fields appended as extra columns, plus a Warnings sheet.
func (s *Service) ExportXLSX(ctx context.Context, data *entity.ExtractedData) ([]byte, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, s.logger)
	if data == nil {
		data = entity.NewExtractedData()
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetProducts, SheetCustomers, SheetWarnings} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	rows := map[constants.EntityType][]map[string]any{}
	for _, et := range []constants.EntityType{constants.Invoices, constants.Products, constants.Customers} {
		recs, err := records(data, et)
		if err != nil {
			return nil, err
		}
		rows[et] = recs
		if err := writeEntity(f, et, recs, data.ValidationState[et]); err != nil {
			return nil, err
		}
	}
	if err := writeWarnings(f, data.Metadata.Warnings); err != nil {
		return nil, err
	}

	idx, _ := f.GetSheetIndex(SheetInvoices)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Info("export.xlsx.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"invoices", len(rows[constants.Invoices]),
		"products", len(rows[constants.Products]),
		"customers", len(rows[constants.Customers]),
		"warnings", len(data.Metadata.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func records(data *entity.ExtractedData, et constants.EntityType) ([]map[string]any, error) {
	var src []any
	switch et {
	case constants.Invoices:
		for _, v := range data.Invoices {
			src = append(src, v)
		}
	case constants.Products:
		for _, v := range data.Products {
			src = append(src, v)
		}
	case constants.Customers:
		for _, v := range data.Customers {
			src = append(src, v)
		}
	}
	out := make([]map[string]any, 0, len(src))
	for _, v := range src {
		m, err := entity.ToMap(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", et, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// extraKeys lists the unexpected fields across recs, sorted.
func extraKeys(et constants.EntityType, recs []map[string]any) []string {
	known := entity.KnownFields(et)
	set := map[string]struct{}{}
	for _, r := range recs {
		for k := range r {
			if !known.Has(k) {
				set[k] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func writeEntity(f *excelize.File, et constants.EntityType, recs []map[string]any, issues entity.RecordIssues) error {
	sheet := sheetNames[et]
	cols := columns[et]
	extra := extraKeys(et, recs)

	header := make([]any, 0, len(cols)+len(extra)+1)
	for _, c := range cols {
		header = append(header, c.title)
	}
	for _, k := range extra {
		header = append(header, k)
	}
	header = append(header, "Validation")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i, r := range recs {
		row := make([]any, 0, len(header))
		for _, c := range cols {
			row = append(row, cell(r[c.key]))
		}
		for _, k := range extra {
			row = append(row, cell(r[k]))
		}
		id, _ := r["id"].(string)
		row = append(row, issueText(issues[id]))

		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}
	return nil
}

func writeWarnings(f *excelize.File, warnings []string) error {
	if err := f.SetCellValue(SheetWarnings, "A1", "Warning"); err != nil {
		return err
	}
	for i, w := range warnings {
		c, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(SheetWarnings, c, w); err != nil {
			return fmt.Errorf("warnings row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(SheetWarnings, "A", "A", 100)
	return nil
}

// cell renders nested values as text; scalars are written as is.
func cell(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, float64, bool:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func issueText(issues []entity.Issue) string {
	if len(issues) == 0 {
		return ""
	}
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = fmt.Sprintf("%s: %s", is.Severity, is.Message)
	}
	return strings.Join(parts, "; ")
}
