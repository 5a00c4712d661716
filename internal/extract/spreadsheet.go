package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetRows reads the first worksheet of a workbook and returns one object
// per data row keyed by the header row. A blank header becomes __EMPTY,
// __EMPTY_1, ... and blank cells are omitted.
func SheetRows(r io.Reader) ([]map[string]any, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []map[string]any{}, sheet, nil
	}

	headers := headerNames(rows[0])
	out := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := make(map[string]any, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			obj[headerAt(headers, i)] = cellValue(cell)
		}
		if len(obj) > 0 {
			out = append(out, obj)
		}
	}
	return out, sheet, nil
}

// SheetJSON is SheetRows serialized as a JSON array.
func SheetJSON(r io.Reader) (string, error) {
	rows, _, err := SheetRows(r)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return string(b), nil
}

func headerNames(row []string) []string {
	names := make([]string, len(row))
	empty := 0
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = emptyHeader(empty)
			empty++
		}
		names[i] = h
	}
	return names
}

// headerAt names column i, extending the header row for cells past its end.
func headerAt(headers []string, i int) string {
	if i < len(headers) {
		return headers[i]
	}
	blank := 0
	for _, h := range headers {
		if strings.HasPrefix(h, "__EMPTY") {
			blank++
		}
	}
	return emptyHeader(blank + i - len(headers))
}

func emptyHeader(n int) string {
	if n == 0 {
		return "__EMPTY"
	}
	return "__EMPTY_" + strconv.Itoa(n)
}

// cellValue keeps plain numbers numeric and everything else as text.
func cellValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
