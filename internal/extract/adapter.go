package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

// Adapter routes a document to the spreadsheet reader or the OCR extractor
// by file extension.
type Adapter struct {
	ocr    *ocr.Extractor
	logger *slog.Logger
}

func NewAdapter(e *ocr.Extractor, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{ocr: e, logger: logger}
}

func (a *Adapter) Extract(ctx context.Context, path string) (TextResult, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	switch format {
	case constants.SPREADSHEET:
		f, err := os.Open(path)
		if err != nil {
			return TextResult{SourceType: format}, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		text, err := SheetJSON(f)
		if err != nil {
			return TextResult{SourceType: format}, err
		}
		a.logger.Debug("extract.sheet.ok", "path", path, "bytes", len(text))
		return TextResult{Text: text, Pages: 1, SourceType: format, Method: "sheet-rows", Duration: time.Since(start)}, nil
	case constants.PDF, constants.IMAGE:
		r, err := a.ocr.Extract(ctx, path)
		return TextResult{
			Text:       r.Text,
			Pages:      r.Pages,
			SourceType: r.SourceType,
			Method:     r.Method,
			Duration:   r.Duration,
			Warnings:   r.Warnings,
		}, err
	default:
		return TextResult{}, fmt.Errorf("file %q: %w", filepath.Base(path), common.ErrUnsupportedFileType)
	}
}

var _ TextExtractor = (*Adapter)(nil)
