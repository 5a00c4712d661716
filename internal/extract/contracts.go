// Package extract converts an uploaded document into the text handed to the
// extraction service.
package extract

import (
	"context"
	"time"
)

// TextExtractor turns a document on disk into plain text or serialized rows.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextResult, error)
}

type TextResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.SPREADSHEET
	Method     string // "sheet-rows" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}
