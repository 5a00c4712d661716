package llm

import "context"

// ExtractRequest is one document handed to the extraction service.
type ExtractRequest struct {
	Text         string
	FilenameHint string
	SourceFormat string // constants.PDF, IMAGE or SPREADSHEET; empty for raw text
}

// DocumentExtractor turns document text into the raw model output, which is
// expected to contain a JSON object with invoices, products and customers.
// Implementations report transient overload as common.ErrServiceUnavailable
// and never retry.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, req ExtractRequest) (string, error)
}
