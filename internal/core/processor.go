package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/assemble"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/extract"
	"github.com/joseph-ayodele/invoice-ledger/internal/llm"
	"github.com/joseph-ayodele/invoice-ledger/internal/metrics"
)

// Processor coordinates text extraction, the extraction service and the
// assembler for one document.
type Processor struct {
	logger    *slog.Logger
	extractor extract.TextExtractor
	llm       llm.DocumentExtractor
	assembler *assemble.Assembler
	metrics   *metrics.Recorder
}

// Result is the outcome of one successful run.
type Result struct {
	Data   *entity.ExtractedData
	Report assemble.Report
	Source extract.TextResult
	Raw    string
}

func NewProcessor(
	logger *slog.Logger,
	extractor extract.TextExtractor,
	llmExtractor llm.DocumentExtractor,
	assembler *assemble.Assembler,
	recorder *metrics.Recorder,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		llm:       llmExtractor,
		assembler: assembler,
		metrics:   recorder,
	}
}

// ProcessFile extracts text from the document at path, sends it to the
// extraction service and assembles the answer. Any operational failure aborts
// the whole attempt.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	ctx, log := p.scope(ctx)
	start := time.Now()

	src, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, p.fail(log, src.SourceType, start, "processor.extract.failed", err)
	}
	if strings.TrimSpace(src.Text) == "" {
		err = common.NewAppError("EXTRACT_ERROR", "no text extracted from "+filepath.Base(path), common.ErrInvalidInput)
		return nil, p.fail(log, src.SourceType, start, "processor.extract.empty", err)
	}
	log.Debug("processor.extract.ok",
		"path", path,
		"method", src.Method,
		"pages", src.Pages,
		"text_len", len(src.Text),
	)

	res, err := p.run(ctx, llm.ExtractRequest{
		Text:         src.Text,
		FilenameHint: filepath.Base(path),
		SourceFormat: src.SourceType,
	})
	if err != nil {
		return nil, p.fail(log, src.SourceType, start, "processor.parse.failed", err)
	}
	res.Source = src
	p.done(log, src.SourceType, start, res)
	return res, nil
}

// ProcessText skips the document adapters and sends text as is.
func (p *Processor) ProcessText(ctx context.Context, text, filenameHint string) (*Result, error) {
	ctx, log := p.scope(ctx)
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		return nil, p.fail(log, "", start, "processor.text.empty",
			common.NewAppError("EXTRACT_ERROR", "empty text", common.ErrInvalidInput))
	}
	res, err := p.run(ctx, llm.ExtractRequest{Text: text, FilenameHint: filenameHint})
	if err != nil {
		return nil, p.fail(log, "", start, "processor.parse.failed", err)
	}
	p.done(log, "", start, res)
	return res, nil
}

// ProcessPayload assembles an answer that was already produced by the
// extraction service.
func (p *Processor) ProcessPayload(ctx context.Context, raw string) (*Result, error) {
	ctx, log := p.scope(ctx)
	start := time.Now()
	res, err := p.assemble(ctx, raw)
	if err != nil {
		return nil, p.fail(log, "payload", start, "processor.assemble.failed", err)
	}
	p.done(log, "payload", start, res)
	return res, nil
}

func (p *Processor) run(ctx context.Context, req llm.ExtractRequest) (*Result, error) {
	if p.llm == nil {
		return nil, common.NewAppError("LLM_ERROR", "no extraction service configured", common.ErrServiceUnavailable)
	}
	raw, err := p.llm.ExtractDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm extract: %w", err)
	}
	return p.assemble(ctx, raw)
}

func (p *Processor) assemble(ctx context.Context, raw string) (*Result, error) {
	data, rep, err := p.assembler.Assemble(ctx, raw)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordReport(rep)
	return &Result{Data: data, Report: rep, Raw: raw}, nil
}

// scope pins one request id for the whole run.
func (p *Processor) scope(ctx context.Context) (context.Context, *slog.Logger) {
	rid := common.RequestIDFromContext(ctx)
	ctx = common.WithRequestID(ctx, rid)
	return ctx, common.LoggerFromContext(ctx, p.logger).With("req_id", rid)
}

func (p *Processor) fail(log *slog.Logger, source string, start time.Time, event string, err error) error {
	p.metrics.RecordExtraction(source, time.Since(start), err)
	log.Error(event, "source", source, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
	return err
}

func (p *Processor) done(log *slog.Logger, source string, start time.Time, res *Result) {
	p.metrics.RecordExtraction(source, time.Since(start), nil)
	log.Info("processor.ok",
		"source", source,
		"invoices", len(res.Data.Invoices),
		"products", len(res.Data.Products),
		"customers", len(res.Data.Customers),
		"ambiguous_tax", res.Report.AmbiguousTax,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
