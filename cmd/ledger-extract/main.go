package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/assemble"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/export"
	"github.com/joseph-ayodele/invoice-ledger/internal/extract"
	"github.com/joseph-ayodele/invoice-ledger/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-ledger/internal/metrics"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
)

func main() {
	file := flag.String("file", "", "document to extract (pdf, jpg, jpeg, png, xlsx)")
	payload := flag.String("payload", "", "file holding a raw extraction answer, or - for stdin")
	xlsx := flag.String("xlsx", "", "also write the result as an XLSX workbook to this path")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if (*file == "") == (*payload == "") {
		logger.Error("usage", "cmd", "ledger-extract -file <document> | -payload <answer.json|-> [-xlsx out.xlsx]")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(*file != ""); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	assembler, err := assemble.New(assemble.OptionsFrom(cfg.Validation), logger)
	if err != nil {
		logger.Error("failed to build assembler", "error", err)
		os.Exit(1)
	}
	adapter := extract.NewAdapter(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,

		ResponseFormat: cfg.LLM.ResponseFormat,
	}, logger)
	processor := core.NewProcessor(logger, adapter, client, assembler, metrics.NewRecorder())

	var res *core.Result
	if *file != "" {
		res, err = processor.ProcessFile(ctx, *file)
	} else {
		var raw []byte
		raw, err = readPayload(*payload)
		if err == nil {
			res, err = processor.ProcessPayload(ctx, string(raw))
		}
	}
	if err != nil {
		logger.Error(common.UserMessage(err), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Data); err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}

	if *xlsx != "" {
		b, err := export.NewService(logger).ExportXLSX(ctx, res.Data)
		if err != nil {
			logger.Error("xlsx export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, b, 0o644); err != nil {
			logger.Error("failed to write xlsx", "path", *xlsx, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsx, "bytes", len(b))
	}
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
