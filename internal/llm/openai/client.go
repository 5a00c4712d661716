package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/llm"
)

var extractionSchema = llm.BuildExtractionJSONSchema()

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractDocument implements llm.DocumentExtractor with a single text-only
// chat/completions call. It returns the model's message content untouched;
// fence stripping and parsing belong to the assembler.
func (c *Client) ExtractDocument(ctx context.Context, req llm.ExtractRequest) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	ctx = common.WithRequestID(ctx, rid)
	log := common.LoggerFromContext(ctx, c.logger)
	start := time.Now()

	log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"source_format", req.SourceFormat,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": c.responseFormat(),
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		log.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", classify(status, raw, err)
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("LLM_ERROR", "decode chat completion", err)
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		log.Error("llm.extract.no_choices",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("LLM_ERROR", "no response received from the extraction model", nil)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	// Advisory only: records that miss the schema are handled one by one downstream.
	if err := llm.ValidateJSONAgainstSchema(extractionSchema, []byte(llm.StripFences(content))); err != nil {
		log.Warn("llm.extract.schema_mismatch", "req_id", rid, "error", err)
	}
	log.Info("llm.extract.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// classify maps a failed call onto the error taxonomy: overload and rate
// limiting are transient, anything else is a provider error.
func classify(status int, raw []byte, err error) error {
	switch status {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return fmt.Errorf("openai status %d: %w", status, common.ErrServiceUnavailable)
	case 0:
		return common.NewAppError("LLM_ERROR", "request failed", err)
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return common.NewAppError("LLM_ERROR", fmt.Sprintf("openai status %d: %s", status, msg), err)
}

var _ llm.DocumentExtractor = (*Client)(nil)
