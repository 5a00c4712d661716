package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Response formats accepted by chat/completions.
const (
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// Config for the OpenAI-compatible chat/completions client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	// ResponseFormat is json_object (default) or json_schema, which sends the
	// extraction schema for structured output.
	ResponseFormat string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.ResponseFormat != FormatJSONSchema {
		cfg.ResponseFormat = FormatJSONObject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// responseFormat is the response_format body field for the configured mode.
func (c *Client) responseFormat() map[string]any {
	if c.cfg.ResponseFormat == FormatJSONSchema {
		return map[string]any{
			"type": FormatJSONSchema,
			"json_schema": map[string]any{
				"name":   "invoice_extraction",
				"schema": extractionSchema,
			},
		}
	}
	return map[string]any{"type": FormatJSONObject}
}
