package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	OCR        OCRConfig        `yaml:"ocr"`
	Validation ValidationConfig `yaml:"validation"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LLMConfig holds configuration for the document extraction service
type LLMConfig struct {
	Model       string        `yaml:"model" validate:"required"`
	APIKey      string        `yaml:"api_key" validate:"required"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	Temperature float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	// ResponseFormat is json_object or json_schema.
	ResponseFormat string `yaml:"response_format" validate:"oneof=json_object json_schema"`
}

// OCRConfig holds configuration for the text adapters
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	Pdftotext     string `yaml:"pdftotext"`
	MaxPages      int    `yaml:"max_pages" validate:"gte=0"`
}

// ValidationConfig holds the toggles for checks whose strictness varies
// between deployments.
type ValidationConfig struct {
	ProductTaxRange       bool `yaml:"product_tax_range"`
	RequireProductTax     bool `yaml:"require_product_tax"`
	RetainInvalidProducts bool `yaml:"retain_invalid_products"`
	ZeroSatisfiesRequired bool `yaml:"zero_satisfies_required"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCAddr:    ":8080",
			MetricsAddr: ":9090",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0.0,
			Timeout:     45 * time.Second,

			ResponseFormat: "json_object",
		},
		OCR: OCRConfig{
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			Pdftotext:     "pdftotext",
			MaxPages:      1,
		},
		Validation: ValidationConfig{
			ProductTaxRange: true,
		},
	}
}

// LoadConfig loads configuration: defaults, then the optional YAML file named
// by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return NewAppError("CONFIG_ERROR", "parse config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MetricsAddr = getEnv("METRICS_ADDR", c.Server.MetricsAddr)
	if c.Server.GRPCAddr != "" && !strings.Contains(c.Server.GRPCAddr, ":") {
		c.Server.GRPCAddr = ":" + c.Server.GRPCAddr
	}

	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.ResponseFormat = getEnv("OPENAI_RESPONSE_FORMAT", c.LLM.ResponseFormat)

	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Pdftotext = getEnv("PDFTOTEXT_BIN", c.OCR.Pdftotext)
	c.OCR.MaxPages = getEnvAsInt("PDF_MAX_PAGES", c.OCR.MaxPages)

	c.Validation.ProductTaxRange = getEnvAsBool("VALIDATION_PRODUCT_TAX_RANGE", c.Validation.ProductTaxRange)
	c.Validation.RequireProductTax = getEnvAsBool("VALIDATION_REQUIRE_PRODUCT_TAX", c.Validation.RequireProductTax)
	c.Validation.RetainInvalidProducts = getEnvAsBool("VALIDATION_RETAIN_INVALID_PRODUCTS", c.Validation.RetainInvalidProducts)
	c.Validation.ZeroSatisfiesRequired = getEnvAsBool("VALIDATION_ZERO_SATISFIES_REQUIRED", c.Validation.ZeroSatisfiesRequired)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

var configValidator = validator.New()

// Validate validates the loaded configuration. The API key is only needed by
// binaries that call the extraction service, so requireLLM lets offline tools
// skip it.
func (c *Config) Validate(requireLLM bool) error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("CONFIG_ERROR", "validate config", err)
	}
	var msgs []string
	for _, fe := range verrs {
		if !requireLLM && fe.StructNamespace() == "Config.LLM.APIKey" {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	if len(msgs) == 0 {
		return nil
	}
	return NewAppError("CONFIG_ERROR", strings.Join(msgs, "; "), ErrInvalidInput)
}
