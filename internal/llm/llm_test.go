package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare", `{"invoices":[]}`, `{"invoices":[]}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}```", `{"a":1}`},
		{"prose around", "Here you go:\n{\"a\":1}\nThanks", `{"a":1}`},
		{"not json", "sorry, no data", "sorry, no data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestPayloadSchema(t *testing.T) {
	schema := BuildPayloadSchema()
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"invoices":[{"a":1}],"products":{"name":"x"}}`)))
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{}`)))
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(`[1,2]`)))
	require.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"invoices":"nope"}`)))
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"invoices":[1,{"a":1}]}`)), "elements are checked per record")
	require.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"customers":null}`)))
}

func TestExtractionSchemaCompiles(t *testing.T) {
	_, err := CompileSchema(BuildExtractionJSONSchema())
	require.NoError(t, err)

	ok := `{"invoices":[{"serialNumber":"1","customerName":"A","productName":"W","quantity":"2","tax":2,"totalAmount":22,"date":"2024-01-05"}],"products":[],"customers":[]}`
	require.NoError(t, ValidateJSONAgainstSchema(BuildExtractionJSONSchema(), []byte(ok)))
}

func TestPrompts(t *testing.T) {
	sys := BuildSystemPrompt()
	assert.True(t, strings.HasPrefix(sys, SystemPrompt))
	assert.Contains(t, sys, `"priceWithTax"`)

	user := BuildUserPrompt(ExtractRequest{Text: strings.Repeat("x", MaxPromptChars+10), FilenameHint: "a.pdf", SourceFormat: "PDF"})
	assert.Contains(t, user, "Filename: a.pdf")
	assert.Contains(t, user, "Source format: PDF")
	assert.Contains(t, user, "(truncated)")
}
