package llm

import (
	"encoding/json"
	"strings"
)

// MaxPromptChars caps the document text sent in one request.
const MaxPromptChars = 24000

// SystemPrompt is the fixed extraction instruction.
const SystemPrompt = `Extract invoice, product, and customer information from the provided document.
Format the response as a JSON object with three arrays: invoices, products, and customers.
Each array should contain objects with the following required fields:

Invoices: serialNumber, customerName, productName, quantity, tax, totalAmount, date
Products: name, quantity, unitPrice, tax, priceWithTax
Customers: name, phoneNumber, totalPurchaseAmount

Additional fields are optional. Ensure all numeric values are properly formatted.`

// BuildSystemPrompt returns the instruction followed by the JSON Schema the
// answer should follow.
func BuildSystemPrompt() string {
	schema, _ := json.MarshalIndent(BuildExtractionJSONSchema(), "", "  ")
	parts := []string{
		SystemPrompt,
		"When an invoice lists several products, join their names with commas in productName.",
		"Never output null. If a field is not present, omit it.",
		"JSON Schema:\n" + string(schema),
	}
	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt packages the document text with its hints.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	if req.SourceFormat != "" {
		b.WriteString("Source format: ")
		b.WriteString(req.SourceFormat)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nDocument text:\n")
	if len(text) > MaxPromptChars {
		b.WriteString(text[:MaxPromptChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
