package llm

// BuildExtractionJSONSchema returns the JSON Schema (draft 2020-12 subset)
// describing the answer we ask the model for. Numbers may come back as
// formatted strings, so numeric fields accept both.
func BuildExtractionJSONSchema() map[string]any {
	invoice := objectSchema(
		map[string]any{
			"serialNumber":     textProp(),
			"customerName":     textProp(),
			"productName":      textProp(),
			"quantity":         amountProp(),
			"tax":              amountProp(),
			"totalAmount":      amountProp(),
			"date":             textProp(),
			"taxableAmount":    amountProp(),
			"cgst":             amountProp(),
			"sgst":             amountProp(),
			"makingCharges":    amountProp(),
			"debitCardCharges": amountProp(),
			"shippingCharges":  amountProp(),
			"gstIn":            textProp(),
		},
		"serialNumber", "customerName", "productName", "quantity", "tax", "totalAmount", "date",
	)
	product := objectSchema(
		map[string]any{
			"name":         textProp(),
			"quantity":     amountProp(),
			"unitPrice":    amountProp(),
			"tax":          amountProp(),
			"priceWithTax": amountProp(),
			"discount":     amountProp(),
		},
		"name", "quantity", "unitPrice", "tax", "priceWithTax",
	)
	customer := objectSchema(
		map[string]any{
			"name":                textProp(),
			"phoneNumber":         textProp(),
			"totalPurchaseAmount": amountProp(),
			"email":               textProp(),
			"address":             textProp(),
		},
		"name", "phoneNumber", "totalPurchaseAmount",
	)
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoices":  map[string]any{"type": "array", "items": invoice},
			"products":  map[string]any{"type": "array", "items": product},
			"customers": map[string]any{"type": "array", "items": customer},
		},
		"required": []string{"invoices", "products", "customers"},
	}
}

// BuildPayloadSchema is the loose gate a parsed answer must pass before
// records are looked at: an object whose collections, when present, are a
// list or a single object. Record contents are left to the
// validator so one bad record never fails the batch.
func BuildPayloadSchema() map[string]any {
	collection := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "array"},
			map[string]any{"type": "object"},
			map[string]any{"type": "null"},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoices":  collection,
			"products":  collection,
			"customers": collection,
		},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func textProp() map[string]any {
	return map[string]any{"type": []string{"string", "number"}}
}

func amountProp() map[string]any {
	return map[string]any{"type": []string{"number", "string"}}
}
