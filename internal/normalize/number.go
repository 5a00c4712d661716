package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// reCurrencyWord matches currency codes and abbreviations that may surround
// an amount ("INR 1,200", "Rs. 45", "20,000 MMK").
var reCurrencyWord = regexp.MustCompile(`(?i)\b(usd|inr|rs|eur|gbp|mmk|ks|aud|cad|jpy)\b\.?`)

// Number coerces v into a float64. Numbers pass through. A string is coerced
// when its whole content is an amount: with a non-empty symbol only that
// symbol (and thousands separators) is stripped; otherwise currency words and
// every character other than digits, '.' and '-' are stripped, provided no
// other letters remain. Anything else reports false.
func Number(v any, symbol string) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseAmount(t, symbol)
	default:
		return 0, false
	}
}

func parseAmount(s, symbol string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if symbol != "" {
		s = strings.ReplaceAll(s, symbol, "")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}

	s = reCurrencyWord.ReplaceAllString(s, "")
	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r):
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	return f, err == nil
}

// Text renders a scalar as the string a text field should hold.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
