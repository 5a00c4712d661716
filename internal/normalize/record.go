// Package normalize coerces raw extracted values into the typed shape the
// validator reasons about. Nothing here returns an error: input that cannot
// be coerced is left as it was.
package normalize

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/calc"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

// Result is a normalized record plus what the normalizer inferred on the way.
type Result struct {
	Record map[string]any
	// Tax is set for products that carry a numeric tax.
	Tax *TaxInference
	// Notes are advisory messages for metadata.warnings.
	Notes []string
}

// Record normalizes one raw record of the given type. The input map is not
// modified.
func Record(et constants.EntityType, raw map[string]any) Result {
	rec, percentHint := coerce(et, raw)
	res := Result{Record: rec}
	if et == constants.Products {
		if inf, ok := ProductTax(rec, percentHint); ok {
			res.Tax = &inf
			if inf.Confidence == ConfidenceLow {
				res.Notes = append(res.Notes, inf.Describe(rec["name"]))
			}
		}
	}
	return res
}

// coerce converts numeric and unknown string fields to numbers and known text
// fields to trimmed strings. It reports whether a product tax carried a
// percent sign.
func coerce(et constants.EntityType, raw map[string]any) (map[string]any, bool) {
	rec := make(map[string]any, len(raw))
	numeric := entity.NumericFields(et)
	percentHint := false

	for k, v := range raw {
		if entity.IsTextField(et, k) {
			if s, ok := Text(v); ok {
				rec[k] = s
				continue
			}
			rec[k] = v
			continue
		}
		s, isString := v.(string)
		if !isString {
			if f, ok := Number(v, ""); ok {
				v = f
			}
			rec[k] = v
			continue
		}
		if et == constants.Products && k == "tax" && strings.Contains(s, "%") {
			percentHint = true
		}
		if f, ok := Number(s, ""); ok {
			rec[k] = f
			continue
		}
		if numeric.Has(k) && strings.TrimSpace(s) == "" {
			// an empty amount is absent, not malformed
			continue
		}
		rec[k] = v
	}
	return rec, percentHint
}

// TaxMode is how a product's raw tax value was read.
type TaxMode string

const (
	TaxPercent  TaxMode = "percent"
	TaxAbsolute TaxMode = "absolute"
)

// Confidence grades a tax inference.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// TaxInference records how a product's tax was interpreted.
type TaxInference struct {
	Mode       TaxMode
	Confidence Confidence
	Raw        float64 // value as extracted
	Percent    float64 // value stored on the record
	Reason     string
}

// Describe renders a low-confidence inference as a warning.
func (t TaxInference) Describe(name any) string {
	return fmt.Sprintf("Ambiguous tax on product %v: read %v as %s (%v%%), %s",
		name, t.Raw, t.Mode, t.Percent, t.Reason)
}

// ProductTax decides whether rec["tax"] is a percentage or an absolute amount
// and rewrites it as a percentage. It reports false when there is no numeric
// tax to interpret.
//
// The reading that reproduces priceWithTax wins. When neither does, and both
// unitPrice and priceWithTax are non-zero, the tax is treated as an absolute
// amount with low confidence. A zero taxable base leaves tax unchanged.
func ProductTax(rec map[string]any, percentHint bool) (TaxInference, bool) {
	tax, ok := Number(rec["tax"], "")
	if !ok {
		return TaxInference{}, false
	}
	inf := TaxInference{Mode: TaxPercent, Confidence: ConfidenceHigh, Raw: tax, Percent: tax}
	if percentHint {
		inf.Reason = "value carried a percent sign"
		return inf, true
	}

	unit, _ := Number(rec["unitPrice"], "")
	pwt, _ := Number(rec["priceWithTax"], "")
	if unit == 0 || pwt == 0 {
		// nothing to reconcile against; the percentage reading stands
		inf.Reason = "no unitPrice and priceWithTax to check against"
		return inf, true
	}

	qty, _ := Number(rec["quantity"], "")
	discount, _ := Number(rec["discount"], "")
	if calc.Reconciles(calc.PriceWithTax(qty, unit, tax, discount), pwt) {
		inf.Reason = "percentage reproduces priceWithTax"
		return inf, true
	}

	base := calc.Base(qty, unit)
	pct, err := calc.TaxPercentFromAbsolute(tax, base)
	if err != nil {
		inf.Confidence = ConfidenceLow
		inf.Reason = "taxable amount is zero, left unchanged"
		return inf, true
	}

	inf.Mode = TaxAbsolute
	inf.Percent = pct
	rec["tax"] = pct
	if calc.Reconciles(calc.PriceWithTax(1, calc.Sum(base, tax), 0, discount), pwt) {
		inf.Reason = "absolute amount reproduces priceWithTax"
		return inf, true
	}
	inf.Confidence = ConfidenceLow
	inf.Reason = "neither reading reproduces priceWithTax"
	return inf, true
}

// Merge overlays patch onto current and coerces the result. Keys mapped to
// nil are removed. Tax inference does not run: an edited tax is taken as a
// percentage because priceWithTax is recomputed from it.
func Merge(et constants.EntityType, current, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(patch))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	rec, _ := coerce(et, merged)
	return rec
}
