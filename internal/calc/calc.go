// Package calc holds the tax, discount and total arithmetic. Every function is
// pure; results are rounded to two decimals, half away from zero, at the final
// step only.
package calc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
)

const places = 2

var hundred = decimal.NewFromInt(100)

// Tolerance is the largest difference two money amounts may have and still
// reconcile.
var Tolerance = decimal.New(1, -places)

// PriceWithTax returns quantity*unitPrice plus taxPercent, minus
// discountPercent of the taxed amount. A zero discount is no discount.
func PriceWithTax(quantity, unitPrice, taxPercent, discountPercent float64) float64 {
	base := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice))
	withTax := base.Add(base.Mul(decimal.NewFromFloat(taxPercent)).Div(hundred))
	if discountPercent != 0 {
		withTax = withTax.Sub(withTax.Mul(decimal.NewFromFloat(discountPercent)).Div(hundred))
	}
	return toFloat(withTax)
}

// TaxPercentFromAbsolute converts an absolute tax amount into a percentage of
// taxableAmount.
func TaxPercentFromAbsolute(taxAmount, taxableAmount float64) (float64, error) {
	if taxableAmount == 0 {
		return 0, fmt.Errorf("tax %v over taxable amount 0: %w", taxAmount, common.ErrDivisionUndefined)
	}
	pct := decimal.NewFromFloat(taxAmount).Div(decimal.NewFromFloat(taxableAmount)).Mul(hundred)
	return toFloat(pct), nil
}

// TaxAmount returns taxPercent of base as an absolute amount.
func TaxAmount(base, taxPercent float64) float64 {
	return toFloat(decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(taxPercent)).Div(hundred))
}

// Base returns quantity*unitPrice.
func Base(quantity, unitPrice float64) float64 {
	return toFloat(decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)))
}

// Sum adds values exactly and rounds once.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return toFloat(total)
}

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	return toFloat(decimal.NewFromFloat(v))
}

// Reconciles reports whether a and b differ by no more than Tolerance.
func Reconciles(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(Tolerance)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(places).Float64()
	return f
}
