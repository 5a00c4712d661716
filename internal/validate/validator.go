// Package validate classifies problems on normalized records as fatal errors
// (the record is rejected) or advisory warnings (the record is kept).
package validate

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/calc"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

var (
	rePhone = regexp.MustCompile(`^\+?[\d\s-]+$`)
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const minPhoneDigits = 10

var requiredFields = map[constants.EntityType][]string{
	constants.Invoices:  {"serialNumber", "customerName", "productName", "quantity", "tax", "totalAmount", "date"},
	constants.Products:  {"name", "quantity", "unitPrice", "priceWithTax"},
	constants.Customers: {"name", "phoneNumber", "totalPurchaseAmount"},
}

// Options toggles the checks whose strictness varies between deployments.
type Options struct {
	// ProductTaxRange makes a product tax outside [0,100] fatal; when off it
	// is reported as a warning.
	ProductTaxRange bool
	// RequireProductTax adds tax to the product required fields.
	RequireProductTax bool
	// ZeroSatisfiesRequired stops a numeric zero from counting as missing.
	ZeroSatisfiesRequired bool
}

// DefaultOptions returns the stock policy.
func DefaultOptions() Options {
	return Options{ProductTaxRange: true}
}

// Result is the outcome of validating one record.
type Result struct {
	Errors           []string
	Warnings         []string
	UnexpectedFields []string
	// Issues carries every error and warning with its field and severity.
	Issues []entity.Issue
}

// Valid reports whether the record has no fatal errors.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) fail(field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, msg)
	r.Issues = append(r.Issues, entity.Issue{Field: field, Message: msg, Severity: constants.SeverityError})
}

func (r *Result) warn(field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	r.Issues = append(r.Issues, entity.Issue{Field: field, Message: msg, Severity: constants.SeverityWarning})
}

// Validator applies the per-entity rules.
type Validator struct {
	opts Options
}

// New creates a validator with the given options.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate checks one normalized record.
func (v *Validator) Validate(et constants.EntityType, rec map[string]any) Result {
	var res Result
	v.checkRequired(&res, et, rec)
	v.checkUnexpected(&res, et, rec)
	v.checkNumeric(&res, et, rec)

	switch et {
	case constants.Invoices:
		checkTaxBreakdown(&res, rec)
	case constants.Products:
		v.checkProductRanges(&res, rec)
	case constants.Customers:
		checkContact(&res, rec)
	}
	return res
}

func (v *Validator) checkRequired(res *Result, et constants.EntityType, rec map[string]any) {
	fields := requiredFields[et]
	if et == constants.Products && v.opts.RequireProductTax {
		fields = append(slices.Clone(fields), "tax")
	}
	for _, f := range fields {
		if v.missing(rec[f]) {
			res.fail(f, "Missing required field: %s", f)
		}
	}
}

// missing applies falsy semantics: absent, null, false, empty text, NaN and
// (unless configured otherwise) zero all count as missing.
func (v *Validator) missing(value any) bool {
	switch t := value.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		if math.IsNaN(t) {
			return true
		}
		return t == 0 && !v.opts.ZeroSatisfiesRequired
	}
	return false
}

func (v *Validator) checkUnexpected(res *Result, et constants.EntityType, rec map[string]any) {
	known := entity.KnownFields(et)
	for _, k := range sortedKeys(rec) {
		if known.Has(k) {
			continue
		}
		res.UnexpectedFields = append(res.UnexpectedFields, k)
		res.warn(k, "Unexpected field found: %s with value: %v", k, rec[k])
	}
}

func (v *Validator) checkNumeric(res *Result, et constants.EntityType, rec map[string]any) {
	numeric := entity.NumericFields(et)
	for _, k := range sortedKeys(rec) {
		val := rec[k]
		f, isNum := val.(float64)
		if !isNum {
			if numeric.Has(k) && val != nil {
				res.fail(k, "Invalid %s: expected a number", k)
			}
			continue
		}
		if f >= 0 {
			continue
		}
		switch et {
		case constants.Invoices, constants.Products:
			res.fail(k, "Invalid %s: negative values are not allowed", k)
		case constants.Customers:
			if k == "totalPurchaseAmount" {
				res.fail(k, "Total purchase amount cannot be negative")
			}
		}
	}
}

// checkTaxBreakdown reconciles the GST split and the taxable total. Mismatches
// are warnings only.
func checkTaxBreakdown(res *Result, rec map[string]any) {
	tax, _ := rec["tax"].(float64)
	cgst, hasC := rec["cgst"].(float64)
	sgst, hasS := rec["sgst"].(float64)
	if hasC && hasS {
		split := calc.Sum(cgst, sgst)
		if !calc.Reconciles(tax, split) {
			res.warn("tax", "Tax amount (%v) doesn't match CGST (%v) + SGST (%v) = %v", tax, cgst, sgst, split)
		}
	}

	taxable, hasT := rec["taxableAmount"].(float64)
	total, hasTotal := rec["totalAmount"].(float64)
	if hasT && hasTotal {
		want := calc.Sum(taxable, tax)
		if !calc.Reconciles(total, want) {
			res.warn("totalAmount", "Total amount (%v) doesn't match taxable amount (%v) + tax (%v) = %v", total, taxable, tax, want)
		}
	}
}

func (v *Validator) checkProductRanges(res *Result, rec map[string]any) {
	tax, ok := rec["tax"].(float64)
	if !ok || (tax >= 0 && tax <= 100) {
		return
	}
	if v.opts.ProductTaxRange {
		res.fail("tax", "Tax must be between 0 and 100")
		return
	}
	res.warn("tax", "Tax must be between 0 and 100")
}

func checkContact(res *Result, rec map[string]any) {
	if phone := text(rec["phoneNumber"]); phone != "" && !validPhone(phone) {
		res.fail("phoneNumber", "Invalid phone number format")
	}
	if email := text(rec["email"]); email != "" && !reEmail.MatchString(email) {
		res.fail("email", "Invalid email format")
	}
}

func validPhone(s string) bool {
	if !rePhone.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// Without drops every finding on the named fields.
func (r Result) Without(fields ...string) Result {
	var out Result
	out.UnexpectedFields = r.UnexpectedFields
	for _, is := range r.Issues {
		if slices.Contains(fields, is.Field) {
			continue
		}
		out.Issues = append(out.Issues, is)
		if is.Severity == constants.SeverityError {
			out.Errors = append(out.Errors, is.Message)
		} else {
			out.Warnings = append(out.Warnings, is.Message)
		}
	}
	return out
}
