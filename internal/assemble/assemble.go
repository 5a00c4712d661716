// Package assemble turns the raw answer of the extraction service into a
// validated ExtractedData bundle.
package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/calc"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/llm"
	"github.com/joseph-ayodele/invoice-ledger/internal/normalize"
	"github.com/joseph-ayodele/invoice-ledger/internal/propagate"
	"github.com/joseph-ayodele/invoice-ledger/internal/validate"
)

// Options controls record acceptance.
type Options struct {
	Validate validate.Options
	// RetainInvalidProducts keeps products with fatal findings, flagged in
	// validationState, instead of dropping them.
	RetainInvalidProducts bool
}

// OptionsFrom maps the application config onto assembler options.
func OptionsFrom(c common.ValidationConfig) Options {
	return Options{
		Validate: validate.Options{
			ProductTaxRange:       c.ProductTaxRange,
			RequireProductTax:     c.RequireProductTax,
			ZeroSatisfiesRequired: c.ZeroSatisfiesRequired,
		},
		RetainInvalidProducts: c.RetainInvalidProducts,
	}
}

// Report counts what happened to the records of one run.
type Report struct {
	Accepted      map[constants.EntityType]int
	Rejected      map[constants.EntityType]int
	AmbiguousTax  int
	GeneratedIDs  int
	WarningsTotal int
}

func newReport() Report {
	return Report{Accepted: map[constants.EntityType]int{}, Rejected: map[constants.EntityType]int{}}
}

// Assembler runs the normalizer and validator over every record of a payload.
type Assembler struct {
	opts      Options
	validator *validate.Validator
	gate      *jsonschema.Schema
	newID     func() string
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithIDFunc replaces the identity generator.
func WithIDFunc(fn func() string) Option {
	return func(a *Assembler) { a.newID = fn }
}

// New builds an assembler. It fails only if the payload schema does not
// compile.
func New(opts Options, logger *slog.Logger, options ...Option) (*Assembler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gate, err := llm.CompileSchema(llm.BuildPayloadSchema())
	if err != nil {
		return nil, fmt.Errorf("payload schema: %w", err)
	}
	a := &Assembler{
		opts:      opts,
		validator: validate.New(opts.Validate),
		gate:      gate,
		newID:     newV7,
		logger:    logger,
	}
	for _, o := range options {
		o(a)
	}
	return a, nil
}

// newV7 mints a random, time-ordered identity.
func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Assemble parses raw model output and builds the bundle. Only an
// unparseable payload fails; bad records are dropped or flagged.
func (a *Assembler) Assemble(ctx context.Context, raw string) (*entity.ExtractedData, Report, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, a.logger)
	rid := common.RequestIDFromContext(ctx)

	payload, err := a.parse(raw)
	if err != nil {
		log.Error("assemble.payload.malformed", "req_id", rid, "error", err, "raw_len", len(raw))
		return nil, Report{}, err
	}

	b := &builder{
		a:      a,
		log:    log.With("req_id", rid),
		data:   entity.NewExtractedData(),
		report: newReport(),
		seen:   map[constants.EntityType]map[string]bool{},
	}
	for _, et := range constants.EntityTypes {
		b.collection(et, payload[string(et)])
	}
	b.crossChecks()

	b.report.WarningsTotal = len(b.data.Metadata.Warnings)
	log.Info("assemble.ok",
		"req_id", rid,
		"invoices", len(b.data.Invoices),
		"products", len(b.data.Products),
		"customers", len(b.data.Customers),
		"rejected", b.report.Rejected,
		"warnings", b.report.WarningsTotal,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.data, b.report, nil
}

func (a *Assembler) parse(raw string) (map[string]any, error) {
	text := llm.StripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty payload: %w", common.ErrMalformedPayload)
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("decode payload: %v: %w", err, common.ErrMalformedPayload)
	}
	if err := a.gate.Validate(v); err != nil {
		return nil, fmt.Errorf("payload shape: %v: %w", err, common.ErrMalformedPayload)
	}
	m, _ := v.(map[string]any)
	return m, nil
}

// records coerces a collection into a list: a bare object becomes a
// one-element list and absence means empty. Elements are left untyped.
func records(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return []any{t}
	default:
		return nil
	}
}

type builder struct {
	a      *Assembler
	log    *slog.Logger
	data   *entity.ExtractedData
	report Report
	seen   map[constants.EntityType]map[string]bool
}

func (b *builder) collection(et constants.EntityType, v any) {
	b.seen[et] = map[string]bool{}
	for i, item := range records(v) {
		raw, ok := item.(map[string]any)
		if !ok {
			b.reject(et, fmt.Sprintf("%s[%d]", et, i), "", []string{"not an object"})
			continue
		}
		b.record(et, i, raw)
	}
}

func (b *builder) record(et constants.EntityType, i int, raw map[string]any) {
	norm := normalize.Record(et, raw)
	rec := norm.Record
	at := fmt.Sprintf("%s[%d]", et, i)

	id, _ := rec["id"].(string)
	if id == "" || b.seen[et][id] {
		if id != "" {
			b.data.AddWarning(fmt.Sprintf("%s: duplicate id %q replaced", at, id))
		}
		id = b.a.newID()
		rec["id"] = id
		b.report.GeneratedIDs++
	}

	res := b.a.validator.Validate(et, rec)
	retain := et == constants.Products && b.a.opts.RetainInvalidProducts
	if !res.Valid() && !retain {
		b.reject(et, at, id, res.Errors)
		return
	}

	if err := b.decode(et, rec); err != nil {
		b.reject(et, at, id, []string{err.Error()})
		return
	}
	b.seen[et][id] = true
	b.report.Accepted[et]++
	if norm.Tax != nil && norm.Tax.Confidence == normalize.ConfidenceLow {
		b.report.AmbiguousTax++
	}

	b.data.SetUnexpected(et, id, res.UnexpectedFields)
	b.data.SetIssues(et, id, res.Issues)
	for _, n := range norm.Notes {
		b.data.AddWarning(at + ": " + n)
	}
	for _, w := range res.Warnings {
		b.data.AddWarning(at + ": " + w)
	}
	if !res.Valid() {
		b.data.AddWarning(fmt.Sprintf("%s retained with errors: %s", at, strings.Join(res.Errors, "; ")))
		b.log.Warn("assemble.record.flagged", "entity", et, "record_id", id, "errors", res.Errors)
	}
}

func (b *builder) reject(et constants.EntityType, at, id string, errs []string) {
	b.report.Rejected[et]++
	b.data.AddWarning(fmt.Sprintf("%s rejected: %s", at, strings.Join(errs, "; ")))
	b.log.Warn("assemble.record.rejected", "entity", et, "record_id", id, "errors", errs)
}

func (b *builder) decode(et constants.EntityType, rec map[string]any) error {
	switch et {
	case constants.Invoices:
		var v entity.Invoice
		if err := entity.FromMap(rec, &v); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		b.data.Invoices = append(b.data.Invoices, v)
	case constants.Products:
		var v entity.Product
		if err := entity.FromMap(rec, &v); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		b.data.Products = append(b.data.Products, v)
	case constants.Customers:
		var v entity.Customer
		if err := entity.FromMap(rec, &v); err != nil {
			return fmt.Errorf("decode customer: %w", err)
		}
		b.data.Customers = append(b.data.Customers, v)
	}
	return nil
}

// crossChecks adds the advisory findings that span collections.
func (b *builder) crossChecks() {
	d := b.data
	for _, inv := range d.Invoices {
		resolved, all := propagate.Resolve(inv.ProductName, d.Products)
		if !all {
			continue
		}
		qty := make([]float64, len(resolved))
		for i, p := range resolved {
			qty[i] = p.Quantity
		}
		if sum := calc.Sum(qty...); !calc.Reconciles(inv.Quantity, sum) {
			d.AddWarning(fmt.Sprintf("Invoice %s quantity (%v) doesn't match sum of product quantities (%v)",
				inv.SerialNumber, inv.Quantity, sum))
		}
	}

	totals := propagate.RecomputeTotals(append([]entity.Customer(nil), d.Customers...), d.Invoices)
	for i, c := range d.Customers {
		want := totals[i].TotalPurchaseAmount
		if want != 0 && !calc.Reconciles(c.TotalPurchaseAmount, want) {
			d.AddWarning(fmt.Sprintf("Customer %s totalPurchaseAmount (%v) doesn't match sum of invoice totals (%v)",
				c.Name, c.TotalPurchaseAmount, want))
		}
	}

	for _, w := range propagate.ProductCollisions(d.Products) {
		d.AddWarning(w)
	}
	for _, w := range propagate.CustomerCollisions(d.Customers) {
		d.AddWarning(w)
	}
}
