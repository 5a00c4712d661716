// Package session holds the current extraction result and funnels every
// mutation through the propagator.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/normalize"
	"github.com/joseph-ayodele/invoice-ledger/internal/propagate"
	"github.com/joseph-ayodele/invoice-ledger/internal/validate"
)

// Observer is notified after every committed edit.
type Observer interface {
	ObserveEdit(et constants.EntityType, updatedInvoices int, elapsed time.Duration, err error)
}

// Store is the explicit state container for one editing session. It is safe
// for concurrent use; each edit runs in one critical section.
type Store struct {
	mu        sync.RWMutex
	data      *entity.ExtractedData
	validator *validate.Validator
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithObserver sets the edit observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store.
func NewStore(v *validate.Validator, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = validate.New(validate.DefaultOptions())
	}
	s := &Store{data: entity.NewExtractedData(), validator: v, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces every collection with data.
func (s *Store) Load(data *entity.ExtractedData) {
	cp := data.Clone()
	s.mu.Lock()
	s.data = cp
	s.mu.Unlock()
	s.logger.Info("session.load",
		"invoices", len(cp.Invoices), "products", len(cp.Products), "customers", len(cp.Customers))
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *entity.ExtractedData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// ApplyProductEdit runs a typed product edit. An unknown id fails with
// ErrStaleReference before the record is validated. The returned outcome is
// a copy; changing it does not touch the session.
func (s *Store) ApplyProductEdit(ctx context.Context, edited entity.Product) (propagate.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.productIndex(edited.ID) < 0 {
		return s.fail(ctx, constants.Products, time.Now(), fmt.Errorf("product %q: %w", edited.ID, common.ErrStaleReference))
	}
	res, err := s.check(constants.Products, edited.ID, edited)
	if err != nil {
		return s.fail(ctx, constants.Products, time.Now(), err)
	}
	return s.commitProduct(ctx, edited, res)
}

// ApplyCustomerEdit runs a typed customer edit. Lookup and copy rules match
// ApplyProductEdit.
func (s *Store) ApplyCustomerEdit(ctx context.Context, edited entity.Customer) (propagate.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerIndex(edited.ID) < 0 {
		return s.fail(ctx, constants.Customers, time.Now(), fmt.Errorf("customer %q: %w", edited.ID, common.ErrStaleReference))
	}
	res, err := s.check(constants.Customers, edited.ID, edited)
	if err != nil {
		return s.fail(ctx, constants.Customers, time.Now(), err)
	}
	return s.commitCustomer(ctx, edited, res)
}

// ApplyProductPatch merges raw field updates onto the current product and
// runs the edit. Values may be formatted strings ("$12.50", "18%").
func (s *Store) ApplyProductPatch(ctx context.Context, id string, patch map[string]any) (propagate.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.productIndex(id)
	if pos < 0 {
		return s.fail(ctx, constants.Products, time.Now(), fmt.Errorf("product %q: %w", id, common.ErrStaleReference))
	}
	var edited entity.Product
	res, err := s.merge(constants.Products, s.data.Products[pos], id, patch, &edited)
	if err != nil {
		return s.fail(ctx, constants.Products, time.Now(), err)
	}
	return s.commitProduct(ctx, edited, res)
}

// ApplyCustomerPatch merges raw field updates onto the current customer and
// runs the edit.
func (s *Store) ApplyCustomerPatch(ctx context.Context, id string, patch map[string]any) (propagate.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.customerIndex(id)
	if pos < 0 {
		return s.fail(ctx, constants.Customers, time.Now(), fmt.Errorf("customer %q: %w", id, common.ErrStaleReference))
	}
	var edited entity.Customer
	res, err := s.merge(constants.Customers, s.data.Customers[pos], id, patch, &edited)
	if err != nil {
		return s.fail(ctx, constants.Customers, time.Now(), err)
	}
	return s.commitCustomer(ctx, edited, res)
}

func (s *Store) productIndex(id string) int {
	return slices.IndexFunc(s.data.Products, func(p entity.Product) bool { return p.ID == id })
}

func (s *Store) customerIndex(id string) int {
	return slices.IndexFunc(s.data.Customers, func(c entity.Customer) bool { return c.ID == id })
}

// merge overlays patch on current, validates the result and decodes it into
// out. Fatal findings reject the edit. The record id cannot be patched.
func (s *Store) merge(et constants.EntityType, current any, id string, patch map[string]any, out any) (validate.Result, error) {
	base, err := entity.ToMap(current)
	if err != nil {
		return validate.Result{}, fmt.Errorf("encode %s %q: %w", et, id, err)
	}
	rec := normalize.Merge(et, base, patch)
	rec["id"] = id

	res, err := s.validateRecord(et, id, rec)
	if err != nil {
		return validate.Result{}, err
	}
	if err := entity.FromMap(rec, out); err != nil {
		return validate.Result{}, fmt.Errorf("decode %s %q: %v: %w", et, id, err, common.ErrInvalidInput)
	}
	return res, nil
}

// check validates a typed record.
func (s *Store) check(et constants.EntityType, id string, v any) (validate.Result, error) {
	rec, err := entity.ToMap(v)
	if err != nil {
		return validate.Result{}, fmt.Errorf("encode %s %q: %w", et, id, err)
	}
	return s.validateRecord(et, id, rec)
}

// derivedFields are recomputed by the propagator, so findings on them are
// not the editor's to fix.
var derivedFields = map[constants.EntityType][]string{
	constants.Products:  {"priceWithTax"},
	constants.Customers: {"totalPurchaseAmount"},
}

func (s *Store) validateRecord(et constants.EntityType, id string, rec map[string]any) (validate.Result, error) {
	res := s.validator.Validate(et, rec).Without(derivedFields[et]...)
	if !res.Valid() {
		return validate.Result{}, common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("%s %q: %s", et, id, strings.Join(res.Errors, "; ")), common.ErrValidation)
	}
	return res, nil
}

func (s *Store) commitProduct(ctx context.Context, edited entity.Product, res validate.Result) (propagate.Outcome, error) {
	start := time.Now()
	out, err := propagate.ApplyProductEdit(s.collections(), edited)
	if err != nil {
		return s.fail(ctx, constants.Products, start, err)
	}
	s.commit(out)
	s.record(constants.Products, edited.ID, res)
	s.done(ctx, constants.Products, edited.ID, out, start)
	return out.Clone(), nil
}

func (s *Store) commitCustomer(ctx context.Context, edited entity.Customer, res validate.Result) (propagate.Outcome, error) {
	start := time.Now()
	out, err := propagate.ApplyCustomerEdit(s.collections(), edited)
	if err != nil {
		return s.fail(ctx, constants.Customers, start, err)
	}
	s.commit(out)
	s.record(constants.Customers, edited.ID, res)
	s.done(ctx, constants.Customers, edited.ID, out, start)
	return out.Clone(), nil
}

// collections exposes the live slices; the propagator never writes to its
// input.
func (s *Store) collections() entity.Collections {
	return entity.Collections{Invoices: s.data.Invoices, Products: s.data.Products, Customers: s.data.Customers}
}

func (s *Store) commit(out propagate.Outcome) {
	s.data.Products = out.Products
	s.data.Invoices = out.Invoices
	s.data.Customers = out.Customers
	for _, w := range out.Warnings {
		if !slices.Contains(s.data.Metadata.Warnings, w) {
			s.data.AddWarning(w)
		}
	}
}

func (s *Store) record(et constants.EntityType, id string, res validate.Result) {
	s.data.SetIssues(et, id, res.Issues)
	s.data.SetUnexpected(et, id, res.UnexpectedFields)
}

func (s *Store) done(ctx context.Context, et constants.EntityType, id string, out propagate.Outcome, start time.Time) {
	elapsed := time.Since(start)
	common.LoggerFromContext(ctx, s.logger).Info("propagate."+entityLogName(et)+".ok",
		"req_id", common.RequestIDFromContext(ctx),
		"record_id", id,
		"updated_invoices", len(out.UpdatedInvoices),
		"warnings", len(out.Warnings),
		"elapsed_ms", elapsed.Milliseconds())
	if s.observer != nil {
		s.observer.ObserveEdit(et, len(out.UpdatedInvoices), elapsed, nil)
	}
}

func (s *Store) fail(ctx context.Context, et constants.EntityType, start time.Time, err error) (propagate.Outcome, error) {
	elapsed := time.Since(start)
	common.LoggerFromContext(ctx, s.logger).Warn("propagate."+entityLogName(et)+".rejected",
		"req_id", common.RequestIDFromContext(ctx),
		"err", err,
		"elapsed_ms", elapsed.Milliseconds())
	if s.observer != nil {
		s.observer.ObserveEdit(et, 0, elapsed, err)
	}
	return propagate.Outcome{}, err
}

func entityLogName(et constants.EntityType) string {
	return strings.TrimSuffix(string(et), "s")
}

