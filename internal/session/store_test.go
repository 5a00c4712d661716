package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
	"github.com/joseph-ayodele/invoice-ledger/internal/validate"
)

type recordingObserver struct {
	mu    sync.Mutex
	edits []constants.EntityType
	errs  []error
}

func (o *recordingObserver) ObserveEdit(et constants.EntityType, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.edits = append(o.edits, et)
	o.errs = append(o.errs, err)
}

func seeded(t *testing.T, opts ...Option) *Store {
	t.Helper()
	d := entity.NewExtractedData()
	d.Products = []entity.Product{{ID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 10, Tax: 10, PriceWithTax: 22}}
	d.Invoices = []entity.Invoice{{ID: "i1", SerialNumber: "1", CustomerName: "Alice", ProductName: "Widget", Quantity: 2, Tax: 2, TotalAmount: 22, Date: "2024-01-05"}}
	d.Customers = []entity.Customer{{ID: "c1", Name: "Alice", PhoneNumber: "5551234567", TotalPurchaseAmount: 0}}
	s := NewStore(validate.New(validate.DefaultOptions()), nil, opts...)
	s.Load(d)
	return s
}

func TestCustomerNoOpEditRecomputesTotal(t *testing.T) {
	s := seeded(t)
	snap := s.Snapshot()

	_, err := s.ApplyCustomerEdit(context.Background(), snap.Customers[0])
	require.NoError(t, err)
	assert.Equal(t, 22.0, s.Snapshot().Customers[0].TotalPurchaseAmount)
}

func TestProductPatchCascades(t *testing.T) {
	obs := &recordingObserver{}
	s := seeded(t, WithObserver(obs))
	ctx := context.Background()

	out, err := s.ApplyProductPatch(ctx, "p1", map[string]any{"discount": "50%", "name": "Gadget", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, out.UpdatedInvoices)

	snap := s.Snapshot()
	assert.Equal(t, "p1", snap.Products[0].ID)
	assert.Equal(t, 11.0, snap.Products[0].PriceWithTax)
	assert.Equal(t, "Gadget", snap.Invoices[0].ProductName)
	assert.Equal(t, 11.0, snap.Invoices[0].TotalAmount)
	assert.Equal(t, 11.0, snap.Customers[0].TotalPurchaseAmount)
	assert.Equal(t, []constants.EntityType{constants.Products}, obs.edits)
}

func TestCustomerPatchParsesFormattedTotal(t *testing.T) {
	s := seeded(t)
	_, err := s.ApplyCustomerPatch(context.Background(), "c1", map[string]any{
		"totalPurchaseAmount": "$1,000.00",
		"name":                "Alicia",
	})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "Alicia", snap.Customers[0].Name)
	assert.Equal(t, 22.0, snap.Customers[0].TotalPurchaseAmount, "caller total is overridden")
	assert.Equal(t, "Alicia", snap.Invoices[0].CustomerName)
}

func TestStaleEditLeavesStateUntouched(t *testing.T) {
	obs := &recordingObserver{}
	s := seeded(t, WithObserver(obs))
	before := s.Snapshot()

	_, err := s.ApplyProductPatch(context.Background(), "gone", map[string]any{"name": "X"})
	require.ErrorIs(t, err, common.ErrStaleReference)
	_, err = s.ApplyCustomerEdit(context.Background(), entity.Customer{ID: "gone", Name: "X", PhoneNumber: "5551234567"})
	require.ErrorIs(t, err, common.ErrStaleReference)

	assert.Equal(t, before, s.Snapshot())
	require.Len(t, obs.errs, 2)
	assert.Error(t, obs.errs[0])
}

func TestUnknownIDIsStaleEvenWhenInvalid(t *testing.T) {
	ctx := context.Background()
	empty := NewStore(nil, nil)

	_, err := empty.ApplyProductEdit(ctx, entity.Product{ID: "ghost"})
	require.ErrorIs(t, err, common.ErrStaleReference)
	assert.NotErrorIs(t, err, common.ErrValidation)

	s := seeded(t)
	_, err = s.ApplyCustomerEdit(ctx, entity.Customer{ID: "ghost", Email: "not-an-email"})
	require.ErrorIs(t, err, common.ErrStaleReference)
	assert.NotErrorIs(t, err, common.ErrValidation)
}

func TestOutcomeDoesNotAliasState(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	out, err := s.ApplyProductPatch(ctx, "p1", map[string]any{"discount": 50})
	require.NoError(t, err)
	require.Len(t, out.Products, 1)
	out.Products[0].Name = "Mutated"
	*out.Products[0].Discount = 0
	out.Invoices[0].ProductName = "Mutated"

	snap := s.Snapshot()
	assert.Equal(t, "Widget", snap.Products[0].Name)
	assert.Equal(t, 50.0, snap.Products[0].DiscountPercent())
	assert.Equal(t, "Widget", snap.Invoices[0].ProductName)

	typed := snap.Customers[0]
	out, err = s.ApplyCustomerEdit(ctx, typed)
	require.NoError(t, err)
	out.Customers[0].TotalPurchaseAmount = -1
	assert.Equal(t, 11.0, s.Snapshot().Customers[0].TotalPurchaseAmount)
}

func TestInvalidPatchIsRejected(t *testing.T) {
	s := seeded(t)
	before := s.Snapshot()

	_, err := s.ApplyCustomerPatch(context.Background(), "c1", map[string]any{"email": "not-an-email"})
	require.ErrorIs(t, err, common.ErrValidation)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "Invalid email format")

	_, err = s.ApplyProductPatch(context.Background(), "p1", map[string]any{"quantity": "-4"})
	require.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, before, s.Snapshot())
}

func TestEditRecordsWarningsInValidationState(t *testing.T) {
	s := seeded(t)
	_, err := s.ApplyProductPatch(context.Background(), "p1", map[string]any{"colour": "red"})
	require.NoError(t, err)

	snap := s.Snapshot()
	issues := snap.ValidationState[constants.Products]["p1"]
	require.Len(t, issues, 1)
	assert.Equal(t, constants.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "red", snap.Products[0].Extra["colour"])

	_, err = s.ApplyProductPatch(context.Background(), "p1", map[string]any{"colour": nil})
	require.NoError(t, err)
	assert.NotContains(t, s.Snapshot().ValidationState[constants.Products], "p1")
}

func TestSnapshotIsACopy(t *testing.T) {
	s := seeded(t)
	snap := s.Snapshot()
	snap.Products[0].Name = "Mutated"
	assert.Equal(t, "Widget", s.Snapshot().Products[0].Name)
}

func TestConcurrentEditsSerialize(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ApplyProductPatch(ctx, "p1", map[string]any{"quantity": 3})
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.Equal(t, 33.0, snap.Products[0].PriceWithTax)
	assert.Equal(t, 33.0, snap.Customers[0].TotalPurchaseAmount)
}
