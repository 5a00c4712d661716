// Package propagate keeps the three collections consistent after an edit.
// Products and customers are joined to invoices by name only, so an edit
// recomputes the edited record's derived fields and then cascades renames
// and totals to every dependent record.
//
// Functions here are pure: they read a snapshot and return a new one.
package propagate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/internal/calc"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

// Outcome is the combined result of one propagation. Products, Invoices and
// Customers are complete collections and must be applied together.
type Outcome struct {
	Products  []entity.Product
	Invoices  []entity.Invoice
	Customers []entity.Customer
	// UpdatedInvoices lists the ids of invoices the cascade rewrote.
	UpdatedInvoices []string
	Warnings        []string
}

// Collections returns the outcome's record set.
func (o Outcome) Collections() entity.Collections {
	return entity.Collections{Invoices: o.Invoices, Products: o.Products, Customers: o.Customers}
}

// Clone returns a deep copy of the outcome.
func (o Outcome) Clone() Outcome {
	cp := Outcome{
		UpdatedInvoices: slices.Clone(o.UpdatedInvoices),
		Warnings:        slices.Clone(o.Warnings),
	}
	for _, p := range o.Products {
		cp.Products = append(cp.Products, p.Clone())
	}
	for _, inv := range o.Invoices {
		cp.Invoices = append(cp.Invoices, inv.Clone())
	}
	for _, c := range o.Customers {
		cp.Customers = append(cp.Customers, c.Clone())
	}
	return cp
}

// ApplyProductEdit replaces the product with edited.ID, recomputes its
// priceWithTax, renames it inside every invoice that listed its prior name,
// recomputes those invoices from their resolved products and recomputes every
// customer total.
func ApplyProductEdit(c entity.Collections, edited entity.Product) (Outcome, error) {
	pos := slices.IndexFunc(c.Products, func(p entity.Product) bool { return p.ID == edited.ID })
	if pos < 0 {
		return Outcome{}, fmt.Errorf("product %q: %w", edited.ID, common.ErrStaleReference)
	}
	prior := c.Products[pos]

	edited = edited.Clone()
	edited.PriceWithTax = calc.PriceWithTax(edited.Quantity, edited.UnitPrice, edited.Tax, edited.DiscountPercent())

	products := cloneProducts(c.Products)
	products[pos] = edited
	idx := indexProducts(products)

	out := Outcome{Products: products}
	invoices := make([]entity.Invoice, 0, len(c.Invoices))
	for _, inv := range c.Invoices {
		inv = inv.Clone()
		if hasToken(inv.ProductName, prior.Name) {
			inv.ProductName = renameToken(inv.ProductName, prior.Name, edited.Name)
			recomputeInvoice(&inv, products, idx)
			out.UpdatedInvoices = append(out.UpdatedInvoices, inv.ID)
		}
		invoices = append(invoices, inv)
	}
	out.Invoices = invoices
	out.Customers = RecomputeTotals(cloneCustomers(c.Customers), invoices)
	out.Warnings = append(ProductCollisions(products), CustomerCollisions(out.Customers)...)
	return out, nil
}

// ApplyCustomerEdit replaces the customer with edited.ID, renames it on every
// invoice that carried its prior name and recomputes every customer total.
// A caller-supplied totalPurchaseAmount is always overridden.
func ApplyCustomerEdit(c entity.Collections, edited entity.Customer) (Outcome, error) {
	pos := slices.IndexFunc(c.Customers, func(cu entity.Customer) bool { return cu.ID == edited.ID })
	if pos < 0 {
		return Outcome{}, fmt.Errorf("customer %q: %w", edited.ID, common.ErrStaleReference)
	}
	prior := c.Customers[pos]

	customers := cloneCustomers(c.Customers)
	customers[pos] = edited.Clone()

	out := Outcome{Products: cloneProducts(c.Products)}
	invoices := make([]entity.Invoice, 0, len(c.Invoices))
	for _, inv := range c.Invoices {
		inv = inv.Clone()
		if inv.CustomerName == prior.Name && prior.Name != edited.Name {
			inv.CustomerName = edited.Name
			out.UpdatedInvoices = append(out.UpdatedInvoices, inv.ID)
		}
		invoices = append(invoices, inv)
	}
	out.Invoices = invoices
	out.Customers = RecomputeTotals(customers, invoices)
	out.Warnings = CustomerCollisions(out.Customers)
	return out, nil
}

// RecomputeTotals sets every customer's totalPurchaseAmount to the sum of
// totalAmount over invoices carrying the customer's name. customers is
// modified in place and returned.
func RecomputeTotals(customers []entity.Customer, invoices []entity.Invoice) []entity.Customer {
	byName := make(map[string][]float64, len(customers))
	for _, inv := range invoices {
		byName[inv.CustomerName] = append(byName[inv.CustomerName], inv.TotalAmount)
	}
	for i := range customers {
		customers[i].TotalPurchaseAmount = calc.Sum(byName[customers[i].Name]...)
	}
	return customers
}

// recomputeInvoice sums quantity, taxable amount, absolute tax and total over
// the products the invoice lists. Unresolved tokens contribute nothing.
func recomputeInvoice(inv *entity.Invoice, products []entity.Product, idx productIndex) {
	var qty, taxable, tax, total []float64
	for _, p := range resolve(inv.ProductName, products, idx) {
		base := calc.Base(p.Quantity, p.UnitPrice)
		qty = append(qty, p.Quantity)
		taxable = append(taxable, base)
		tax = append(tax, calc.TaxAmount(base, p.Tax))
		total = append(total, p.PriceWithTax)
	}
	inv.Quantity = calc.Sum(qty...)
	inv.TaxableAmount = entity.Float(calc.Sum(taxable...))
	inv.Tax = calc.Sum(tax...)
	inv.TotalAmount = calc.Sum(total...)
}

// resolve returns the first product matching each token, skipping tokens that
// match nothing.
func resolve(productName string, products []entity.Product, idx productIndex) []entity.Product {
	var out []entity.Product
	for _, tok := range splitTokens(productName) {
		if i, ok := idx[strings.TrimSpace(tok)]; ok {
			out = append(out, products[i])
		}
	}
	return out
}

// Resolve reports the products an invoice's productName refers to and
// whether every token resolved.
func Resolve(productName string, products []entity.Product) ([]entity.Product, bool) {
	toks := splitTokens(productName)
	got := resolve(productName, products, indexProducts(products))
	return got, len(toks) > 0 && len(got) == len(toks)
}

func cloneProducts(in []entity.Product) []entity.Product {
	out := make([]entity.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneCustomers(in []entity.Customer) []entity.Customer {
	out := make([]entity.Customer, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
