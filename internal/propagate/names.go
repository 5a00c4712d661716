package propagate

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-ledger/internal/entity"
)

// splitTokens splits a comma-joined product list. Tokens keep their
// surrounding whitespace so a rename can be written back in place.
func splitTokens(productName string) []string {
	if productName == "" {
		return nil
	}
	return strings.Split(productName, ",")
}

// hasToken reports whether name is one of the tokens of productName.
func hasToken(productName, name string) bool {
	for _, tok := range splitTokens(productName) {
		if strings.TrimSpace(tok) == name {
			return true
		}
	}
	return false
}

// renameToken replaces every token equal to from with to, keeping each
// token's position and padding.
func renameToken(productName, from, to string) string {
	toks := splitTokens(productName)
	for i, tok := range toks {
		core := strings.TrimSpace(tok)
		if core != from {
			continue
		}
		start := strings.Index(tok, core)
		toks[i] = tok[:start] + to + tok[start+len(core):]
	}
	return strings.Join(toks, ",")
}

// productIndex resolves a product name to the first product carrying it.
// It is rebuilt on every call and never kept.
type productIndex map[string]int

func indexProducts(products []entity.Product) productIndex {
	idx := make(productIndex, len(products))
	for i, p := range products {
		if _, seen := idx[p.Name]; !seen {
			idx[p.Name] = i
		}
	}
	return idx
}

// ProductCollisions returns one warning per product name shared by more than
// one record.
func ProductCollisions(products []entity.Product) []string {
	names := make([]string, len(products))
	ids := make([]string, len(products))
	for i, p := range products {
		names[i], ids[i] = p.Name, p.ID
	}
	return collisions("Product", names, ids)
}

// CustomerCollisions returns one warning per customer name shared by more
// than one record.
func CustomerCollisions(customers []entity.Customer) []string {
	names := make([]string, len(customers))
	ids := make([]string, len(customers))
	for i, c := range customers {
		names[i], ids[i] = c.Name, c.ID
	}
	return collisions("Customer", names, ids)
}

func collisions(kind string, names, ids []string) []string {
	first := map[string]string{}
	count := map[string]int{}
	var order []string
	for i, n := range names {
		if n == "" {
			continue
		}
		if _, seen := first[n]; !seen {
			first[n] = ids[i]
			order = append(order, n)
		}
		count[n]++
	}
	var out []string
	for _, n := range order {
		if count[n] > 1 {
			out = append(out, fmt.Sprintf("%s name %q is shared by %d records; matches resolve to the first (%s)",
				kind, n, count[n], first[n]))
		}
	}
	return out
}
