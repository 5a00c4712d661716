package entity

import (
	"encoding/json"
	"maps"
)

// Product is a catalogue line. PriceWithTax is derived and always
// recomputed from Quantity, UnitPrice, Tax and Discount.
type Product struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Quantity     float64  `json:"quantity"`
	UnitPrice    float64  `json:"unitPrice"`
	Tax          float64  `json:"tax"` // percentage, 0..100
	PriceWithTax float64  `json:"priceWithTax"`
	Discount     *float64 `json:"discount,omitempty"` // percentage

	Extra map[string]any `json:"-"`
}

type productJSON Product

func (p Product) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(productJSON(p), p.Extra, productFields)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var v productJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := extraFields(data, productFields)
	if err != nil {
		return err
	}
	*p = Product(v)
	p.Extra = extra
	return nil
}

// Clone returns a deep copy.
func (p Product) Clone() Product {
	c := p
	c.Discount = cloneFloat(p.Discount)
	c.Extra = maps.Clone(p.Extra)
	return c
}

// DiscountPercent returns the discount, or 0 when absent.
func (p Product) DiscountPercent() float64 {
	if p.Discount == nil {
		return 0
	}
	return *p.Discount
}
