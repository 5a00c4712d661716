package entity

import (
	"encoding/json"
	"maps"
)

// Customer is a buyer. TotalPurchaseAmount is derived: the sum of TotalAmount
// over invoices whose CustomerName equals Name.
type Customer struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	PhoneNumber         string  `json:"phoneNumber"`
	TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
	Email               string  `json:"email,omitempty"`
	Address             string  `json:"address,omitempty"`

	Extra map[string]any `json:"-"`
}

type customerJSON Customer

func (c Customer) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(customerJSON(c), c.Extra, customerFields)
}

func (c *Customer) UnmarshalJSON(data []byte) error {
	var v customerJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := extraFields(data, customerFields)
	if err != nil {
		return err
	}
	*c = Customer(v)
	c.Extra = extra
	return nil
}

// Clone returns a deep copy.
func (c Customer) Clone() Customer {
	out := c
	out.Extra = maps.Clone(c.Extra)
	return out
}
