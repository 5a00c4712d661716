package entity

import (
	"encoding/json"
	"maps"
)

// Invoice is one extracted invoice line. CustomerName joins to Customer.Name
// and ProductName is a comma-joined list of Product names.
type Invoice struct {
	ID               string   `json:"id"`
	SerialNumber     string   `json:"serialNumber"`
	CustomerName     string   `json:"customerName"`
	ProductName      string   `json:"productName"`
	Quantity         float64  `json:"quantity"`
	Tax              float64  `json:"tax"`
	TotalAmount      float64  `json:"totalAmount"`
	Date             string   `json:"date"`
	TaxableAmount    *float64 `json:"taxableAmount,omitempty"`
	CGST             *float64 `json:"cgst,omitempty"`
	SGST             *float64 `json:"sgst,omitempty"`
	MakingCharges    *float64 `json:"makingCharges,omitempty"`
	DebitCardCharges *float64 `json:"debitCardCharges,omitempty"`
	ShippingCharges  *float64 `json:"shippingCharges,omitempty"`
	GSTIn            string   `json:"gstIn,omitempty"`

	// Extra keeps fields outside the known schema.
	Extra map[string]any `json:"-"`
}

type invoiceJSON Invoice

func (i Invoice) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(invoiceJSON(i), i.Extra, invoiceFields)
}

func (i *Invoice) UnmarshalJSON(data []byte) error {
	var v invoiceJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := extraFields(data, invoiceFields)
	if err != nil {
		return err
	}
	*i = Invoice(v)
	i.Extra = extra
	return nil
}

// Clone returns a deep copy.
func (i Invoice) Clone() Invoice {
	c := i
	c.TaxableAmount = cloneFloat(i.TaxableAmount)
	c.CGST = cloneFloat(i.CGST)
	c.SGST = cloneFloat(i.SGST)
	c.MakingCharges = cloneFloat(i.MakingCharges)
	c.DebitCardCharges = cloneFloat(i.DebitCardCharges)
	c.ShippingCharges = cloneFloat(i.ShippingCharges)
	c.Extra = maps.Clone(i.Extra)
	return c
}
