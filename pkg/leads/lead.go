// Package leads defines the inbound lead record and the request shapes the
// HTTP API accepts, together with the boundary validation applied to them.
package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/leadsync/pkg/normalize"
)

// Lead is one inbound person/sale record. It lives for a single request or
// CSV row and is never persisted.
type Lead struct {
	Name         string     `json:"name" yaml:"name"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone        string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	TaxID        string     `json:"taxId,omitempty" yaml:"tax_id,omitempty"`
	Products     StringList `json:"products,omitempty" yaml:"products,omitempty"`
	Region       string     `json:"region,omitempty" yaml:"region,omitempty"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	Priority     *int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Amount       Amount     `json:"amount,omitempty" yaml:"amount,omitempty"`
	PurchaseDate string     `json:"purchaseDate,omitempty" yaml:"purchase_date,omitempty"`
}

// Key returns the normalized email that serializes reconciliation of this
// lead. Leads without email have an empty key.
func (l Lead) Key() string {
	return normalize.Email(l.Email)
}

// ProductNames returns the cleaned product list.
func (l Lead) ProductNames() []string {
	return normalize.CleanList(l.Products)
}

// StringList is a product list that decodes from either a JSON array of
// strings or a single delimited string ("A, B; C").
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*s = normalize.CleanList(items)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("products must be a string or an array of strings")
	}
	*s = normalize.SplitList(single)
	return nil
}

// Amount is the sale amount as received. JSON numbers keep their numeric
// value; strings ("R$ 1.234,56") keep their text and are parsed when the
// amount is aggregated.
type Amount struct {
	text   string
	value  float64
	number bool
}

// AmountText returns an Amount holding free text.
func AmountText(s string) Amount {
	return Amount{text: strings.TrimSpace(s)}
}

// AmountNumber returns an Amount holding a number.
func AmountNumber(v float64) Amount {
	return Amount{text: strconv.FormatFloat(v, 'f', -1, 64), value: v, number: true}
}

// IsZero reports whether no amount was given.
func (a Amount) IsZero() bool {
	return a.text == ""
}

// Number returns the value when the amount was given as a number.
func (a Amount) Number() (float64, bool) {
	return a.value, a.number
}

// String returns the amount text.
func (a Amount) String() string {
	return a.text
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Amount{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("amount must be a number or a string")
		}
		*a = AmountNumber(v)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case a.IsZero():
		return []byte("null"), nil
	case a.number:
		return json.Marshal(a.value)
	default:
		return json.Marshal(a.text)
	}
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (a Amount) MarshalYAML() (any, error) {
	switch {
	case a.IsZero():
		return nil, nil
	case a.number:
		return a.value, nil
	default:
		return a.text, nil
	}
}
