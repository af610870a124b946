// Package valueobject holds immutable value types shared across the ledger.
package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	BRL Currency = "BRL"
	USD Currency = "USD"
)

// DefaultCurrency is the currency every ledger amount is booked in
const DefaultCurrency = BRL

// Money is an amount tagged with its currency. The zero value is 0 with no currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney tags amount with currency.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Sum totals amounts in one currency.
func Sum(currency Currency, amounts ...decimal.Decimal) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return NewMoney(total, currency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) sameCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s %s and %s amounts", op, m.currency, other.currency)
	}
	return nil
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency), nil
}

// Subtract returns m minus other; both must share a currency.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency), nil
}

// Equals compares amount and currency.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String is "1234.50 BRL".
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + string(m.currency)
}

// Format renders BRL the Brazilian way, "R$ 1.234,56". Other currencies use String.
func (m Money) Format() string {
	if m.currency != BRL {
		return m.String()
	}
	whole, cents, _ := strings.Cut(m.amount.Abs().StringFixed(2), ".")

	var grouped strings.Builder
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteByte(whole[i])
	}
	sign := ""
	if m.amount.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + grouped.String() + "," + cents
}

// MarshalJSON writes {"amount":"12.5","currency":"BRL"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"amount":   m.amount.String(),
		"currency": string(m.currency),
	})
}
