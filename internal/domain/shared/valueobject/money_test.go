package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brl(s string) Money {
	return NewMoney(decimal.RequireFromString(s), BRL)
}

func TestMoneyArithmetic(t *testing.T) {
	sum, err := brl("100.50").Add(brl("50.25"))
	require.NoError(t, err)
	assert.True(t, sum.Equals(brl("150.75")))

	diff, err := brl("1000").Subtract(brl("1200"))
	require.NoError(t, err)
	assert.Equal(t, "-200.00 BRL", diff.String())

	_, err = brl("1").Add(NewMoney(decimal.NewFromInt(1), USD))
	assert.ErrorContains(t, err, "cannot add BRL and USD")
	_, err = brl("1").Subtract(NewMoney(decimal.NewFromInt(1), USD))
	assert.Error(t, err)
}

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "R$ 0,00"},
		{"12.5", "R$ 12,50"},
		{"999", "R$ 999,00"},
		{"1000", "R$ 1.000,00"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-500", "-R$ 500,00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, brl(tt.amount).Format())
		})
	}

	assert.Equal(t, "10.00 USD", NewMoney(decimal.NewFromInt(10), USD).Format())
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(brl("99.90"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.9","currency":"BRL"}`, string(data))
}

func TestSum(t *testing.T) {
	total := Sum(BRL, decimal.NewFromInt(100), decimal.RequireFromString("0.5"), decimal.NewFromInt(-20))
	assert.Equal(t, "80.50 BRL", total.String())
	assert.True(t, Sum(DefaultCurrency).IsZero())
}
