package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount string) Money {
	return NewMoney(decimal.RequireFromString(amount), "USD")
}

func TestMoney_AddAndNegate(t *testing.T) {
	a := usd("12.34")

	sum, err := a.Add(a.Negate())
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
	assert.Equal(t, "USD", sum.Currency)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	a := usd("10.00")
	b := NewMoney(decimal.RequireFromString("10.00"), "EUR")

	_, err := a.Add(b)
	var mismatch *CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "USD", mismatch.Left)
	assert.Equal(t, "EUR", mismatch.Right)

	_, err = a.Sub(b)
	require.ErrorAs(t, err, &mismatch)
}

func TestMoney_ApplyPercentage(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		pct      string
		want     string
	}{
		{"exact", "10.00", "USD", "12.5", "1.25"},
		{"rounds half up", "0.10", "USD", "35", "0.04"},
		{"rounds down", "0.10", "USD", "33", "0.03"},
		{"zero decimal currency", "1000", "JPY", "7.5", "75"},
		{"zero decimal rounding", "999", "JPY", "0.1", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMoney(decimal.RequireFromString(tt.amount), tt.currency)
			got := m.ApplyPercentage(decimal.RequireFromString(tt.pct))
			assert.True(t, got.Amount.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got.Amount, tt.want)
		})
	}
}

func TestMoney_MulInt(t *testing.T) {
	got := usd("3.33").MulInt(3)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("9.99")))
}

func TestReconcile_ResidueGoesToFirstPart(t *testing.T) {
	target := usd("10.00")
	parts := []Money{usd("3.33"), usd("3.33"), usd("3.33")}

	out, err := Reconcile(target, parts)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].Amount.Equal(decimal.RequireFromString("3.34")))
	assert.True(t, out[1].Amount.Equal(decimal.RequireFromString("3.33")))
	assert.True(t, out[2].Amount.Equal(decimal.RequireFromString("3.33")))

	sum, err := SumMoney("USD", out)
	require.NoError(t, err)
	assert.True(t, sum.Equal(target))

	// Input untouched.
	assert.True(t, parts[0].Amount.Equal(decimal.RequireFromString("3.33")))
}

func TestReconcile_EmptyParts(t *testing.T) {
	out, err := Reconcile(ZeroMoney("USD"), nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = Reconcile(usd("1.00"), nil)
	assert.Error(t, err)
}

func TestTaxedMoney_Validate(t *testing.T) {
	tm, err := NewTaxedMoney(usd("12.00"), usd("10.00"))
	require.NoError(t, err)
	require.NoError(t, tm.Validate())
	assert.True(t, tm.Tax.Amount.Equal(decimal.RequireFromString("2.00")))

	// Within one minor unit of rounding is tolerated.
	tm.Tax = usd("2.01")
	assert.NoError(t, tm.Validate())

	// Beyond tolerance is not.
	tm.Tax = usd("2.50")
	assert.Error(t, tm.Validate())

	// Mixed currencies are rejected outright.
	tm = TaxedMoney{Gross: usd("12.00"), Net: NewMoney(decimal.RequireFromString("10.00"), "EUR"), Tax: usd("2.00")}
	var mismatch *CurrencyMismatchError
	assert.ErrorAs(t, tm.Validate(), &mismatch)
}

func TestTaxedMoney_GrossEqualsNetPlusTax(t *testing.T) {
	tm, err := NewTaxedMoney(usd("19.99"), usd("16.52"))
	require.NoError(t, err)

	sum := tm.Net.Amount.Add(tm.Tax.Amount)
	assert.True(t, tm.Gross.Amount.Equal(sum))
}

func TestTaxedMoney_AddSub(t *testing.T) {
	a, err := NewTaxedMoney(usd("12.00"), usd("10.00"))
	require.NoError(t, err)
	b, err := NewTaxedMoney(usd("6.00"), usd("5.00"))
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Gross.Amount.Equal(decimal.RequireFromString("18.00")))
	assert.True(t, sum.Net.Amount.Equal(decimal.RequireFromString("15.00")))
	require.NoError(t, sum.Validate())

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Gross.Equal(a.Gross))
}
