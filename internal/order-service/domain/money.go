package domain

import (
	"github.com/shopspring/decimal"
)

// Money is an amount tagged with an ISO-4217 currency code.
// Arithmetic between two Money values fails unless the currencies match;
// a mismatch is never coerced silently.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// zeroDecimalCurrencies lists ISO-4217 codes whose minor unit is the whole
// unit (no cents). Everything else rounds to two decimal places.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// currencyExponent returns the number of minor-unit decimal places for a
// currency code.
func currencyExponent(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	return 2
}

// NewMoney builds a Money from an already-parsed decimal amount.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromString parses amounts arriving at the boundary ("10.00").
func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, &ValidationError{Field: "amount", Code: CodeInvalid, Message: "malformed decimal amount"}
	}
	return Money{Amount: d, Currency: currency}, nil
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// sameCurrency guards every binary operation.
func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return &CurrencyMismatchError{Left: m.Currency, Right: other.Currency}
	}
	return nil
}

// Add returns m + other. Fails with CurrencyMismatchError on differing
// currencies.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul multiplies by a scalar and rounds half-up to the currency's minor
// unit.
func (m Money) Mul(scalar decimal.Decimal) Money {
	return Money{
		Amount:   m.Amount.Mul(scalar).Round(currencyExponent(m.Currency)),
		Currency: m.Currency,
	}
}

// MulInt multiplies by an integer quantity. Quantities are exact, so no
// rounding beyond the operand's own precision occurs.
func (m Money) MulInt(n int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(n))), Currency: m.Currency}
}

// ApplyPercentage returns pct% of m, rounded half-up to the currency's
// minor unit.
func (m Money) ApplyPercentage(pct decimal.Decimal) Money {
	return m.Mul(pct.Div(decimal.NewFromInt(100)))
}

// Negate flips the sign of the amount.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal reports amount and currency equality.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// minorUnit is the smallest representable step in this currency (0.01 for
// USD, 1 for JPY). Used as the rounding tolerance for taxed triples.
func (m Money) minorUnit() decimal.Decimal {
	return decimal.New(1, -currencyExponent(m.Currency))
}

// SumMoney folds a slice of Money, failing on the first currency mismatch.
// The currency argument anchors the sum when the slice is empty.
func SumMoney(currency string, amounts []Money) (Money, error) {
	total := ZeroMoney(currency)
	for _, a := range amounts {
		var err error
		total, err = total.Add(a)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// Reconcile adjusts parts so that their sum equals target exactly. Rounding
// residue left over from per-line arithmetic is assigned to the first part;
// the convention is arbitrary but deterministic. The input slice is not
// modified.
func Reconcile(target Money, parts []Money) ([]Money, error) {
	if len(parts) == 0 {
		if !target.IsZero() {
			return nil, &ValidationError{Field: "amount", Code: CodeInvalid, Message: "cannot reconcile a non-zero total over zero parts"}
		}
		return nil, nil
	}
	sum, err := SumMoney(target.Currency, parts)
	if err != nil {
		return nil, err
	}
	residue, err := target.Sub(sum)
	if err != nil {
		return nil, err
	}
	out := make([]Money, len(parts))
	copy(out, parts)
	out[0], err = out[0].Add(residue)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TaxedMoney is a gross/net/tax triple in a single currency with the
// invariant gross == net + tax (within one minor unit of rounding).
type TaxedMoney struct {
	Gross Money
	Net   Money
	Tax   Money
}

// NewTaxedMoney derives the tax component from gross and net.
func NewTaxedMoney(gross, net Money) (TaxedMoney, error) {
	tax, err := gross.Sub(net)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Gross: gross, Net: net, Tax: tax}, nil
}

// TaxedMoneyFromGross builds a tax-free triple (net == gross).
func TaxedMoneyFromGross(gross Money) TaxedMoney {
	return TaxedMoney{Gross: gross, Net: gross, Tax: ZeroMoney(gross.Currency)}
}

// ZeroTaxedMoney returns a zero triple in the given currency.
func ZeroTaxedMoney(currency string) TaxedMoney {
	z := ZeroMoney(currency)
	return TaxedMoney{Gross: z, Net: z, Tax: z}
}

// Currency returns the triple's currency code.
func (t TaxedMoney) Currency() string { return t.Gross.Currency }

// Validate checks the single-currency and gross==net+tax invariants. The
// equality is checked within one minor unit to absorb rounding.
func (t TaxedMoney) Validate() error {
	if err := t.Gross.sameCurrency(t.Net); err != nil {
		return err
	}
	if err := t.Gross.sameCurrency(t.Tax); err != nil {
		return err
	}
	diff := t.Gross.Amount.Sub(t.Net.Amount.Add(t.Tax.Amount)).Abs()
	if diff.GreaterThan(t.Gross.minorUnit()) {
		return &ValidationError{Field: "gross", Code: CodeInvalid, Message: "gross does not equal net plus tax"}
	}
	return nil
}

// Add returns the component-wise sum of two triples.
func (t TaxedMoney) Add(other TaxedMoney) (TaxedMoney, error) {
	gross, err := t.Gross.Add(other.Gross)
	if err != nil {
		return TaxedMoney{}, err
	}
	net, err := t.Net.Add(other.Net)
	if err != nil {
		return TaxedMoney{}, err
	}
	tax, err := t.Tax.Add(other.Tax)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Gross: gross, Net: net, Tax: tax}, nil
}

// Sub returns the component-wise difference of two triples.
func (t TaxedMoney) Sub(other TaxedMoney) (TaxedMoney, error) {
	gross, err := t.Gross.Sub(other.Gross)
	if err != nil {
		return TaxedMoney{}, err
	}
	net, err := t.Net.Sub(other.Net)
	if err != nil {
		return TaxedMoney{}, err
	}
	tax, err := t.Tax.Sub(other.Tax)
	if err != nil {
		return TaxedMoney{}, err
	}
	return TaxedMoney{Gross: gross, Net: net, Tax: tax}, nil
}

// MulInt scales all three components by an integer quantity.
func (t TaxedMoney) MulInt(n int) TaxedMoney {
	return TaxedMoney{Gross: t.Gross.MulInt(n), Net: t.Net.MulInt(n), Tax: t.Tax.MulInt(n)}
}
