package domain

import "github.com/shopspring/decimal"

// OrderDiscountType says where a discount came from.
type OrderDiscountType string

const (
	DiscountTypeVoucher OrderDiscountType = "VOUCHER"
	DiscountTypeManual  OrderDiscountType = "MANUAL"
	DiscountTypeSale    OrderDiscountType = "SALE"
)

// DiscountValueType is how the discount value is interpreted.
type DiscountValueType string

const (
	DiscountValueFixed      DiscountValueType = "FIXED"
	DiscountValuePercentage DiscountValueType = "PERCENTAGE"
)

// IsValid reports whether the token is a known calculation mode.
func (v DiscountValueType) IsValid() bool {
	return v == DiscountValueFixed || v == DiscountValuePercentage
}

// Discount is a typed reduction plus the monetary effect it produces.
type Discount struct {
	ID              string
	Type            OrderDiscountType
	CalculationMode DiscountValueType
	Value           decimal.Decimal
	Reason          string
	Amount          Money
}

// AmountFor computes the monetary effect of the discount against a base
// amount. Percentage discounts are always recomputed here rather than
// trusting a transport-supplied Amount.
func (d Discount) AmountFor(base Money) (Money, error) {
	switch d.CalculationMode {
	case DiscountValueFixed:
		return Money{Amount: d.Value, Currency: base.Currency}, nil
	case DiscountValuePercentage:
		return base.ApplyPercentage(d.Value), nil
	default:
		return Money{}, &ValidationError{Field: "calculationMode", Code: CodeInvalid, Message: "unknown discount calculation mode"}
	}
}

// Validate recomputes the discount amount against the undiscounted base and
// compares it with the supplied Amount. A transport-supplied amount is never
// authoritative when the domain layer validates.
func (d Discount) Validate(undiscountedBase Money) error {
	if !d.CalculationMode.IsValid() {
		return &ValidationError{Field: "calculationMode", Code: CodeInvalid, Message: "unknown discount calculation mode"}
	}
	expected, err := d.AmountFor(undiscountedBase)
	if err != nil {
		return err
	}
	if !d.Amount.Equal(expected) {
		return &ValidationError{Field: "amount", Code: CodeInvalid, Message: "discount amount does not match its value"}
	}
	return nil
}

// ApplyDiscount reduces a taxed base by the discount, preserving the tax
// rate. The gross never goes negative: it clamps to zero and the clamped
// flag tells the caller the discount exceeded the base. The clamped result
// is still usable.
func ApplyDiscount(base TaxedMoney, d Discount) (TaxedMoney, bool, error) {
	amount, err := d.AmountFor(base.Gross)
	if err != nil {
		return TaxedMoney{}, false, err
	}
	newGross, err := base.Gross.Sub(amount)
	if err != nil {
		return TaxedMoney{}, false, err
	}

	clamped := false
	if newGross.IsNegative() {
		newGross = ZeroMoney(base.Currency())
		clamped = true
	}
	if base.Gross.IsZero() || newGross.IsZero() {
		return ZeroTaxedMoney(base.Currency()), clamped, nil
	}

	// Scale net by the same factor so the effective tax rate is unchanged,
	// then let tax absorb the rounding residue.
	factor := newGross.Amount.Div(base.Gross.Amount)
	newNet := base.Net.Mul(factor)
	newTax, err := newGross.Sub(newNet)
	if err != nil {
		return TaxedMoney{}, false, err
	}
	return TaxedMoney{Gross: newGross, Net: newNet, Tax: newTax}, clamped, nil
}

// ApplyDiscounts composes discounts strictly in recorded order: each one
// applies to the already-discounted base. Returns whether any step clamped.
func ApplyDiscounts(base TaxedMoney, discounts []Discount) (TaxedMoney, bool, error) {
	result := base
	anyClamped := false
	for _, d := range discounts {
		var clamped bool
		var err error
		result, clamped, err = ApplyDiscount(result, d)
		if err != nil {
			return TaxedMoney{}, false, err
		}
		anyClamped = anyClamped || clamped
	}
	return result, anyClamped, nil
}
