package domain

import "github.com/shopspring/decimal"

// OrderLine is one purchased item quantity on the order, with its per-unit
// discounted and undiscounted pricing.
type OrderLine struct {
	ID                    string
	ProductName           string
	ProductSKU            string
	VariantName           string
	Quantity              int
	QuantityFulfilled     int
	UnitDiscount          Money
	UnitDiscountValue     decimal.Decimal
	UnitDiscountReason    string
	UnitDiscountType      DiscountValueType
	UndiscountedUnitPrice TaxedMoney
	UnitPrice             TaxedMoney
	IsShippingRequired    bool
}

// TotalPrice is the discounted unit price scaled by the ordered quantity.
func (l OrderLine) TotalPrice() TaxedMoney {
	return l.UnitPrice.MulInt(l.Quantity)
}

// UndiscountedTotalPrice is the pre-discount unit price scaled by quantity.
func (l OrderLine) UndiscountedTotalPrice() TaxedMoney {
	return l.UndiscountedUnitPrice.MulInt(l.Quantity)
}

// QuantityUnfulfilled is the remaining quantity not yet covered by an
// active fulfillment.
func (l OrderLine) QuantityUnfulfilled() int {
	return l.Quantity - l.QuantityFulfilled
}

// Validate enforces the per-line invariants: non-negative quantities,
// fulfilled within ordered, and unit price consistent with the undiscounted
// price minus the unit discount.
func (l OrderLine) Validate() error {
	if l.Quantity < 0 {
		return &ValidationError{Field: "quantity", Code: CodeInvalid, Message: "quantity must not be negative"}
	}
	if l.QuantityFulfilled < 0 || l.QuantityFulfilled > l.Quantity {
		return &ValidationError{Field: "quantityFulfilled", Code: CodeInvalid, Message: "fulfilled quantity outside ordered quantity"}
	}
	if err := l.UnitPrice.Validate(); err != nil {
		return err
	}
	if err := l.UndiscountedUnitPrice.Validate(); err != nil {
		return err
	}
	expected, err := l.UndiscountedUnitPrice.Gross.Sub(l.UnitDiscount)
	if err != nil {
		return err
	}
	if !l.UnitPrice.Gross.Equal(expected) {
		return &ValidationError{Field: "unitPrice", Code: CodeInvalid, Message: "unit price does not match undiscounted price minus discount"}
	}
	return nil
}

// FulfillmentLine allocates part of an order line's quantity to one
// fulfillment. It references the line by ID; the Order owns both sides.
type FulfillmentLine struct {
	ID          string
	OrderLineID string
	Quantity    int
}

// Validate enforces the minimum allocation of one unit.
func (fl FulfillmentLine) Validate() error {
	if fl.Quantity < 1 {
		return &ValidationError{Field: "quantity", Code: CodeInvalid, Message: "fulfillment line quantity must be at least 1"}
	}
	if fl.OrderLineID == "" {
		return &ValidationError{Field: "orderLineId", Code: CodeRequired}
	}
	return nil
}
