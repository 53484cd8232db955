package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOrder builds an unfulfilled two-line USD order: 3 x 10.00 and
// 2 x 5.00 gross, 4.00 shipping.
func testOrder(t *testing.T) *Order {
	t.Helper()
	unit1 := taxedUSD(t, "10.00", "8.00")
	unit2 := taxedUSD(t, "5.00", "5.00")
	return &Order{
		ID:     "order-1",
		Number: "1001",
		Status: OrderUnfulfilled,
		Channel: Channel{
			ID:           "channel-1",
			CurrencyCode: "USD",
			IsActive:     true,
		},
		UserEmail: "customer@example.com",
		Lines: []OrderLine{
			{
				ID:                    "line-1",
				ProductName:           "Mug",
				ProductSKU:            "MUG-01",
				Quantity:              3,
				UnitDiscount:          ZeroMoney("USD"),
				UnitDiscountType:      DiscountValueFixed,
				UndiscountedUnitPrice: unit1,
				UnitPrice:             unit1,
				IsShippingRequired:    true,
			},
			{
				ID:                    "line-2",
				ProductName:           "Coaster",
				ProductSKU:            "CST-01",
				Quantity:              2,
				UnitDiscount:          ZeroMoney("USD"),
				UnitDiscountType:      DiscountValueFixed,
				UndiscountedUnitPrice: unit2,
				UnitPrice:             unit2,
				IsShippingRequired:    true,
			},
		},
		ShippingPrice:   taxedUSD(t, "4.00", "3.50"),
		TotalAuthorized: ZeroMoney("USD"),
		TotalCaptured:   ZeroMoney("USD"),
	}
}

func TestOrder_Totals(t *testing.T) {
	o := testOrder(t)

	totals, err := o.Totals()
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Gross.Amount.Equal(decimal.RequireFromString("40.00")))
	assert.True(t, totals.UndiscountedTotal.Gross.Amount.Equal(decimal.RequireFromString("44.00")))
	assert.True(t, totals.Total.Gross.Amount.Equal(decimal.RequireFromString("44.00")))
	assert.True(t, totals.Discount.IsZero())
	require.NoError(t, totals.Total.Validate())
}

func TestOrder_TotalsInvariantWithDiscounts(t *testing.T) {
	o := testOrder(t)
	o.Discounts = []Discount{
		{ID: "d1", Type: DiscountTypeManual, CalculationMode: DiscountValueFixed, Value: decimal.RequireFromString("4.00")},
		{ID: "d2", Type: DiscountTypeVoucher, CalculationMode: DiscountValuePercentage, Value: decimal.RequireFromString("10")},
	}

	totals, err := o.Totals()
	require.NoError(t, err)

	// total.gross == subtotal.gross + shipping.gross - accumulated discount
	expected := totals.Subtotal.Gross.Amount.
		Add(totals.ShippingPrice.Gross.Amount).
		Sub(totals.Discount.Amount)
	assert.True(t, totals.Total.Gross.Amount.Equal(expected))
	// 44 - 4 = 40, then -10% = 36.
	assert.True(t, totals.Total.Gross.Amount.Equal(decimal.RequireFromString("36.00")))
}

func TestOrder_ProratedLineDiscounts(t *testing.T) {
	o := testOrder(t)

	shares, err := o.ProratedLineDiscounts(usd("10.00"))
	require.NoError(t, err)
	require.Len(t, shares, 2)

	// Shares follow line gross weight (30:10) and sum exactly.
	sum, err := SumMoney("USD", shares)
	require.NoError(t, err)
	assert.True(t, sum.Equal(usd("10.00")))
	assert.True(t, shares[0].Amount.Equal(decimal.RequireFromString("7.50")))
	assert.True(t, shares[1].Amount.Equal(decimal.RequireFromString("2.50")))
}

func TestOrder_DeriveStatus(t *testing.T) {
	o := testOrder(t)
	assert.Equal(t, OrderUnfulfilled, o.DeriveStatus())
	assert.Equal(t, o.DeriveStatus(), o.DeriveStatus(), "derivation is pure")

	// Partial coverage.
	_, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, OrderPartiallyFulfilled, o.Status)
	assert.Equal(t, 2, o.Lines[0].QuantityFulfilled)

	// Full coverage.
	_, err = o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-2", OrderLineID: "line-1", Quantity: 1},
		{ID: "fl-3", OrderLineID: "line-2", Quantity: 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, OrderFulfilled, o.Status)

	// Cancelling a fulfillment releases its allocation.
	require.NoError(t, o.CancelFulfillment(o.Fulfillments[1].ID, nil))
	assert.Equal(t, OrderPartiallyFulfilled, o.Status)
	assert.Equal(t, 2, o.Lines[0].QuantityFulfilled)
	assert.Equal(t, 0, o.Lines[1].QuantityFulfilled)
}

func TestOrder_DeriveStatus_ExplicitStatesPassThrough(t *testing.T) {
	o := testOrder(t)
	o.Status = OrderDraft
	assert.Equal(t, OrderDraft, o.DeriveStatus())

	o.Status = OrderCanceled
	assert.Equal(t, OrderCanceled, o.DeriveStatus())
}

func TestOrder_OverAllocationRejected(t *testing.T) {
	o := testOrder(t)
	_, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 3},
	}, nil)
	require.NoError(t, err)

	fulfillmentsBefore := len(o.Fulfillments)
	eventsBefore := len(o.Events)

	// line-1 is fully covered; one more unit must be rejected.
	_, err = o.AddFulfillment(Warehouse{ID: "wh-2"}, []FulfillmentLine{
		{ID: "fl-2", OrderLineID: "line-1", Quantity: 1},
	}, nil)

	var overErr *OverAllocatedError
	require.ErrorAs(t, err, &overErr)
	assert.Equal(t, "line-1", overErr.LineID)
	assert.Equal(t, 4, overErr.Requested)
	assert.Equal(t, 3, overErr.Available)

	// Aggregate unchanged on rejection.
	assert.Len(t, o.Fulfillments, fulfillmentsBefore)
	assert.Len(t, o.Events, eventsBefore)
}

func TestOrder_AllocationAllowedAfterCancel(t *testing.T) {
	o := testOrder(t)
	f, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 3},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, o.CancelFulfillment(f.ID, nil))

	// The cancelled allocation no longer counts against the line.
	_, err = o.AddFulfillment(Warehouse{ID: "wh-2"}, []FulfillmentLine{
		{ID: "fl-2", OrderLineID: "line-1", Quantity: 3},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, o.ValidateAllocation())
}

func TestOrder_UpdateFulfillmentTracking(t *testing.T) {
	o := testOrder(t)
	f, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 1},
	}, nil)
	require.NoError(t, err)
	require.Empty(t, f.TrackingNumber)
	eventsBefore := len(o.Events)

	err = o.UpdateFulfillmentTracking(f.ID, "1Z999", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "1Z999", o.Fulfillments[0].TrackingNumber)

	// Exactly one tracking event and one email event appended.
	require.Len(t, o.Events, eventsBefore+2)
	tracking := o.Events[eventsBefore]
	assert.Equal(t, EventTrackingUpdated, tracking.Type)
	payload, ok := tracking.Payload.(TrackingUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, "", payload.OldTracking)
	assert.Equal(t, "1Z999", payload.NewTracking)

	email := o.Events[eventsBefore+1]
	assert.Equal(t, EventEmailSent, email.Type)
	emailPayload, ok := email.Payload.(EmailSentPayload)
	require.True(t, ok)
	assert.Equal(t, EmailTrackingUpdated, emailPayload.EmailType)
	assert.Equal(t, "customer@example.com", emailPayload.Email)
}

func TestOrder_UpdateFulfillmentTracking_Clears(t *testing.T) {
	o := testOrder(t)
	f, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 1},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, o.UpdateFulfillmentTracking(f.ID, "1Z999", false, nil))

	require.NoError(t, o.UpdateFulfillmentTracking(f.ID, "", false, nil))
	assert.Empty(t, o.Fulfillments[0].TrackingNumber)
}

func TestOrder_UpdateFulfillmentTracking_TooLong(t *testing.T) {
	o := testOrder(t)
	f, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 1},
	}, nil)
	require.NoError(t, err)
	eventsBefore := len(o.Events)

	err = o.UpdateFulfillmentTracking(f.ID, strings.Repeat("x", 256), false, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "trackingNumber", verr.Field)
	assert.Equal(t, CodeInvalid, verr.Code)

	// Aggregate untouched.
	assert.Empty(t, o.Fulfillments[0].TrackingNumber)
	assert.Len(t, o.Events, eventsBefore)
}

func TestOrder_UpdateFulfillmentTracking_UnknownFulfillment(t *testing.T) {
	o := testOrder(t)
	err := o.UpdateFulfillmentTracking("missing", "1Z999", false, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeNotFound, verr.Code)
}

func TestOrder_PaymentDerivation(t *testing.T) {
	o := testOrder(t)

	paid, err := o.IsPaid()
	require.NoError(t, err)
	assert.False(t, paid)

	status, err := o.PaymentStatus()
	require.NoError(t, err)
	assert.Equal(t, PaymentNotCharged, status)

	actions, err := o.Actions()
	require.NoError(t, err)
	assert.Equal(t, []OrderAction{ActionMarkAsPaid}, actions)

	// Authorized but uncaptured funds enable capture and void.
	o.TotalAuthorized = usd("44.00")
	actions, err = o.Actions()
	require.NoError(t, err)
	assert.Equal(t, []OrderAction{ActionCapture, ActionVoid, ActionMarkAsPaid}, actions)

	// Partially captured enables refunds as well.
	o.TotalCaptured = usd("20.00")
	status, err = o.PaymentStatus()
	require.NoError(t, err)
	assert.Equal(t, PaymentPartiallyCharged, status)

	require.NoError(t, o.MarkAsPaid("tx-1", nil))
	paid, err = o.IsPaid()
	require.NoError(t, err)
	assert.True(t, paid)

	status, err = o.PaymentStatus()
	require.NoError(t, err)
	assert.Equal(t, PaymentFullyCharged, status)

	// isPaid <=> captured covers the total; marking again is rejected.
	var verr *ValidationError
	assert.ErrorAs(t, o.MarkAsPaid("tx-2", nil), &verr)
}

func TestOrder_CanFinalize(t *testing.T) {
	o := testOrder(t)
	assert.False(t, o.CanFinalize(), "only drafts can finalize")

	o.Status = OrderDraft
	assert.True(t, o.CanFinalize())

	o.Channel.IsActive = false
	assert.False(t, o.CanFinalize())
}

func TestOrder_CloneIsolation(t *testing.T) {
	o := testOrder(t)
	_, err := o.AddFulfillment(Warehouse{ID: "wh-1"}, []FulfillmentLine{
		{ID: "fl-1", OrderLineID: "line-1", Quantity: 1},
	}, nil)
	require.NoError(t, err)

	c := o.Clone()
	require.NoError(t, c.UpdateFulfillmentTracking(c.Fulfillments[0].ID, "1Z999", false, nil))

	assert.Empty(t, o.Fulfillments[0].TrackingNumber, "clone mutation must not leak")
	assert.Less(t, len(o.Events), len(c.Events))
}

func TestOrder_Validate(t *testing.T) {
	o := testOrder(t)
	require.NoError(t, o.Validate())

	bad := testOrder(t)
	bad.Lines[0].QuantityFulfilled = 5
	assert.Error(t, bad.Validate())

	// Line price inconsistent with undiscounted price minus discount.
	bad = testOrder(t)
	bad.Lines[0].UnitDiscount = usd("1.00")
	var verr *ValidationError
	require.ErrorAs(t, bad.Validate(), &verr)
	assert.Equal(t, "unitPrice", verr.Field)
}
