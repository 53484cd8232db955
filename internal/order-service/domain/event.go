package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderEventType is the stable token identifying an event variant. Tokens
// from newer platform versions that this build does not know about are
// carried through as-is and rendered opaquely.
type OrderEventType string

const (
	EventDraftCreated             OrderEventType = "DRAFT_CREATED"
	EventNoteAdded                OrderEventType = "NOTE_ADDED"
	EventEmailSent                OrderEventType = "EMAIL_SENT"
	EventPlaced                   OrderEventType = "PLACED"
	EventCanceled                 OrderEventType = "CANCELED"
	EventTrackingUpdated          OrderEventType = "TRACKING_UPDATED"
	EventFulfillmentFulfilled     OrderEventType = "FULFILLMENT_FULFILLED_ITEMS"
	EventFulfillmentCanceled      OrderEventType = "FULFILLMENT_CANCELED"
	EventOrderDiscountAdded       OrderEventType = "ORDER_DISCOUNT_ADDED"
	EventOrderDiscountUpdated     OrderEventType = "ORDER_DISCOUNT_UPDATED"
	EventOrderDiscountDeleted     OrderEventType = "ORDER_DISCOUNT_DELETED"
	EventOrderLineDiscountUpdated OrderEventType = "ORDER_LINE_DISCOUNT_UPDATED"
	EventPaymentCaptured          OrderEventType = "PAYMENT_CAPTURED"
	EventPaymentRefunded          OrderEventType = "PAYMENT_REFUNDED"
	EventInvoiceGenerated         OrderEventType = "INVOICE_GENERATED"
	EventOrderMarkedAsPaid        OrderEventType = "ORDER_MARKED_AS_PAID"
)

// EmailType identifies which customer notification an EMAIL_SENT event
// refers to.
type EmailType string

const (
	EmailOrderConfirmation    EmailType = "ORDER_CONFIRMATION"
	EmailShippingConfirmation EmailType = "SHIPPING_CONFIRMATION"
	EmailTrackingUpdated      EmailType = "TRACKING_UPDATED"
	EmailPaymentConfirmation  EmailType = "PAYMENT_CONFIRMATION"
)

// UserRef identifies the staff user that triggered an event.
type UserRef struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// EventPayload is the variant data of an OrderEvent. Each implementation
// carries only the fields relevant to its event type, instead of one flat
// record full of nullable fields.
type EventPayload interface {
	eventPayload()
}

// NotePayload carries a free-text note.
type NotePayload struct {
	Message string
}

// EmailSentPayload records a customer notification.
type EmailSentPayload struct {
	Email     string
	EmailType EmailType
}

// TrackingUpdatedPayload records a tracking-number change on a fulfillment,
// keeping both the old and new value.
type TrackingUpdatedPayload struct {
	FulfillmentID  string
	OldTracking    string
	NewTracking    string
	NotifyCustomer bool
}

// DiscountChange describes a discount's value at event time, with the prior
// value when the event is an update.
type DiscountChange struct {
	CalculationMode    DiscountValueType
	Value              decimal.Decimal
	Reason             string
	Amount             *Money
	OldCalculationMode DiscountValueType
	OldValue           *decimal.Decimal
	OldAmount          *Money
}

// DiscountPayload records an order-level discount change.
type DiscountPayload struct {
	Discount DiscountChange
}

// EventLine is a line-level slice of an event payload.
type EventLine struct {
	OrderLineID string
	ItemName    string
	Quantity    int
	Discount    *DiscountChange
}

// LineDiscountPayload records per-line discount changes.
type LineDiscountPayload struct {
	Lines []EventLine
}

// FulfilledPayload records which allocations a fulfillment covered.
type FulfilledPayload struct {
	FulfillmentID string
	Quantity      int
	Lines         []EventLine
}

// PaymentPayload records a capture or refund.
type PaymentPayload struct {
	Amount                Money
	TransactionReference  string
	ShippingCostsIncluded bool
}

// InvoicePayload records invoice generation.
type InvoicePayload struct {
	InvoiceNumber string
}

// RelatedOrderPayload links an event to another order (e.g. a replacement).
type RelatedOrderPayload struct {
	OrderID string
	Number  string
}

// UnknownPayload is the catch-all for event types this build does not
// recognise. The raw data is kept opaque for display.
type UnknownPayload struct {
	Raw json.RawMessage
}

func (NotePayload) eventPayload()            {}
func (EmailSentPayload) eventPayload()       {}
func (TrackingUpdatedPayload) eventPayload() {}
func (DiscountPayload) eventPayload()        {}
func (LineDiscountPayload) eventPayload()    {}
func (FulfilledPayload) eventPayload()       {}
func (PaymentPayload) eventPayload()         {}
func (InvoicePayload) eventPayload()         {}
func (RelatedOrderPayload) eventPayload()    {}
func (UnknownPayload) eventPayload()         {}

// OrderEvent is one immutable entry in an order's ledger. Events are
// strictly ordered by Date; Seq breaks ties in append order.
type OrderEvent struct {
	ID      string
	Type    OrderEventType
	Date    time.Time
	Seq     int
	User    *UserRef
	Payload EventPayload
}
