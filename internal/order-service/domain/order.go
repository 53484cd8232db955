package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order. The fulfillment-derived
// states (UNFULFILLED, PARTIALLY_FULFILLED, FULFILLED) are recomputed from
// the lines and fulfillments; DRAFT, UNCONFIRMED and CANCELED are explicit
// states set by dedicated operations.
type OrderStatus string

const (
	OrderDraft              OrderStatus = "DRAFT"
	OrderUnconfirmed        OrderStatus = "UNCONFIRMED"
	OrderUnfulfilled        OrderStatus = "UNFULFILLED"
	OrderPartiallyFulfilled OrderStatus = "PARTIALLY_FULFILLED"
	OrderFulfilled          OrderStatus = "FULFILLED"
	OrderCanceled           OrderStatus = "CANCELED"
)

// isExplicit reports whether the status is set by a dedicated operation
// rather than derived from fulfillment coverage.
func (s OrderStatus) isExplicit() bool {
	return s == OrderDraft || s == OrderUnconfirmed || s == OrderCanceled
}

// OrderAction is a permitted next operation on an order. The set is always
// re-derived, never stored truth.
type OrderAction string

const (
	ActionCapture    OrderAction = "CAPTURE"
	ActionMarkAsPaid OrderAction = "MARK_AS_PAID"
	ActionRefund     OrderAction = "REFUND"
	ActionVoid       OrderAction = "VOID"
)

// PaymentChargeStatus is the derived payment state of an order.
type PaymentChargeStatus string

const (
	PaymentNotCharged        PaymentChargeStatus = "NOT_CHARGED"
	PaymentPartiallyCharged  PaymentChargeStatus = "PARTIALLY_CHARGED"
	PaymentFullyCharged      PaymentChargeStatus = "FULLY_CHARGED"
	PaymentPartiallyRefunded PaymentChargeStatus = "PARTIALLY_REFUNDED"
	PaymentFullyRefunded     PaymentChargeStatus = "FULLY_REFUNDED"
)

// JobStatus is the processing state of an invoice job.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobSuccess JobStatus = "SUCCESS"
	JobFailed  JobStatus = "FAILED"
	JobDeleted JobStatus = "DELETED"
)

// Channel is the sales channel an order was placed in; its currency code
// anchors every monetary value on the order.
type Channel struct {
	ID           string
	Name         string
	CurrencyCode string
	IsActive     bool
}

// Invoice is a generated document attached to the order.
type Invoice struct {
	ID        string
	Number    string
	CreatedAt time.Time
	URL       string
	Status    JobStatus
}

// MetadataItem is one key/value pair of order metadata.
type MetadataItem struct {
	Key   string
	Value string
}

// Order is the aggregate root. It exclusively owns its lines, fulfillments
// and discounts; events back-reference it for lookup but carry their own
// append-order identity.
type Order struct {
	ID           string
	Number       string
	Status       OrderStatus
	Created      time.Time
	CustomerNote string
	UserEmail    string
	Channel      Channel
	Metadata     []MetadataItem

	Lines        []OrderLine
	Fulfillments []Fulfillment
	Discounts    []Discount
	Events       []OrderEvent
	Invoices     []Invoice

	ShippingPrice   TaxedMoney
	TotalAuthorized Money
	TotalCaptured   Money
}

// Currency is the channel currency every total is expressed in.
func (o *Order) Currency() string { return o.Channel.CurrencyCode }

// Totals are the aggregate monetary figures derived from lines, shipping
// and discounts.
type Totals struct {
	Subtotal          TaxedMoney
	ShippingPrice     TaxedMoney
	UndiscountedTotal TaxedMoney
	Total             TaxedMoney
	Discount          Money
}

// Totals recomputes the aggregate money figures. The invariant holds by
// construction: total.gross == subtotal.gross + shipping.gross - sum of
// discount amounts, all in the channel currency.
func (o *Order) Totals() (Totals, error) {
	currency := o.Currency()
	subtotal := ZeroTaxedMoney(currency)
	for _, l := range o.Lines {
		var err error
		subtotal, err = subtotal.Add(l.TotalPrice())
		if err != nil {
			return Totals{}, err
		}
	}

	undiscounted, err := subtotal.Add(o.ShippingPrice)
	if err != nil {
		return Totals{}, err
	}

	total, _, err := ApplyDiscounts(undiscounted, o.Discounts)
	if err != nil {
		return Totals{}, err
	}

	discount, err := undiscounted.Gross.Sub(total.Gross)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal:          subtotal,
		ShippingPrice:     o.ShippingPrice,
		UndiscountedTotal: undiscounted,
		Total:             total,
		Discount:          discount,
	}, nil
}

// ProratedLineDiscounts splits an order-level discount amount across the
// lines in proportion to their gross totals. The per-line shares are
// reconciled so they sum to the amount exactly; rounding residue lands on
// the first line.
func (o *Order) ProratedLineDiscounts(amount Money) ([]Money, error) {
	if len(o.Lines) == 0 {
		return nil, nil
	}
	grossTotals := make([]Money, len(o.Lines))
	for i, l := range o.Lines {
		grossTotals[i] = l.TotalPrice().Gross
	}
	base, err := SumMoney(o.Currency(), grossTotals)
	if err != nil {
		return nil, err
	}

	shares := make([]Money, len(o.Lines))
	for i, g := range grossTotals {
		if base.IsZero() {
			shares[i] = ZeroMoney(o.Currency())
			continue
		}
		shares[i] = amount.Mul(g.Amount.Div(base.Amount))
	}
	return Reconcile(amount, shares)
}

// fulfilledQuantities sums active fulfillment-line quantities per order
// line. Canceled fulfillments are excluded; their history stays in the
// ledger.
func (o *Order) fulfilledQuantities() map[string]int {
	sums := make(map[string]int, len(o.Lines))
	for _, f := range o.Fulfillments {
		if !f.Status.CountsTowardFulfillment() {
			continue
		}
		for _, fl := range f.Lines {
			sums[fl.OrderLineID] += fl.Quantity
		}
	}
	return sums
}

// ValidateAllocation recomputes per-line fulfilled quantities and fails
// with OverAllocatedError if any line's allocation exceeds its ordered
// quantity. It must run before committing any operation that adds or edits
// fulfillment lines.
func (o *Order) ValidateAllocation() error {
	sums := o.fulfilledQuantities()
	for _, l := range o.Lines {
		if sums[l.ID] > l.Quantity {
			return &OverAllocatedError{LineID: l.ID, Requested: sums[l.ID], Available: l.Quantity}
		}
	}
	return nil
}

// syncFulfilledQuantities writes the derived per-line fulfilled quantity
// back onto the lines. QuantityFulfilled is never independent truth.
func (o *Order) syncFulfilledQuantities() {
	sums := o.fulfilledQuantities()
	for i := range o.Lines {
		o.Lines[i].QuantityFulfilled = sums[o.Lines[i].ID]
	}
}

// DeriveStatus computes the order status from lines and fulfillments. It is
// pure: explicit states pass through, otherwise coverage decides between
// UNFULFILLED, PARTIALLY_FULFILLED and FULFILLED.
func (o *Order) DeriveStatus() OrderStatus {
	if o.Status.isExplicit() {
		return o.Status
	}
	sums := o.fulfilledQuantities()
	covered, ordered := 0, 0
	for _, l := range o.Lines {
		ordered += l.Quantity
		covered += sums[l.ID]
	}
	switch {
	case covered == 0:
		return OrderUnfulfilled
	case covered < ordered:
		return OrderPartiallyFulfilled
	default:
		return OrderFulfilled
	}
}

// refreshDerived recomputes everything that travels as a plain field but is
// really a function of the aggregate.
func (o *Order) refreshDerived() {
	o.syncFulfilledQuantities()
	o.Status = o.DeriveStatus()
}

// IsPaid reports whether captured funds cover the order total.
func (o *Order) IsPaid() (bool, error) {
	t, err := o.Totals()
	if err != nil {
		return false, err
	}
	return o.TotalCaptured.Amount.GreaterThanOrEqual(t.Total.Gross.Amount), nil
}

// PaymentStatus derives the charge status from captured funds.
func (o *Order) PaymentStatus() (PaymentChargeStatus, error) {
	paid, err := o.IsPaid()
	if err != nil {
		return "", err
	}
	switch {
	case paid:
		return PaymentFullyCharged, nil
	case o.TotalCaptured.Amount.IsPositive():
		return PaymentPartiallyCharged, nil
	default:
		return PaymentNotCharged, nil
	}
}

// Actions derives the permitted next operations from payment state. Always
// a re-derivation.
func (o *Order) Actions() ([]OrderAction, error) {
	paid, err := o.IsPaid()
	if err != nil {
		return nil, err
	}
	var actions []OrderAction
	uncaptured := o.TotalAuthorized.Amount.GreaterThan(o.TotalCaptured.Amount)
	if uncaptured {
		actions = append(actions, ActionCapture, ActionVoid)
	}
	if o.TotalCaptured.Amount.IsPositive() {
		actions = append(actions, ActionRefund)
	}
	if !paid {
		actions = append(actions, ActionMarkAsPaid)
	}
	return actions, nil
}

// CanFinalize reports whether a draft order is complete enough to be
// confirmed.
func (o *Order) CanFinalize() bool {
	if o.Status != OrderDraft {
		return false
	}
	if len(o.Lines) == 0 || !o.Channel.IsActive {
		return false
	}
	return o.ValidateAllocation() == nil
}

// Clone deep-copies the aggregate. Mutating operations work on a clone and
// commit only on success, so a failed precondition never leaves a partially
// mutated order behind.
func (o *Order) Clone() *Order {
	c := *o
	c.Metadata = append([]MetadataItem(nil), o.Metadata...)
	c.Lines = append([]OrderLine(nil), o.Lines...)
	c.Discounts = append([]Discount(nil), o.Discounts...)
	c.Events = append([]OrderEvent(nil), o.Events...)
	c.Invoices = append([]Invoice(nil), o.Invoices...)
	c.Fulfillments = make([]Fulfillment, len(o.Fulfillments))
	for i, f := range o.Fulfillments {
		c.Fulfillments[i] = f
		c.Fulfillments[i].Lines = append([]FulfillmentLine(nil), f.Lines...)
	}
	return &c
}

// fulfillment finds an owned fulfillment by ID.
func (o *Order) fulfillment(id string) *Fulfillment {
	for i := range o.Fulfillments {
		if o.Fulfillments[i].ID == id {
			return &o.Fulfillments[i]
		}
	}
	return nil
}

// UpdateFulfillmentTracking applies a tracking-number change to an owned
// fulfillment: validate, mutate, append the ledger entries, re-derive.
// An empty tracking number clears tracking. The aggregate is untouched on
// any validation failure.
func (o *Order) UpdateFulfillmentTracking(fulfillmentID, trackingNumber string, notifyCustomer bool, user *UserRef) error {
	if len(trackingNumber) > TrackingNumberMaxLength {
		return &ValidationError{Field: "trackingNumber", Code: CodeInvalid, Message: "tracking number exceeds maximum length"}
	}
	f := o.fulfillment(fulfillmentID)
	if f == nil {
		return &ValidationError{Field: "id", Code: CodeNotFound, Message: "fulfillment not found on this order"}
	}

	old := f.TrackingNumber
	f.TrackingNumber = trackingNumber

	o.AppendEvent(OrderEvent{
		ID:   uuid.NewString(),
		Type: EventTrackingUpdated,
		User: user,
		Payload: TrackingUpdatedPayload{
			FulfillmentID:  fulfillmentID,
			OldTracking:    old,
			NewTracking:    trackingNumber,
			NotifyCustomer: notifyCustomer,
		},
	})
	if notifyCustomer {
		o.AppendEvent(OrderEvent{
			ID:      uuid.NewString(),
			Type:    EventEmailSent,
			User:    user,
			Payload: EmailSentPayload{Email: o.UserEmail, EmailType: EmailTrackingUpdated},
		})
	}

	o.refreshDerived()
	return nil
}

// AddFulfillment creates a fulfillment covering the given allocations. The
// allocation check runs against a candidate before anything is committed.
func (o *Order) AddFulfillment(warehouse Warehouse, lines []FulfillmentLine, user *UserRef) (*Fulfillment, error) {
	f := Fulfillment{
		ID:               uuid.NewString(),
		FulfillmentOrder: len(o.Fulfillments) + 1,
		Status:           FulfillmentFulfilled,
		Warehouse:        warehouse,
		Lines:            lines,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(o.Lines))
	for _, l := range o.Lines {
		known[l.ID] = struct{}{}
	}
	quantity := 0
	eventLines := make([]EventLine, 0, len(lines))
	for _, fl := range lines {
		if _, ok := known[fl.OrderLineID]; !ok {
			return nil, &ValidationError{Field: "orderLineId", Code: CodeNotFound, Message: "order line not found on this order"}
		}
		quantity += fl.Quantity
		eventLines = append(eventLines, EventLine{OrderLineID: fl.OrderLineID, Quantity: fl.Quantity})
	}

	candidate := o.Clone()
	candidate.Fulfillments = append(candidate.Fulfillments, f)
	if err := candidate.ValidateAllocation(); err != nil {
		return nil, err
	}

	o.Fulfillments = append(o.Fulfillments, f)
	o.AppendEvent(OrderEvent{
		ID:      uuid.NewString(),
		Type:    EventFulfillmentFulfilled,
		User:    user,
		Payload: FulfilledPayload{FulfillmentID: f.ID, Quantity: quantity, Lines: eventLines},
	})
	o.refreshDerived()
	return o.fulfillment(f.ID), nil
}

// CancelFulfillment releases a fulfillment's allocations. Status moves to
// CANCELED; the transition is one-directional.
func (o *Order) CancelFulfillment(fulfillmentID string, user *UserRef) error {
	f := o.fulfillment(fulfillmentID)
	if f == nil {
		return &ValidationError{Field: "id", Code: CodeNotFound, Message: "fulfillment not found on this order"}
	}
	if f.Status == FulfillmentCanceled {
		return &ValidationError{Field: "status", Code: CodeInvalid, Message: "fulfillment is already canceled"}
	}
	f.Status = FulfillmentCanceled
	o.AppendEvent(OrderEvent{
		ID:      uuid.NewString(),
		Type:    EventFulfillmentCanceled,
		User:    user,
		Payload: FulfilledPayload{FulfillmentID: f.ID},
	})
	o.refreshDerived()
	return nil
}

// AddDiscount records an order-level discount. The supplied monetary amount
// is validated against a recomputation over the undiscounted total before
// anything is committed.
func (o *Order) AddDiscount(d Discount, user *UserRef) error {
	t, err := o.Totals()
	if err != nil {
		return err
	}
	if err := d.Validate(t.UndiscountedTotal.Gross); err != nil {
		return err
	}
	o.Discounts = append(o.Discounts, d)
	o.AppendEvent(OrderEvent{
		ID:   uuid.NewString(),
		Type: EventOrderDiscountAdded,
		User: user,
		Payload: DiscountPayload{Discount: DiscountChange{
			CalculationMode: d.CalculationMode,
			Value:           d.Value,
			Reason:          d.Reason,
			Amount:          &d.Amount,
		}},
	})
	return nil
}

// AddNote appends a free-text note event.
func (o *Order) AddNote(message string, user *UserRef) error {
	if message == "" {
		return &ValidationError{Field: "message", Code: CodeRequired}
	}
	o.AppendEvent(OrderEvent{
		ID:      uuid.NewString(),
		Type:    EventNoteAdded,
		User:    user,
		Payload: NotePayload{Message: message},
	})
	return nil
}

// MarkAsPaid records an out-of-band payment covering the full total.
func (o *Order) MarkAsPaid(transactionReference string, user *UserRef) error {
	paid, err := o.IsPaid()
	if err != nil {
		return err
	}
	if paid {
		return &ValidationError{Field: "id", Code: CodeInvalid, Message: "order is already paid"}
	}
	t, err := o.Totals()
	if err != nil {
		return err
	}
	o.TotalCaptured = t.Total.Gross
	o.AppendEvent(OrderEvent{
		ID:      uuid.NewString(),
		Type:    EventOrderMarkedAsPaid,
		User:    user,
		Payload: PaymentPayload{Amount: t.Total.Gross, TransactionReference: transactionReference},
	})
	return nil
}

// Validate runs the aggregate-wide invariants: every line, every
// fulfillment, the allocation limit, and the money invariants on stored
// triples.
func (o *Order) Validate() error {
	for _, l := range o.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	for _, f := range o.Fulfillments {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if err := o.ShippingPrice.Validate(); err != nil {
		return err
	}
	return o.ValidateAllocation()
}
