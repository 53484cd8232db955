package httpx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// Money always serializes as {amount, currency} at the boundary. Amounts
// travel as decimal strings so precision survives the round-trip.
type MoneyDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// TaxedMoneyDTO is the gross/net/tax triple; net and tax are omitted where
// the contract only needs gross (e.g. shipping price).
type TaxedMoneyDTO struct {
	Gross MoneyDTO  `json:"gross"`
	Net   *MoneyDTO `json:"net,omitempty"`
	Tax   *MoneyDTO `json:"tax,omitempty"`
}

type DiscountDTO struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	CalculationMode string   `json:"calculation_mode"`
	Value           string   `json:"value"`
	Reason          string   `json:"reason,omitempty"`
	Amount          MoneyDTO `json:"amount"`
}

type OrderLineDTO struct {
	ID                    string        `json:"id"`
	ProductName           string        `json:"product_name"`
	ProductSKU            string        `json:"product_sku"`
	VariantName           string        `json:"variant_name,omitempty"`
	Quantity              int           `json:"quantity"`
	QuantityFulfilled     int           `json:"quantity_fulfilled"`
	UnitDiscount          MoneyDTO      `json:"unit_discount"`
	UnitDiscountValue     string        `json:"unit_discount_value"`
	UnitDiscountReason    string        `json:"unit_discount_reason,omitempty"`
	UnitDiscountType      string        `json:"unit_discount_type,omitempty"`
	UndiscountedUnitPrice TaxedMoneyDTO `json:"undiscounted_unit_price"`
	UnitPrice             TaxedMoneyDTO `json:"unit_price"`
	IsShippingRequired    bool          `json:"is_shipping_required"`
}

type FulfillmentLineDTO struct {
	ID          string `json:"id"`
	OrderLineID string `json:"order_line_id"`
	Quantity    int    `json:"quantity"`
}

type WarehouseDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FulfillmentDTO struct {
	ID               string               `json:"id"`
	FulfillmentOrder int                  `json:"fulfillment_order"`
	Status           string               `json:"status"`
	TrackingNumber   string               `json:"tracking_number"`
	Warehouse        WarehouseDTO         `json:"warehouse"`
	Lines            []FulfillmentLineDTO `json:"lines"`
}

type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// EventDiscountDTO mirrors the variant's discount change at the boundary.
type EventDiscountDTO struct {
	CalculationMode string    `json:"calculation_mode"`
	Value           string    `json:"value"`
	Reason          string    `json:"reason,omitempty"`
	Amount          *MoneyDTO `json:"amount,omitempty"`
	OldValue        *string   `json:"old_value,omitempty"`
	OldAmount       *MoneyDTO `json:"old_amount,omitempty"`
}

type EventLineDTO struct {
	OrderLineID string            `json:"order_line_id,omitempty"`
	ItemName    string            `json:"item_name,omitempty"`
	Quantity    int               `json:"quantity,omitempty"`
	Discount    *EventDiscountDTO `json:"discount,omitempty"`
}

// OrderEventDTO is the flattened boundary form of the internal tagged
// union: only the fields relevant to the event's type are populated, the
// rest stay null.
type OrderEventDTO struct {
	ID                   string            `json:"id"`
	Type                 string            `json:"type"`
	Date                 time.Time         `json:"date"`
	User                 *UserDTO          `json:"user,omitempty"`
	Message              *string           `json:"message,omitempty"`
	Email                *string           `json:"email,omitempty"`
	EmailType            *string           `json:"email_type,omitempty"`
	Amount               *MoneyDTO         `json:"amount,omitempty"`
	TransactionReference *string           `json:"transaction_reference,omitempty"`
	InvoiceNumber        *string           `json:"invoice_number,omitempty"`
	Quantity             *int              `json:"quantity,omitempty"`
	TrackingNumber       *string           `json:"tracking_number,omitempty"`
	FulfillmentID        *string           `json:"fulfillment_id,omitempty"`
	Discount             *EventDiscountDTO `json:"discount,omitempty"`
	Lines                []EventLineDTO    `json:"lines,omitempty"`
	RelatedOrderID       *string           `json:"related_order_id,omitempty"`
}

type ChannelDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	CurrencyCode string `json:"currency_code"`
	IsActive     bool   `json:"is_active"`
}

type InvoiceDTO struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
	Status    string    `json:"status"`
}

type OrderDTO struct {
	ID                string           `json:"id"`
	Number            string           `json:"number"`
	Status            string           `json:"status"`
	Created           time.Time        `json:"created"`
	CustomerNote      string           `json:"customer_note,omitempty"`
	UserEmail         string           `json:"user_email,omitempty"`
	Channel           ChannelDTO       `json:"channel"`
	Lines             []OrderLineDTO   `json:"lines"`
	Fulfillments      []FulfillmentDTO `json:"fulfillments"`
	Discounts         []DiscountDTO    `json:"discounts"`
	Events            []OrderEventDTO  `json:"events"`
	Invoices          []InvoiceDTO     `json:"invoices"`
	Subtotal          TaxedMoneyDTO    `json:"subtotal"`
	ShippingPrice     TaxedMoneyDTO    `json:"shipping_price"`
	Total             TaxedMoneyDTO    `json:"total"`
	UndiscountedTotal TaxedMoneyDTO    `json:"undiscounted_total"`
	TotalAuthorized   MoneyDTO         `json:"total_authorized"`
	TotalCaptured     MoneyDTO         `json:"total_captured"`
	PaymentStatus     string           `json:"payment_status"`
	Actions           []string         `json:"actions"`
	CanFinalize       bool             `json:"can_finalize"`
	IsPaid            bool             `json:"is_paid"`
}

type OrderErrorDTO struct {
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// MutationResponse is the boundary contract for every order mutation:
// order is null exactly when errors is non-empty.
type MutationResponse struct {
	Errors []OrderErrorDTO `json:"errors"`
	Order  *OrderDTO       `json:"order"`
}

type TrackingUpdateRequest struct {
	TrackingNumber string `json:"tracking_number"`
	NotifyCustomer bool   `json:"notify_customer"`
}

type CreateFulfillmentRequest struct {
	WarehouseID   string                         `json:"warehouse_id"`
	WarehouseName string                         `json:"warehouse_name"`
	Lines         []CreateFulfillmentLineRequest `json:"lines"`
}

type CreateFulfillmentLineRequest struct {
	OrderLineID string `json:"order_line_id"`
	Quantity    int    `json:"quantity"`
}

type AddNoteRequest struct {
	Message string `json:"message"`
}

type CreateDraftOrderRequest struct {
	Number       string                   `json:"number"`
	Currency     string                   `json:"currency"`
	UserEmail    string                   `json:"user_email"`
	CustomerNote string                   `json:"customer_note"`
	Lines        []CreateDraftLineRequest `json:"lines"`
}

type CreateDraftLineRequest struct {
	ProductName string `json:"product_name"`
	ProductSKU  string `json:"product_sku"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity"`
	UnitGross   string `json:"unit_gross"`
	UnitNet     string `json:"unit_net"`
}

type EventLogEntryDTO struct {
	OrderID    string    `json:"order_id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Payload    string    `json:"payload,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	SpanID     string    `json:"span_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapMoney(m domain.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

func mapMoneyPtr(m *domain.Money) *MoneyDTO {
	if m == nil {
		return nil
	}
	dto := mapMoney(*m)
	return &dto
}

func mapTaxedMoney(t domain.TaxedMoney) TaxedMoneyDTO {
	net := mapMoney(t.Net)
	tax := mapMoney(t.Tax)
	return TaxedMoneyDTO{Gross: mapMoney(t.Gross), Net: &net, Tax: &tax}
}

// mapTaxedMoneyGross serializes the gross-only subset of a triple.
func mapTaxedMoneyGross(t domain.TaxedMoney) TaxedMoneyDTO {
	return TaxedMoneyDTO{Gross: mapMoney(t.Gross)}
}

func mapUser(u *domain.UserRef) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func mapDiscountChange(c domain.DiscountChange) *EventDiscountDTO {
	dto := &EventDiscountDTO{
		CalculationMode: string(c.CalculationMode),
		Value:           c.Value.String(),
		Reason:          c.Reason,
		Amount:          mapMoneyPtr(c.Amount),
		OldAmount:       mapMoneyPtr(c.OldAmount),
	}
	if c.OldValue != nil {
		s := c.OldValue.String()
		dto.OldValue = &s
	}
	return dto
}

// mapEvent flattens an event variant into the boundary shape. Unknown
// variants keep their type token and nothing else: display-only, never an
// error.
func mapEvent(e domain.OrderEvent) OrderEventDTO {
	dto := OrderEventDTO{
		ID:   e.ID,
		Type: string(e.Type),
		Date: e.Date,
		User: mapUser(e.User),
	}
	switch p := e.Payload.(type) {
	case domain.NotePayload:
		dto.Message = &p.Message
	case domain.EmailSentPayload:
		emailType := string(p.EmailType)
		dto.Email = &p.Email
		dto.EmailType = &emailType
	case domain.TrackingUpdatedPayload:
		dto.TrackingNumber = &p.NewTracking
		dto.FulfillmentID = &p.FulfillmentID
	case domain.DiscountPayload:
		dto.Discount = mapDiscountChange(p.Discount)
	case domain.LineDiscountPayload:
		dto.Lines = mapEventLines(p.Lines)
	case domain.FulfilledPayload:
		dto.Quantity = &p.Quantity
		dto.FulfillmentID = &p.FulfillmentID
		dto.Lines = mapEventLines(p.Lines)
	case domain.PaymentPayload:
		amount := mapMoney(p.Amount)
		dto.Amount = &amount
		if p.TransactionReference != "" {
			dto.TransactionReference = &p.TransactionReference
		}
	case domain.InvoicePayload:
		dto.InvoiceNumber = &p.InvoiceNumber
	case domain.RelatedOrderPayload:
		dto.RelatedOrderID = &p.OrderID
	}
	return dto
}

func mapEventLines(lines []domain.EventLine) []EventLineDTO {
	if len(lines) == 0 {
		return nil
	}
	out := make([]EventLineDTO, len(lines))
	for i, l := range lines {
		out[i] = EventLineDTO{OrderLineID: l.OrderLineID, ItemName: l.ItemName, Quantity: l.Quantity}
		if l.Discount != nil {
			out[i].Discount = mapDiscountChange(*l.Discount)
		}
	}
	return out
}

// mapOrder renders the full order snapshot, re-deriving totals, payment
// state and actions rather than trusting stored fields.
func mapOrder(o *domain.Order) (*OrderDTO, error) {
	totals, err := o.Totals()
	if err != nil {
		return nil, err
	}
	paid, err := o.IsPaid()
	if err != nil {
		return nil, err
	}
	paymentStatus, err := o.PaymentStatus()
	if err != nil {
		return nil, err
	}
	actions, err := o.Actions()
	if err != nil {
		return nil, err
	}

	lines := make([]OrderLineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineDTO{
			ID:                    l.ID,
			ProductName:           l.ProductName,
			ProductSKU:            l.ProductSKU,
			VariantName:           l.VariantName,
			Quantity:              l.Quantity,
			QuantityFulfilled:     l.QuantityFulfilled,
			UnitDiscount:          mapMoney(l.UnitDiscount),
			UnitDiscountValue:     l.UnitDiscountValue.String(),
			UnitDiscountReason:    l.UnitDiscountReason,
			UnitDiscountType:      string(l.UnitDiscountType),
			UndiscountedUnitPrice: mapTaxedMoney(l.UndiscountedUnitPrice),
			UnitPrice:             mapTaxedMoney(l.UnitPrice),
			IsShippingRequired:    l.IsShippingRequired,
		}
	}

	fulfillments := make([]FulfillmentDTO, len(o.Fulfillments))
	for i, f := range o.Fulfillments {
		fLines := make([]FulfillmentLineDTO, len(f.Lines))
		for j, fl := range f.Lines {
			fLines[j] = FulfillmentLineDTO{ID: fl.ID, OrderLineID: fl.OrderLineID, Quantity: fl.Quantity}
		}
		fulfillments[i] = FulfillmentDTO{
			ID:               f.ID,
			FulfillmentOrder: f.FulfillmentOrder,
			Status:           string(f.Status),
			TrackingNumber:   f.TrackingNumber,
			Warehouse:        WarehouseDTO{ID: f.Warehouse.ID, Name: f.Warehouse.Name},
			Lines:            fLines,
		}
	}

	discounts := make([]DiscountDTO, len(o.Discounts))
	for i, d := range o.Discounts {
		discounts[i] = DiscountDTO{
			ID:              d.ID,
			Type:            string(d.Type),
			CalculationMode: string(d.CalculationMode),
			Value:           d.Value.String(),
			Reason:          d.Reason,
			Amount:          mapMoney(d.Amount),
		}
	}

	events := make([]OrderEventDTO, len(o.Events))
	for i, e := range o.Events {
		events[i] = mapEvent(e)
	}

	invoices := make([]InvoiceDTO, len(o.Invoices))
	for i, inv := range o.Invoices {
		invoices[i] = InvoiceDTO{
			ID:        inv.ID,
			Number:    inv.Number,
			CreatedAt: inv.CreatedAt,
			URL:       inv.URL,
			Status:    string(inv.Status),
		}
	}

	actionTokens := make([]string, len(actions))
	for i, a := range actions {
		actionTokens[i] = string(a)
	}

	return &OrderDTO{
		ID:           o.ID,
		Number:       o.Number,
		Status:       string(o.DeriveStatus()),
		Created:      o.Created,
		CustomerNote: o.CustomerNote,
		UserEmail:    o.UserEmail,
		Channel: ChannelDTO{
			ID:           o.Channel.ID,
			Name:         o.Channel.Name,
			CurrencyCode: o.Channel.CurrencyCode,
			IsActive:     o.Channel.IsActive,
		},
		Lines:             lines,
		Fulfillments:      fulfillments,
		Discounts:         discounts,
		Events:            events,
		Invoices:          invoices,
		Subtotal:          mapTaxedMoneyGross(totals.Subtotal),
		ShippingPrice:     mapTaxedMoneyGross(totals.ShippingPrice),
		Total:             mapTaxedMoney(totals.Total),
		UndiscountedTotal: mapTaxedMoney(totals.UndiscountedTotal),
		TotalAuthorized:   mapMoney(o.TotalAuthorized),
		TotalCaptured:     mapMoney(o.TotalCaptured),
		PaymentStatus:     string(paymentStatus),
		Actions:           actionTokens,
		CanFinalize:       o.CanFinalize(),
		IsPaid:            paid,
	}, nil
}

func mapErrors(errs []domain.OrderError) []OrderErrorDTO {
	out := make([]OrderErrorDTO, len(errs))
	for i, e := range errs {
		out[i] = OrderErrorDTO{Code: string(e.Code), Field: e.Field}
	}
	return out
}
