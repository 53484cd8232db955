// Package app hosts the order application service: it serializes writes per
// order, drives the domain aggregate through the validate / mutate / append
// / re-derive cycle, and mirrors appended events to the durable log.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/order-management/internal/eventlog"
	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// Service coordinates domain operations against persisted orders.
// eventLog may be nil — in that case the durable mirror is skipped.
type Service struct {
	repo     Repository
	eventLog eventlog.Repository

	// mu guards locks. Each order gets its own mutex so mutations on one
	// order are serialized without blocking the rest: the allocation check
	// and fulfillment edits are check-then-act and must not interleave.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the service. eventLog may be nil.
func NewService(repo Repository, eventLog eventlog.Repository) *Service {
	return &Service{
		repo:     repo,
		eventLog: eventLog,
		locks:    make(map[string]*sync.Mutex),
	}
}

// orderLock returns the mutex serializing writes for one order identity.
func (s *Service) orderLock(orderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[orderID] = l
	}
	return l
}

// TrackingInput is the request shape of the fulfillment-update operation.
type TrackingInput struct {
	TrackingNumber string
	NotifyCustomer bool
}

// FulfillmentInput describes a fulfillment to create.
type FulfillmentInput struct {
	WarehouseID   string
	WarehouseName string
	Lines         []FulfillmentLineInput
}

// FulfillmentLineInput allocates quantity from one order line.
type FulfillmentLineInput struct {
	OrderLineID string
	Quantity    int
}

// LineInput describes one order line at draft creation.
type LineInput struct {
	ProductName string
	ProductSKU  string
	VariantName string
	Quantity    int
	UnitGross   string
	UnitNet     string
}

// DraftOrderInput describes a draft order to create.
type DraftOrderInput struct {
	Number       string
	CurrencyCode string
	UserEmail    string
	CustomerNote string
	Lines        []LineInput
}

// wireErrors converts a domain failure into the boundary error list.
func wireErrors(err error) []domain.OrderError {
	return []domain.OrderError{domain.WireError(err)}
}

// notFoundErrors is the error list for a missing order.
func notFoundErrors() []domain.OrderError {
	return []domain.OrderError{{Code: domain.CodeNotFound, Field: "id"}}
}

// mutate runs fn against a clone of the stored order under the per-order
// lock and commits only when fn succeeds, so a failed precondition never
// leaves persisted state half-changed. New ledger events are mirrored to
// the durable log after commit.
func (s *Service) mutate(ctx context.Context, orderID string, fn func(*domain.Order) error) (*domain.Order, []domain.OrderError) {
	lock := s.orderLock(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, notFoundErrors()
		}
		slog.ErrorContext(ctx, "loading order failed", "order_id", orderID, "error", err)
		return nil, []domain.OrderError{{Code: domain.CodeInvalid}}
	}

	eventsBefore := len(order.Events)
	if err := fn(order); err != nil {
		return nil, wireErrors(err)
	}

	if err := s.repo.Save(ctx, order); err != nil {
		slog.ErrorContext(ctx, "saving order failed", "order_id", orderID, "error", err)
		return nil, []domain.OrderError{{Code: domain.CodeInvalid}}
	}

	s.mirrorEvents(ctx, order, order.Events[eventsBefore:])
	return order, nil
}

// mirrorEvents appends newly created ledger entries to the durable log.
// The aggregate mutation has already committed; a mirror failure is logged,
// not surfaced.
func (s *Service) mirrorEvents(ctx context.Context, order *domain.Order, events []domain.OrderEvent) {
	if s.eventLog == nil {
		return
	}
	for _, ev := range events {
		if err := s.eventLog.Append(ctx, eventlog.NewEntry(ctx, order.ID, ev)); err != nil {
			slog.ErrorContext(ctx, "mirroring order event failed",
				"order_id", order.ID,
				"event_type", ev.Type,
				"error", err,
			)
		}
	}
}

// UpdateFulfillmentTracking applies a tracking-number update to one of the
// order's fulfillments and returns the updated order with derived state
// recomputed. On failure the error list is non-empty and the order is nil.
func (s *Service) UpdateFulfillmentTracking(ctx context.Context, orderID, fulfillmentID string, in TrackingInput, user *domain.UserRef) (*domain.Order, []domain.OrderError) {
	slog.InfoContext(ctx, "updating fulfillment tracking",
		"order_id", orderID,
		"fulfillment_id", fulfillmentID,
		"notify_customer", in.NotifyCustomer,
	)
	return s.mutate(ctx, orderID, func(o *domain.Order) error {
		return o.UpdateFulfillmentTracking(fulfillmentID, in.TrackingNumber, in.NotifyCustomer, user)
	})
}

// CreateFulfillment allocates order-line quantities to a new fulfillment.
// Over-allocation rejects the whole mutation.
func (s *Service) CreateFulfillment(ctx context.Context, orderID string, in FulfillmentInput, user *domain.UserRef) (*domain.Order, []domain.OrderError) {
	lines := make([]domain.FulfillmentLine, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = domain.FulfillmentLine{
			ID:          uuid.NewString(),
			OrderLineID: l.OrderLineID,
			Quantity:    l.Quantity,
		}
	}
	warehouse := domain.Warehouse{ID: in.WarehouseID, Name: in.WarehouseName}
	return s.mutate(ctx, orderID, func(o *domain.Order) error {
		_, err := o.AddFulfillment(warehouse, lines, user)
		return err
	})
}

// CancelFulfillment releases a fulfillment's allocations.
func (s *Service) CancelFulfillment(ctx context.Context, orderID, fulfillmentID string, user *domain.UserRef) (*domain.Order, []domain.OrderError) {
	return s.mutate(ctx, orderID, func(o *domain.Order) error {
		return o.CancelFulfillment(fulfillmentID, user)
	})
}

// AddNote appends a free-text note to the order's ledger.
func (s *Service) AddNote(ctx context.Context, orderID, message string, user *domain.UserRef) (*domain.Order, []domain.OrderError) {
	return s.mutate(ctx, orderID, func(o *domain.Order) error {
		return o.AddNote(message, user)
	})
}

// CreateDraftOrder builds and persists a new draft order from boundary
// input. Monetary amounts arrive as decimal strings and are validated
// before anything is stored.
func (s *Service) CreateDraftOrder(ctx context.Context, in DraftOrderInput) (*domain.Order, []domain.OrderError) {
	if in.CurrencyCode == "" {
		return nil, []domain.OrderError{{Code: domain.CodeRequired, Field: "currency"}}
	}
	if len(in.Lines) == 0 {
		return nil, []domain.OrderError{{Code: domain.CodeRequired, Field: "lines"}}
	}

	lines := make([]domain.OrderLine, len(in.Lines))
	for i, l := range in.Lines {
		gross, err := domain.MoneyFromString(l.UnitGross, in.CurrencyCode)
		if err != nil {
			return nil, wireErrors(err)
		}
		net, err := domain.MoneyFromString(l.UnitNet, in.CurrencyCode)
		if err != nil {
			return nil, wireErrors(err)
		}
		unit, err := domain.NewTaxedMoney(gross, net)
		if err != nil {
			return nil, wireErrors(err)
		}
		lines[i] = domain.OrderLine{
			ID:                    uuid.NewString(),
			ProductName:           l.ProductName,
			ProductSKU:            l.ProductSKU,
			VariantName:           l.VariantName,
			Quantity:              l.Quantity,
			UnitDiscount:          domain.ZeroMoney(in.CurrencyCode),
			UnitDiscountType:      domain.DiscountValueFixed,
			UndiscountedUnitPrice: unit,
			UnitPrice:             unit,
			IsShippingRequired:    true,
		}
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		Number:       in.Number,
		Status:       domain.OrderDraft,
		Created:      time.Now().UTC(),
		CustomerNote: in.CustomerNote,
		UserEmail:    in.UserEmail,
		Channel: domain.Channel{
			ID:           uuid.NewString(),
			CurrencyCode: in.CurrencyCode,
			IsActive:     true,
		},
		Lines:           lines,
		ShippingPrice:   domain.ZeroTaxedMoney(in.CurrencyCode),
		TotalAuthorized: domain.ZeroMoney(in.CurrencyCode),
		TotalCaptured:   domain.ZeroMoney(in.CurrencyCode),
	}
	if err := order.Validate(); err != nil {
		return nil, wireErrors(err)
	}
	ev := order.AppendEvent(domain.OrderEvent{
		ID:   uuid.NewString(),
		Type: domain.EventDraftCreated,
	})

	if err := s.repo.Save(ctx, order); err != nil {
		slog.ErrorContext(ctx, "saving draft order failed", "order_id", order.ID, "error", err)
		return nil, []domain.OrderError{{Code: domain.CodeInvalid}}
	}
	s.mirrorEvents(ctx, order, []domain.OrderEvent{ev})

	slog.InfoContext(ctx, "draft order created", "order_id", order.ID, "number", order.Number)
	return order, nil
}

// GetOrder returns a snapshot of the order. Reads are pure and do not take
// the per-order lock; the repository hands out isolated copies.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, []domain.OrderError) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, notFoundErrors()
		}
		slog.ErrorContext(ctx, "loading order failed", "order_id", orderID, "error", err)
		return nil, []domain.OrderError{{Code: domain.CodeInvalid}}
	}
	return order, nil
}

// ListEvents returns the durable ledger rows for an order, oldest first.
func (s *Service) ListEvents(ctx context.Context, orderID string) ([]eventlog.Entry, error) {
	if s.eventLog == nil {
		return nil, nil
	}
	return s.eventLog.ListByOrder(ctx, orderID)
}
