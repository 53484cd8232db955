package app_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/order-management/internal/eventlog"
	"github.com/jcmexdev/order-management/internal/order-service/adapters/memory"
	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// recordingLog captures mirrored ledger rows in memory.
type recordingLog struct {
	mu      sync.Mutex
	entries []eventlog.Entry
}

func (r *recordingLog) Append(_ context.Context, entry *eventlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *recordingLog) ListByOrder(_ context.Context, orderID string) ([]eventlog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []eventlog.Entry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newFixture(t *testing.T) (*app.Service, *memory.Repository, *recordingLog) {
	t.Helper()
	repo := memory.NewRepository()
	log := &recordingLog{}
	return app.NewService(repo, log), repo, log
}

// seedOrder creates a draft order with one 3-quantity line and returns it
// with a fulfillment covering one unit.
func seedOrder(t *testing.T, svc *app.Service) *domain.Order {
	t.Helper()
	ctx := context.Background()

	order, errs := svc.CreateDraftOrder(ctx, app.DraftOrderInput{
		Number:       "1001",
		CurrencyCode: "USD",
		UserEmail:    "customer@example.com",
		Lines: []app.LineInput{
			{ProductName: "Mug", ProductSKU: "MUG-01", Quantity: 3, UnitGross: "10.00", UnitNet: "8.00"},
		},
	})
	require.Empty(t, errs)
	require.NotNil(t, order)

	order, errs = svc.CreateFulfillment(ctx, order.ID, app.FulfillmentInput{
		WarehouseID: "wh-1",
		Lines:       []app.FulfillmentLineInput{{OrderLineID: order.Lines[0].ID, Quantity: 1}},
	}, nil)
	require.Empty(t, errs)
	require.Len(t, order.Fulfillments, 1)
	return order
}

func TestService_UpdateFulfillmentTracking(t *testing.T) {
	svc, _, log := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()
	eventsBefore := len(order.Events)

	user := &domain.UserRef{ID: "staff-1", Email: "staff@example.com"}
	updated, errs := svc.UpdateFulfillmentTracking(ctx, order.ID, order.Fulfillments[0].ID, app.TrackingInput{
		TrackingNumber: "1Z999AA10123456784",
		NotifyCustomer: true,
	}, user)
	require.Empty(t, errs)
	require.NotNil(t, updated)
	assert.Equal(t, "1Z999AA10123456784", updated.Fulfillments[0].TrackingNumber)

	// Exactly one tracking event plus one email event.
	require.Len(t, updated.Events, eventsBefore+2)
	assert.Equal(t, domain.EventTrackingUpdated, updated.Events[eventsBefore].Type)
	assert.Equal(t, domain.EventEmailSent, updated.Events[eventsBefore+1].Type)

	// The change is persisted, not just returned.
	stored, errs := svc.GetOrder(ctx, order.ID)
	require.Empty(t, errs)
	assert.Equal(t, "1Z999AA10123456784", stored.Fulfillments[0].TrackingNumber)

	// Both events are mirrored to the durable log with the acting user.
	rows, err := svc.ListEvents(ctx, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	last := rows[len(rows)-1]
	assert.Equal(t, string(domain.EventEmailSent), last.EventType)
	assert.Equal(t, "staff@example.com", last.UserEmail)
	assert.Len(t, log.entries, len(updated.Events))
}

func TestService_UpdateFulfillmentTracking_TooLong(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()

	updated, errs := svc.UpdateFulfillmentTracking(ctx, order.ID, order.Fulfillments[0].ID, app.TrackingInput{
		TrackingNumber: strings.Repeat("x", 256),
	}, nil)

	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalid, errs[0].Code)
	assert.Equal(t, "trackingNumber", errs[0].Field)

	// The stored order is untouched.
	stored, getErrs := svc.GetOrder(ctx, order.ID)
	require.Empty(t, getErrs)
	assert.Empty(t, stored.Fulfillments[0].TrackingNumber)
	assert.Len(t, stored.Events, len(order.Events))
}

func TestService_UpdateFulfillmentTracking_OrderNotFound(t *testing.T) {
	svc, _, _ := newFixture(t)

	updated, errs := svc.UpdateFulfillmentTracking(context.Background(), "missing", "f-1", app.TrackingInput{
		TrackingNumber: "1Z999",
	}, nil)

	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeNotFound, errs[0].Code)
	assert.Equal(t, "id", errs[0].Field)
}

func TestService_UpdateFulfillmentTracking_FulfillmentNotFound(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)

	updated, errs := svc.UpdateFulfillmentTracking(context.Background(), order.ID, "missing", app.TrackingInput{
		TrackingNumber: "1Z999",
	}, nil)

	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeNotFound, errs[0].Code)
}

func TestService_CreateFulfillment_OverAllocation(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()

	// One unit is already allocated out of three; four more exceed the line.
	updated, errs := svc.CreateFulfillment(ctx, order.ID, app.FulfillmentInput{
		WarehouseID: "wh-2",
		Lines:       []app.FulfillmentLineInput{{OrderLineID: order.Lines[0].ID, Quantity: 4}},
	}, nil)

	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInsufficientStock, errs[0].Code)
	assert.Equal(t, "quantity", errs[0].Field)

	stored, getErrs := svc.GetOrder(ctx, order.ID)
	require.Empty(t, getErrs)
	assert.Len(t, stored.Fulfillments, 1)
}

func TestService_CancelFulfillment(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()

	updated, errs := svc.CancelFulfillment(ctx, order.ID, order.Fulfillments[0].ID, nil)
	require.Empty(t, errs)
	assert.Equal(t, domain.FulfillmentCanceled, updated.Fulfillments[0].Status)
	assert.Equal(t, 0, updated.Lines[0].QuantityFulfilled)

	// Cancelling twice is rejected.
	updated, errs = svc.CancelFulfillment(ctx, order.ID, order.Fulfillments[0].ID, nil)
	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalid, errs[0].Code)
}

func TestService_AddNote(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()

	updated, errs := svc.AddNote(ctx, order.ID, "call before delivery", &domain.UserRef{Email: "staff@example.com"})
	require.Empty(t, errs)
	last := updated.Events[len(updated.Events)-1]
	assert.Equal(t, domain.EventNoteAdded, last.Type)

	// Empty notes are rejected.
	updated, errs = svc.AddNote(ctx, order.ID, "", nil)
	assert.Nil(t, updated)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeRequired, errs[0].Code)
	assert.Equal(t, "message", errs[0].Field)
}

func TestService_CreateDraftOrder_Validation(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	_, errs := svc.CreateDraftOrder(ctx, app.DraftOrderInput{CurrencyCode: "USD"})
	require.Len(t, errs, 1)
	assert.Equal(t, "lines", errs[0].Field)

	_, errs = svc.CreateDraftOrder(ctx, app.DraftOrderInput{
		CurrencyCode: "USD",
		Lines: []app.LineInput{
			{ProductName: "Mug", Quantity: 1, UnitGross: "not-a-number", UnitNet: "1.00"},
		},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalid, errs[0].Code)
}

func TestService_ConcurrentTrackingUpdates(t *testing.T) {
	svc, _, _ := newFixture(t)
	order := seedOrder(t, svc)
	ctx := context.Background()
	fulfillmentID := order.Fulfillments[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs := svc.UpdateFulfillmentTracking(ctx, order.ID, fulfillmentID, app.TrackingInput{
				TrackingNumber: "1Z999",
			}, nil)
			assert.Empty(t, errs)
		}()
	}
	wg.Wait()

	// Writes are serialized per order: every update landed in the ledger.
	stored, errs := svc.GetOrder(ctx, order.ID)
	require.Empty(t, errs)
	assert.Len(t, stored.Events, len(order.Events)+8)
	for i := 1; i < len(stored.Events); i++ {
		assert.Greater(t, stored.Events[i].Seq, stored.Events[i-1].Seq)
	}
}
