// Package eventlog defines the durable mirror of the order event ledger.
//
// Every event appended to an Order aggregate is also written here as an
// immutable row, so two things become possible:
//
//  1. Observability: each row carries the trace_id of the span active when
//     the mutation ran, so a ledger row can be joined with the distributed
//     trace that produced it.
//
//  2. Audit: the full history of an order survives process restarts and
//     cache evictions, independent of the in-memory aggregate.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/order-management/internal/order-service/domain"
)

// Entry is a single row in the order_events table: one domain event, frozen
// at append time.
type Entry struct {
	// OrderID joins the row with the business aggregate.
	OrderID string

	// EventID is the ledger identity assigned by the aggregate.
	EventID string

	// EventType is the stable string token (e.g. "TRACKING_UPDATED").
	// Stored as text so rows written by newer builds stay readable.
	EventType string

	// Payload is the JSON-serialised variant data of the event.
	Payload string

	// UserEmail is the staff user behind the mutation, when known.
	UserEmail string

	// TraceID is the W3C trace ID of the span active at append time.
	TraceID string

	// SpanID pinpoints the exact span within that trace.
	SpanID string

	// RecordedAt is the ledger timestamp assigned by the aggregate.
	RecordedAt time.Time
}

// Repository is the port for persisting ledger rows. Append-only: there is
// no update or delete.
type Repository interface {
	// Append persists one new row.
	Append(ctx context.Context, entry *Entry) error

	// ListByOrder returns all rows for an order in ledger order.
	ListByOrder(ctx context.Context, orderID string) ([]Entry, error)
}

// NewEntry freezes a domain event into a durable row, extracting trace
// identifiers from the active span in ctx. Without an active span (unit
// tests) both IDs are empty strings.
func NewEntry(ctx context.Context, orderID string, ev domain.OrderEvent) *Entry {
	sc := trace.SpanFromContext(ctx).SpanContext()
	traceID, spanID := "", ""
	if sc.IsValid() {
		traceID = sc.TraceID().String()
		spanID = sc.SpanID().String()
	}

	payload := ""
	if ev.Payload != nil {
		if b, err := json.Marshal(ev.Payload); err == nil {
			payload = string(b)
		}
	}

	userEmail := ""
	if ev.User != nil {
		userEmail = ev.User.Email
	}

	return &Entry{
		OrderID:    orderID,
		EventID:    ev.ID,
		EventType:  string(ev.Type),
		Payload:    payload,
		UserEmail:  userEmail,
		TraceID:    traceID,
		SpanID:     spanID,
		RecordedAt: ev.Date,
	}
}
