// Package sqlite provides a SQLite-backed implementation of
// eventlog.Repository.
//
// WAL mode is enabled on Open so that readers never block writers — the
// mutation path writes rows while the HTTP events endpoint may be reading.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/order-management/internal/eventlog"

	// Register the pure-Go SQLite driver; no CGO, so Alpine images build
	// without a toolchain.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. The table is append-only:
// each row is an immutable event in an order's ledger.
const schema = `
CREATE TABLE IF NOT EXISTS order_events (
    -- Surrogate primary key, auto-incremented by SQLite. Together with
    -- recorded_at it reproduces the ledger's tie-breaking append order.
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Aggregate identifier. Not UNIQUE: many rows exist per order.
    order_id        TEXT        NOT NULL,

    -- Ledger identity assigned by the aggregate (UUID).
    event_id        TEXT        NOT NULL,

    -- Stable event-type token, e.g. "TRACKING_UPDATED". Unknown tokens from
    -- newer builds are stored and served as-is.
    event_type      TEXT        NOT NULL,

    -- JSON variant payload. NULL when the event carries no payload.
    payload         TEXT,

    -- Staff user behind the mutation, when known.
    user_email      TEXT        NOT NULL DEFAULT '',

    -- W3C trace_id / span_id of the span active when the row was written.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- Ledger timestamp (RFC3339 stored as TEXT, SQLite idiom).
    recorded_at     TEXT        NOT NULL
);

-- The common query: "all events for order X in ledger order".
CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id, recorded_at, id);

-- The observability query: "find the order mutation for trace Y".
CREATE INDEX IF NOT EXISTS idx_order_events_trace_id ON order_events(trace_id);
`

// Repository is the SQLite implementation of eventlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Repository, error) {
	// WAL enables concurrent readers; busy_timeout waits for locks instead
	// of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Append inserts a new ledger row. Safe to call concurrently.
func (r *Repository) Append(ctx context.Context, entry *eventlog.Entry) error {
	const q = `
		INSERT INTO order_events
			(order_id, event_id, event_type, payload, user_email, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		entry.EventID,
		entry.EventType,
		nullableString(entry.Payload),
		entry.UserEmail,
		entry.TraceID,
		entry.SpanID,
		entry.RecordedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append event for order %q: %w", entry.OrderID, err)
	}
	return nil
}

// ListByOrder returns every row for an order, oldest first, ties resolved
// by insertion order.
func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]eventlog.Entry, error) {
	const q = `
		SELECT order_id, event_id, event_type, COALESCE(payload,''), user_email,
		       trace_id, span_id, recorded_at
		FROM   order_events
		WHERE  order_id = ?
		ORDER  BY recorded_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list events for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var entries []eventlog.Entry
	for rows.Next() {
		var entry eventlog.Entry
		var recordedAt string
		if err := rows.Scan(
			&entry.OrderID,
			&entry.EventID,
			&entry.EventType,
			&entry.Payload,
			&entry.UserEmail,
			&entry.TraceID,
			&entry.SpanID,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan event row: %w", err)
		}
		entry.RecordedAt, err = parseRFC3339(recordedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// nullableString returns nil for empty strings so SQLite stores NULL
// instead of empty TEXT on payload-less events.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
