package domain

import (
	"fmt"
	"sort"
	"time"
)

// now is swapped out in tests that need a deterministic clock.
var now = time.Now

// AppendEvent appends an event to the order's ledger. It assigns the ID,
// a timestamp no earlier than the previous event's, and the tie-breaking
// sequence number. The ledger performs no deduplication; idempotency is the
// caller's concern. The stored event is returned.
func (o *Order) AppendEvent(e OrderEvent) OrderEvent {
	ts := now().UTC()
	seq := 0
	if n := len(o.Events); n > 0 {
		last := o.Events[n-1]
		if ts.Before(last.Date) {
			ts = last.Date
		}
		seq = last.Seq + 1
	}
	e.Date = ts
	e.Seq = seq
	o.Events = append(o.Events, e)
	return e
}

// NarrativeEntry is one human-auditable line derived from the ledger.
type NarrativeEntry struct {
	Date    time.Time
	Type    OrderEventType
	Message string
}

// ReconstructStatus folds the ledger into a display narrative. It is a pure
// function: it copies and stably sorts the events by (Date, Seq) and never
// mutates its input. Unknown event types are rendered opaquely rather than
// rejected, so newer ledgers stay readable.
func ReconstructStatus(events []OrderEvent) []NarrativeEntry {
	ordered := make([]OrderEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	out := make([]NarrativeEntry, 0, len(ordered))
	for _, e := range ordered {
		out = append(out, NarrativeEntry{Date: e.Date, Type: e.Type, Message: describeEvent(e)})
	}
	return out
}

func describeEvent(e OrderEvent) string {
	switch p := e.Payload.(type) {
	case NotePayload:
		return fmt.Sprintf("note added: %s", p.Message)
	case EmailSentPayload:
		return fmt.Sprintf("%s email sent to %s", p.EmailType, p.Email)
	case TrackingUpdatedPayload:
		if p.NewTracking == "" {
			return fmt.Sprintf("tracking cleared on fulfillment %s", p.FulfillmentID)
		}
		return fmt.Sprintf("tracking on fulfillment %s set to %s", p.FulfillmentID, p.NewTracking)
	case DiscountPayload:
		return fmt.Sprintf("order discount %s (%s %s)", discountVerb(e.Type), p.Discount.CalculationMode, p.Discount.Value)
	case LineDiscountPayload:
		return fmt.Sprintf("discount updated on %d line(s)", len(p.Lines))
	case FulfilledPayload:
		return fmt.Sprintf("fulfilled %d item(s) in fulfillment %s", p.Quantity, p.FulfillmentID)
	case PaymentPayload:
		verb := "captured"
		if e.Type == EventPaymentRefunded {
			verb = "refunded"
		}
		return fmt.Sprintf("payment %s: %s %s", verb, p.Amount.Amount, p.Amount.Currency)
	case InvoicePayload:
		return fmt.Sprintf("invoice %s generated", p.InvoiceNumber)
	case RelatedOrderPayload:
		return fmt.Sprintf("related order #%s", p.Number)
	case nil:
		return string(e.Type)
	default:
		// Unknown or forward-incompatible variant: display-only.
		return fmt.Sprintf("event %s", e.Type)
	}
}

func discountVerb(t OrderEventType) string {
	switch t {
	case EventOrderDiscountAdded:
		return "added"
	case EventOrderDiscountUpdated:
		return "updated"
	case EventOrderDiscountDeleted:
		return "removed"
	default:
		return "changed"
	}
}
