package domain

// TrackingNumberMaxLength is the platform field-length limit for carrier
// tracking numbers.
const TrackingNumberMaxLength = 255

// FulfillmentStatus is the lifecycle state of a fulfillment. Transitions
// are one-directional: there is no un-fulfilling.
type FulfillmentStatus string

const (
	FulfillmentFulfilled           FulfillmentStatus = "FULFILLED"
	FulfillmentCanceled            FulfillmentStatus = "CANCELED"
	FulfillmentRefunded            FulfillmentStatus = "REFUNDED"
	FulfillmentReturned            FulfillmentStatus = "RETURNED"
	FulfillmentReplaced            FulfillmentStatus = "REPLACED"
	FulfillmentRefundedAndReturned FulfillmentStatus = "REFUNDED_AND_RETURNED"
	FulfillmentWaitingForApproval  FulfillmentStatus = "WAITING_FOR_APPROVAL"
)

// IsValid reports whether the token is a known fulfillment status.
func (s FulfillmentStatus) IsValid() bool {
	switch s {
	case FulfillmentFulfilled, FulfillmentCanceled, FulfillmentRefunded,
		FulfillmentReturned, FulfillmentReplaced, FulfillmentRefundedAndReturned,
		FulfillmentWaitingForApproval:
		return true
	}
	return false
}

// CountsTowardFulfillment reports whether lines under this status consume
// order-line quantity. A cancellation releases the allocation but the
// historical record stays in the event ledger.
func (s FulfillmentStatus) CountsTowardFulfillment() bool {
	return s != FulfillmentCanceled
}

// Warehouse is the ship-from location bound to a fulfillment.
type Warehouse struct {
	ID   string
	Name string
}

// Fulfillment is a shipment-like grouping of order-line allocations from a
// single warehouse, with its own status and tracking number.
type Fulfillment struct {
	ID               string
	FulfillmentOrder int
	Status           FulfillmentStatus
	TrackingNumber   string
	Warehouse        Warehouse
	Lines            []FulfillmentLine
}

// Validate checks the fulfillment's own lines. Cross-line allocation limits
// are the Order's job.
func (f Fulfillment) Validate() error {
	if !f.Status.IsValid() {
		return &ValidationError{Field: "status", Code: CodeInvalid, Message: "unknown fulfillment status"}
	}
	for _, fl := range f.Lines {
		if err := fl.Validate(); err != nil {
			return err
		}
	}
	return nil
}
