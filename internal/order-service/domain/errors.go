package domain

import "fmt"

// ErrorCode is the stable wire token attached to every domain error.
// Tokens travel as strings, never ordinals, so new variants do not break
// old clients.
type ErrorCode string

const (
	CodeInvalid           ErrorCode = "INVALID"
	CodeRequired          ErrorCode = "REQUIRED"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	CodeCurrencyMismatch  ErrorCode = "CURRENCY_MISMATCH"
)

// CurrencyMismatchError is returned by money arithmetic across incompatible
// currencies. Always fatal to the operation.
type CurrencyMismatchError struct {
	Left  string
	Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s vs %s", e.Left, e.Right)
}

// OverAllocatedError is returned when fulfillment lines would cover more
// quantity than the order line carries. The attempted mutation is rejected
// and the aggregate is left unchanged.
type OverAllocatedError struct {
	LineID    string
	Requested int
	Available int
}

func (e *OverAllocatedError) Error() string {
	return fmt.Sprintf("order line %s over-allocated: requested %d, available %d", e.LineID, e.Requested, e.Available)
}

// ValidationError is a field-addressable input failure so the boundary can
// attribute it to a specific input field.
type ValidationError struct {
	Field   string
	Code    ErrorCode
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// OrderError is the wire form of a domain failure: a stable code plus the
// input field it refers to, when one applies.
type OrderError struct {
	Code  ErrorCode `json:"code"`
	Field string    `json:"field,omitempty"`
}

// WireError maps a domain error to its boundary representation. Unknown
// error shapes degrade to a bare INVALID so the transport never has to
// reinterpret them.
func WireError(err error) OrderError {
	switch e := err.(type) {
	case *ValidationError:
		return OrderError{Code: e.Code, Field: e.Field}
	case *OverAllocatedError:
		return OrderError{Code: CodeInsufficientStock, Field: "quantity"}
	case *CurrencyMismatchError:
		return OrderError{Code: CodeCurrencyMismatch}
	default:
		return OrderError{Code: CodeInvalid}
	}
}
