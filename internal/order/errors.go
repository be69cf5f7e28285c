package order

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order id does not resolve
	ErrOrderNotFound = errors.New("order not found")

	// ErrForbidden is returned when the requester is neither the order's
	// owner nor an admin
	ErrForbidden = errors.New("not authorized for this order")
)

// ValidationError reports malformed checkout input (empty items, missing
// guest or address fields). Never retried automatically.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProductNotFoundError aborts the whole order when any referenced product
// id is absent.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %d", e.ProductID)
}

// InsufficientStockError is a user-facing, retryable-by-the-user error,
// not a system fault.
type InsufficientStockError struct {
	ProductID int64
	Title     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, required %d",
		e.Title, e.Available, e.Requested)
}

// InvalidTransitionError reports an illegal order status change
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %q to %q", e.From, e.To)
}
