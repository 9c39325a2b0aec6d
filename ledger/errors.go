package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when a record does not exist for the organization.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by a compare-and-swap update when the stored
	// version no longer matches the one the caller read.
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// ValidationError reports malformed input. It is always raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing or soft-deleted record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFoundError(resource string, id primitive.ObjectID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id.Hex()}
}

// InvalidStateError reports an operation against a record whose status forbids it.
type InvalidStateError struct {
	Resource string
	Status   string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: %s is %s", e.Action, e.Resource, e.Status)
}

func NewInvalidStateError(resource, status, action string) *InvalidStateError {
	return &InvalidStateError{Resource: resource, Status: status, Action: action}
}

// ConsistencyError reports that a payment was written but the linked invoice
// could not be synchronized. It carries what is needed to reconcile by hand.
type ConsistencyError struct {
	PaymentID primitive.ObjectID
	InvoiceID primitive.ObjectID
	Amount    decimal.Decimal
	Err       error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("payment %s recorded but invoice %s was not updated with %s: %v",
		e.PaymentID.Hex(), e.InvoiceID.Hex(), e.Amount.StringFixed(2), e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}
