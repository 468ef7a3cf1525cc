package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed or missing field for the requested
// operation. Recoverable: the caller can fix the request and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown group or member reference.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// InvalidTypeError reports an unrecognized transaction type.
type InvalidTypeError struct {
	Type string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("unknown transaction type: %q", e.Type)
}

// PersistenceError reports a store-level failure. The ledger write is
// all-or-nothing, so a PersistenceError implies nothing was committed and the
// caller may safely retry the whole request.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvariantViolation reports drift between a cached aggregate and the value
// projected from the transaction log. It is surfaced for operator
// reconciliation, never silently auto-corrected.
type InvariantViolation struct {
	Entity    string
	Ref       string
	Cached    decimal.Decimal
	Projected decimal.Decimal
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s %s cached balance %s does not match projected %s",
		e.Entity, e.Ref, e.Cached.String(), e.Projected.String())
}
