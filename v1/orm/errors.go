package orm

import (
	"context"
	"errors"
	"fmt"
)

// ErrValidation is matched by every construction-time error. Such errors are
// reported before any statement reaches the backend.
var ErrValidation = errors.New("orm: validation failed")

// Validation causes. Each is wrapped in a *ValidationError.
var (
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrForeignField        = errors.New("field belongs to another model")
	ErrMissingField        = errors.New("required field missing")
	ErrArity               = errors.New("wrong number of values")
	ErrNoOpUpdate          = errors.New("update without assignments")
	ErrUnrestrictedUpdate  = errors.New("update without condition, use All to update every row")
	ErrAmbiguousTarget     = errors.New("both a condition and All were given")
	ErrAmbiguousLimit      = errors.New("limit already set")
	ErrAmbiguousRange      = errors.New("range cannot be combined with limit or offset")
	ErrOffsetWithoutLimit  = errors.New("offset requires a preceding limit")
	ErrInvalidBound        = errors.New("limit, offset and range bounds must not be negative")
	ErrConditionAlreadySet = errors.New("condition already set")
	ErrDeleteMode          = errors.New("exactly one of Single, Bulk, Where or All must be chosen")
	ErrReturningConflict   = errors.New("returning policy already chosen")
	ErrEmptyCondition      = errors.New("empty condition")
	ErrBuilderFinalized    = errors.New("builder already finalized")
	ErrNoPrimaryKey        = errors.New("model has no primary key")
)

var (
	// ErrNotFound is returned by One when no row matches.
	ErrNotFound = errors.New("orm: not found")

	// ErrEmptyUpdate is returned by DynamicUpdate.Close when nothing was set.
	// The accumulator remains usable.
	ErrEmptyUpdate = errors.New("orm: empty update")

	// ErrCursorClosed is returned when iterating a cursor that was already
	// exhausted or closed.
	ErrCursorClosed = errors.New("orm: cursor closed")

	// ErrTransactionClosed is returned on any use of a committed or rolled
	// back transaction.
	ErrTransactionClosed = errors.New("orm: transaction closed")

	// ErrTransactionBusy is returned when a statement is submitted to a
	// transaction that still has an open cursor.
	ErrTransactionBusy = errors.New("orm: transaction has an open cursor")

	// ErrCommitUncertain wraps commit failures. The caller must assume the
	// transaction did not commit unless the backend confirms otherwise.
	ErrCommitUncertain = errors.New("orm: commit outcome uncertain")
)

// ValidationError describes a builder misuse detected before execution.
type ValidationError struct {
	// Op is the builder call that failed, e.g. "Query.Offset".
	Op string

	// Reason carries detail such as the offending field.
	Reason string

	// Err is one of the validation causes above.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("orm: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("orm: %s: %v: %s", e.Op, e.Err, e.Reason)
}

// Unwrap exposes both ErrValidation and the specific cause to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(op string, cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...), Err: cause}
}

// IsValidation reports whether err is a construction-time error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Backend error classes. Backend packages translate driver errors into these
// through WithErrorTranslator so callers can match them without importing a
// driver. The translated error still wraps the driver error.
var (
	ErrDuplicateKey        = errors.New("orm: duplicate key")
	ErrForeignKeyViolation = errors.New("orm: foreign key violation")
	ErrNotNullViolation    = errors.New("orm: not null violation")
	ErrCheckViolation      = errors.New("orm: check constraint violation")
	ErrDeadlock            = errors.New("orm: deadlock detected")
	ErrSerialization       = errors.New("orm: serialization failure")
	ErrLockTimeout         = errors.New("orm: lock not available")
	ErrStatementTimeout    = errors.New("orm: statement timeout")
	ErrConnection          = errors.New("orm: connection failure")
	ErrResourceExhausted   = errors.New("orm: insufficient resources")
	ErrInternal            = errors.New("orm: internal backend error")
)

// ErrorCategory groups errors by how a caller should react to them.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryValidation
	CategoryNotFound
	CategoryConstraint
	CategoryTransient
	CategoryTimeout
	CategoryConnection
	CategoryResource
	CategorySystem
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryNotFound:
		return "not_found"
	case CategoryConstraint:
		return "constraint"
	case CategoryTransient:
		return "transient"
	case CategoryTimeout:
		return "timeout"
	case CategoryConnection:
		return "connection"
	case CategoryResource:
		return "resource"
	case CategorySystem:
		return "system"
	}
	return "unknown"
}

// Categorize classifies err. Driver errors are only recognized after a
// backend translated them.
func Categorize(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrForeignKeyViolation),
		errors.Is(err, ErrNotNullViolation), errors.Is(err, ErrCheckViolation):
		return CategoryConstraint
	case errors.Is(err, ErrDeadlock), errors.Is(err, ErrSerialization), errors.Is(err, ErrLockTimeout):
		return CategoryTransient
	case errors.Is(err, ErrStatementTimeout), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CategoryTimeout
	case errors.Is(err, ErrConnection):
		return CategoryConnection
	case errors.Is(err, ErrResourceExhausted):
		return CategoryResource
	case errors.Is(err, ErrInternal):
		return CategorySystem
	}
	return CategoryUnknown
}

// IsRetryable reports whether running the whole unit of work again may
// succeed.
func IsRetryable(err error) bool {
	switch Categorize(err) {
	case CategoryTransient, CategoryConnection:
		return true
	}
	return false
}

// IsTemporary reports whether the condition is expected to clear on its own.
func IsTemporary(err error) bool {
	switch Categorize(err) {
	case CategoryTransient, CategoryTimeout, CategoryConnection:
		return true
	}
	return false
}

// IsCritical reports whether the backend itself is in trouble.
func IsCritical(err error) bool {
	switch Categorize(err) {
	case CategoryResource, CategorySystem:
		return true
	}
	return false
}

// Classify wraps err with the class sentinel unless it already carries one.
func Classify(class, err error) error {
	if err == nil || class == nil || errors.Is(err, class) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
