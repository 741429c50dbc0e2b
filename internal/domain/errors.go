package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a point lookup matched no row.
var ErrNotFound = errors.New("not found")

// PostgreSQL SQLSTATE codes surfaced through StoreError.Code.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// ValidationError reports a malformed argument. It is always returned before a
// transaction is opened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps a failure raised by the database while running an operation.
// The enclosing transaction has been rolled back when one is returned.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store: %s: [%s] %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a store failure caused by a uniqueness or
// referential-integrity violation.
func IsConflict(err error) bool {
	var s *StoreError
	if !errors.As(err, &s) {
		return false
	}
	return s.Code == CodeUniqueViolation || s.Code == CodeForeignKeyViolation
}
