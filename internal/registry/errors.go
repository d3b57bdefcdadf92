package registry

import (
	"errors"
	"fmt"
)

// Kind categorizes registry errors.
type Kind string

const (
	// KindNotFound covers a missing name or cursor, and records whose
	// metadata row is missing.
	KindNotFound Kind = "NOT_FOUND"

	// KindNotAuthorized indicates the caller is not the record owner.
	KindNotAuthorized Kind = "NOT_AUTHORIZED"

	// KindNameExists indicates a duplicate registration.
	KindNameExists Kind = "NAME_EXISTS"

	// KindInsufficientFunds indicates the attached payment is below price.
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"

	// KindValidation indicates bad input: address syntax, name length or
	// metadata limits.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindTooManyRecords indicates a page limit above MaxPageLimit.
	KindTooManyRecords Kind = "TOO_MANY_RECORDS"

	// KindAlreadyInitialized indicates Init ran twice.
	KindAlreadyInitialized Kind = "ALREADY_INITIALIZED"

	// KindNotInitialized indicates the store has no config.
	KindNotInitialized Kind = "NOT_INITIALIZED"
)

// Error is a terminal registry failure. None are retried.
type Error struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsNotFound returns true if err is a NotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsNotAuthorized returns true if err is a NotAuthorized error.
func IsNotAuthorized(err error) bool { return KindOf(err) == KindNotAuthorized }

// IsNameExists returns true if err is a NameExists error.
func IsNameExists(err error) bool { return KindOf(err) == KindNameExists }

// IsInsufficientFunds returns true if err is an InsufficientFunds error.
func IsInsufficientFunds(err error) bool { return KindOf(err) == KindInsufficientFunds }

// IsValidation returns true if err is a ValidationError.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTooManyRecords returns true if err is a TooManyRecords error.
func IsTooManyRecords(err error) bool { return KindOf(err) == KindTooManyRecords }
