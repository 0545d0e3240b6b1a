// Package dispatcherr provides the dispatch core's domain error type and
// its stable error code taxonomy.
package dispatcherr

import "errors"

// Error codes for the dispatch core. UPPER_SNAKE_CASE, no ERR_ prefix.
// These codes are STABLE once published; add new ones, never repurpose
// an existing one.
const (
	CodeDuplicateType    = "DUPLICATE_TYPE"
	CodeUnknownType      = "UNKNOWN_TYPE"
	CodeSchemaError      = "SCHEMA_ERROR"
	CodeDuplicateEvent   = "DUPLICATE_EVENT"
	CodeHandlerFailure   = "HANDLER_FAILURE"
	CodeLockTimeout      = "LOCK_TIMEOUT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

var allCodes = map[string]struct{}{
	CodeDuplicateType:    {},
	CodeUnknownType:      {},
	CodeSchemaError:      {},
	CodeDuplicateEvent:   {},
	CodeHandlerFailure:   {},
	CodeLockTimeout:      {},
	CodeStoreUnavailable: {},
}

// IsValidCode reports whether code is a registered dispatcherr code.
func IsValidCode(code string) bool {
	_, ok := allCodes[code]
	return ok
}

// DomainError is the dispatch core's error type: a stable code, a
// human-readable message, an optional hint, and an optional wrapped
// cause.
type DomainError struct {
	Code    string
	Message string
	Hint    string

	cause error
}

// Error implements error.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is by code comparison: two DomainErrors match if
// their Code fields are equal.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		if t.Code != "" {
			return e.Code == t.Code
		}
		return true
	}
	return false
}

// New creates a DomainError with the given code and message. Panics if
// code is not a registered code — an unknown code is a programmer error,
// not a runtime condition to recover from.
func New(code, message string) *DomainError {
	if !IsValidCode(code) {
		panic("dispatcherr: invalid code: " + code)
	}
	return &DomainError{Code: code, Message: message}
}

// NewWithHint creates a DomainError carrying a client-facing hint.
func NewWithHint(code, message, hint string) *DomainError {
	if !IsValidCode(code) {
		panic("dispatcherr: invalid code: " + code)
	}
	return &DomainError{Code: code, Message: message, Hint: hint}
}

// NewWithCause creates a DomainError wrapping an underlying error.
func NewWithCause(code, message string, cause error) *DomainError {
	if !IsValidCode(code) {
		panic("dispatcherr: invalid code: " + code)
	}
	return &DomainError{Code: code, Message: message, cause: cause}
}

// As extracts a *DomainError from err's chain, if present.
func As(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}
