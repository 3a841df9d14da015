package models

import "fmt"

// ErrorKind classifies a domain failure
type ErrorKind string

// Error kinds
const (
	KindInvalidCredentials     ErrorKind = "INVALID_CREDENTIALS"
	KindEmailAlreadyRegistered ErrorKind = "EMAIL_ALREADY_REGISTERED"
	KindNotAuthenticated       ErrorKind = "NOT_AUTHENTICATED"
	KindForbidden              ErrorKind = "FORBIDDEN"
	KindProductNotFound        ErrorKind = "PRODUCT_NOT_FOUND"
	KindOrderNotFound          ErrorKind = "ORDER_NOT_FOUND"
	KindInsufficientStock      ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidTransition      ErrorKind = "INVALID_TRANSITION"
	KindInvalidInput           ErrorKind = "INVALID_INPUT"
)

// Error is a domain failure callers can branch on by kind
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInsufficientStock)
// holds for every detailed insufficient stock failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrInvalidCredentials     = &Error{Kind: KindInvalidCredentials}
	ErrEmailAlreadyRegistered = &Error{Kind: KindEmailAlreadyRegistered}
	ErrNotAuthenticated       = &Error{Kind: KindNotAuthenticated}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrProductNotFound        = &Error{Kind: KindProductNotFound}
	ErrOrderNotFound          = &Error{Kind: KindOrderNotFound}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
)

// NewError builds a detailed error of the given kind
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
