/*
Package fault is the error taxonomy of the message core. All domain failures
are *Error values which carry a Code. Annotations made with err2 or
fmt.Errorf("%w") keep the code reachable with errors.Is and CodeOf.
*/
package fault

import (
	"errors"
	"fmt"
)

// Code classifies the failure.
type Code int

const (
	Unknown Code = iota
	InvalidMessage
	RecordNotFound
	RecordInInvalidState
	PaymentInsufficientFunds
	RecordAmbiguous
)

func (c Code) String() string {
	switch c {
	case InvalidMessage:
		return "InvalidMessage"
	case RecordNotFound:
		return "RecordNotFound"
	case RecordInInvalidState:
		return "RecordInInvalidState"
	case PaymentInsufficientFunds:
		return "PaymentInsufficientFunds"
	case RecordAmbiguous:
		return "RecordAmbiguous"
	default:
		return "Unknown"
	}
}

// Sentinels to use with errors.Is. They match any *Error with the same code.
var (
	ErrInvalidMessage           = &Error{Code: InvalidMessage}
	ErrRecordNotFound           = &Error{Code: RecordNotFound}
	ErrRecordInInvalidState     = &Error{Code: RecordInInvalidState}
	ErrPaymentInsufficientFunds = &Error{Code: PaymentInsufficientFunds}
	ErrRecordAmbiguous          = &Error{Code: RecordAmbiguous}
)

// Error is the single error kind surfaced by the core.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

// Is matches errors by code only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns a new *Error with formatted message.
func New(c Code, format string, a ...any) error {
	return &Error{Code: c, Msg: fmt.Sprintf(format, a...)}
}

// Invalid is a shorthand for New(InvalidMessage, ...).
func Invalid(format string, a ...any) error {
	return New(InvalidMessage, format, a...)
}

// NotFound is a shorthand for New(RecordNotFound, ...).
func NotFound(format string, a ...any) error {
	return New(RecordNotFound, format, a...)
}

// CodeOf returns the code of the first *Error in the chain, or Unknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}
