// Package errors defines the ledger's typed error: one concrete type
// carrying a stable Kind plus an optional structured payload, instead of
// ad-hoc sentinel values or fmt.Errorf strings (one *Error type, a closed
// Kind enum, Is/As/Unwrap). There is no protobuf/gRPC status machinery:
// this service has no gRPC surface, so there is nothing to translate a
// Kind into a grpc/codes.Code for.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the class of an Error. Kinds are stable across releases;
// callers should branch on Kind, never on the formatted message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidHeight
	KindInputNotFound
	KindValueMismatch
	KindInvalidBlockID
	KindInvalidHeightParam
	KindTargetAboveHead
	KindStoreError
	KindConfiguration
	KindNotFound
	KindServiceError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeight:
		return "InvalidHeight"
	case KindInputNotFound:
		return "InputNotFound"
	case KindValueMismatch:
		return "ValueMismatch"
	case KindInvalidBlockID:
		return "InvalidBlockId"
	case KindInvalidHeightParam:
		return "InvalidHeightParam"
	case KindTargetAboveHead:
		return "TargetAboveHead"
	case KindStoreError:
		return "StoreError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindNotFound:
		return "NotFound"
	case KindServiceError:
		return "ServiceError"
	default:
		return "Unknown"
	}
}

// Data carries a Kind's structured payload, for kinds whose response body
// needs more than a message (InvalidBlockId's expected/received/hashInput,
// InputNotFound's missing key).
type Data interface {
	// Fields returns the payload as a flat map suitable for JSON encoding.
	Fields() map[string]interface{}
}

// Error is the ledger's single error type.
type Error struct {
	kind    Kind
	message string
	wrapped error
	data    Data
}

// New constructs an Error of the given kind. message is formatted with
// args exactly like fmt.Sprintf if args is non-empty.
func New(kind Kind, message string, args ...interface{}) *Error {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}

	return &Error{kind: kind, message: message}
}

// Wrap constructs an Error of the given kind that wraps err.
func Wrap(kind Kind, err error, message string, args ...interface{}) *Error {
	e := New(kind, message, args...)
	e.wrapped = err

	return e
}

// WithData attaches a structured payload to e and returns e.
func (e *Error) WithData(d Data) *Error {
	e.data = d
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.wrapped == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.message)
	}

	return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.wrapped)
}

// Kind returns e's error kind.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindUnknown
	}

	return e.kind
}

// Message returns e's message, without the wrapped error or kind prefix.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

// Data returns e's structured payload, or nil if none was attached.
func (e *Error) Data() Data {
	if e == nil {
		return nil
	}

	return e.data
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrapped
}

// Is reports whether target is an *Error with the same Kind as e, so that
// errors.Is(err, errors.New(errors.KindStoreError, "")) works as a kind
// check without needing an exported sentinel per kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return target == nil
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.kind == t.kind
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind == kind
	}

	return false
}

// As is a thin re-export of the standard library's errors.As, so callers
// working with this package don't need a second import for the common case
// of recovering the concrete *Error.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind
	}

	return KindUnknown
}
