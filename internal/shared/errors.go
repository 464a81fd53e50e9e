package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the transport-agnostic categories
// the gateway maps onto HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindUnauthenticated
	KindPermissionDenied
)

// Error is the platform error type. NotFound errors carry the entity name in
// Message; InvalidArgument errors carry field-keyed messages so form clients
// can attribute failures to specific inputs.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("invalid argument: %v", e.Fields)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that the named entity does not exist or is soft-deleted.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// NotFoundSome reports that at least one of a requested set of entities is missing.
func NotFoundSome(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: "one or more " + entity + " not found"}
}

// InvalidField builds an InvalidArgument error keyed to a single field.
func InvalidField(field, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Fields: map[string][]string{field: {message}}}
}

// InvalidFields builds an InvalidArgument error from a prepared field map.
func InvalidFields(fields map[string][]string) *Error {
	return &Error{Kind: KindInvalidArgument, Fields: fields}
}

// Unauthenticated reports a failed credential or token check.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// PermissionDenied reports that the access gate refused the operation.
func PermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf extracts the error kind; unknown errors are treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns the field-keyed messages of an InvalidArgument error, if any.
func FieldsOf(err error) map[string][]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
