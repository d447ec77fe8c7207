// Package apperr defines the error taxonomy shared by the mutation gateway,
// the live views and the HTTP layer, plus the uniform {success, error, data}
// result envelope rendered to clients.
package apperr

import (
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPermissionDenied
	KindNotFound
	KindAlreadyExists
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindStoreUnavailable:
		return "store_unavailable"
	}
	return "unknown"
}

// Validation failure codes.
const (
	CodeInvalidFormat = "invalid_format"
	CodeEmpty         = "empty"
	CodeTooLong       = "too_long"
	CodeRequired      = "required"
	CodeSelfReference = "self_reference"
)

var defaultMessages = map[Kind]string{
	KindUnknown:          "An unexpected error occurred",
	KindValidation:       "Invalid input",
	KindPermissionDenied: "Access denied",
	KindNotFound:         "Resource not found",
	KindAlreadyExists:    "Resource already exists",
	KindStoreUnavailable: "Service unavailable. Check your connection",
}

// Error is the error type returned across component boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Op      string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.message())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}
	return defaultMessages[e.Kind]
}

// Is matches another *Error by kind and, when set on the target, by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels usable with errors.Is.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrSelfReference    = &Error{Kind: KindValidation, Code: CodeSelfReference}
)

func Validation(code, msg string, details ...string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg, Details: details}
}

func PermissionDenied(op, msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Op: op, Message: msg}
}

func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func AlreadyExists(op, msg string) *Error {
	return &Error{Kind: KindAlreadyExists, Op: op, Message: msg}
}

// Wrap attaches kind and op to a lower-level error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err; errors outside the taxonomy are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the human-readable text for err, without op prefixes or
// wrapped collaborator details.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.message()
		if len(e.Details) > 0 {
			msg += ": " + strings.Join(e.Details, ", ")
		}
		return msg
	}
	return defaultMessages[KindUnknown]
}
