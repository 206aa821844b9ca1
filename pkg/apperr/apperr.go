// Package apperr defines the error taxonomy shared by every service and its
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInvalidCredentials
	KindUnauthenticated
	KindDuplicateIdentity
	KindNotFound
	KindExternalService

	// KindNone is reported for a nil error.
	KindNone Kind = -1
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindDuplicateIdentity:
		return "duplicate_identity"
	case KindNotFound:
		return "not_found"
	case KindExternalService:
		return "external_service_error"
	default:
		return "internal_error"
	}
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is the tagged error returned by the service layer.
type Error struct {
	Kind    Kind
	Code    string // stable machine-readable code, defaults to Kind.String()
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.MachineCode(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.MachineCode(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// MachineCode returns Code or the kind name when Code is empty.
func (e *Error) MachineCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

// WithCode returns a copy of e with a more specific machine code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Login gagal, periksa email dan password kamu!"}
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "User tidak terautentikasi"}
}

func DuplicateIdentity(msg string) *Error {
	return &Error{Kind: KindDuplicateIdentity, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func External(msg string, err error) *Error {
	return &Error{Kind: KindExternalService, Message: msg, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Terjadi kesalahan internal", Err: err}
}

// As extracts an *Error from err. Untagged errors are reported as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the Kind of err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	return As(err).Kind
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindExternalService:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindDuplicateIdentity:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
