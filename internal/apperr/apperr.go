// Package apperr is the error vocabulary shared by services and handlers.
// Every error that reaches a client carries a kind, which picks the HTTP
// status, and a stable machine-readable code.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Codes used across the service.
const (
	CodeInvalidBody        = "invalid_body"
	CodeMissingCredentials = "missing_credentials"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidRole        = "invalid_role"
	CodeRoleMismatch       = "role_mismatch"
	CodeUserExists         = "user_exists"
	CodeUserNotFound       = "user_not_found"
	CodeInvalidQuantity    = "invalid_quantity"
	CodeInvalidStatus      = "invalid_status"
	CodeInvalidItems       = "invalid_items"
	CodeUnknownMedicine    = "unknown_medicine"
	CodeUnknownRetailer    = "unknown_retailer"
	CodeUnknownWholesaler  = "unknown_wholesaler"
	CodeUnknownParty       = "unknown_party"
	CodeMedicineExists     = "medicine_exists"
	CodeMedicineNotFound   = "medicine_not_found"
	CodeRequestNotFound    = "request_not_found"
	CodeOrderNotFound      = "order_not_found"
	CodeRequestNotPending  = "request_not_pending"
	CodeInvalidTransition  = "invalid_transition"
	CodeInvalidLocation    = "invalid_location"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotStoreOwner      = "not_store_owner"
	CodeUploadsDisabled    = "uploads_disabled"
	CodeInternal           = "internal"
)

// Error is a classified failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error

	status int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status for the error.
func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(code, msg string) *Error { return newErr(KindValidation, code, msg) }
func Auth(code, msg string) *Error       { return newErr(KindAuth, code, msg) }
func Forbidden(code, msg string) *Error  { return newErr(KindForbidden, code, msg) }
func NotFound(code, msg string) *Error   { return newErr(KindNotFound, code, msg) }
func Conflict(code, msg string) *Error   { return newErr(KindConflict, code, msg) }
func Unavailable(code, msg string) *Error {
	return newErr(KindUnavailable, code, msg)
}

// StateConflict is a Conflict raised by the request lifecycle. Clients have
// always received 400 for it, so the status is pinned.
func StateConflict(code, msg string) *Error {
	e := newErr(KindConflict, code, msg)
	e.status = http.StatusBadRequest
	return e
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// Wrap attaches a cause to e and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// From classifies any error; unknown errors become Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// HTTPStatus is From(err).Status().
func HTTPStatus(err error) int {
	return From(err).Status()
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
