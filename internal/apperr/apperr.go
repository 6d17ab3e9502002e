package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Error is the uniform shape every request failure is reduced to before a
// response is written. Operational errors are expected, caller-facing
// conditions whose message is safe to show; anything else is treated as a
// programming or third-party failure and sanitized in production.
type Error struct {
	Message     string
	Code        int
	Status      string // "fail" for 4xx, "error" otherwise
	Operational bool
	Err         error
	Stack       string
}

// New creates an operational error with the given message and HTTP status code.
func New(message string, code int) *Error {
	return &Error{
		Message:     message,
		Code:        code,
		Status:      statusFor(code),
		Operational: true,
		Stack:       string(debug.Stack()),
	}
}

// Wrap creates an operational error that keeps its cause for logging.
func Wrap(err error, message string, code int) *Error {
	e := New(message, code)
	e.Err = err
	return e
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func statusFor(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

// Tagged variants below form the closed set of failure shapes the persistence
// and auth collaborators may hand to Normalize. Repositories construct these
// instead of letting raw driver errors escape.

// CastError reports an identifier that could not be parsed into its target
// type, e.g. a malformed UUID in a path parameter.
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %q for field %s", e.Value, e.Field)
}

// DuplicateError reports a unique-constraint violation. Detail carries the
// database's message, from which the offending value is extracted.
type DuplicateError struct {
	Detail string
}

func (e *DuplicateError) Error() string {
	return "duplicate key: " + e.Detail
}

// ValidationError aggregates field-level validation messages for one request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, ". ")
}

// quotedValue matches the first single- or double-quoted substring of a
// database error detail.
var quotedValue = regexp.MustCompile(`"[^"]*"|'[^']*'`)

// Normalize reduces any error to an *Error. Recognized variants become
// operational errors with caller-safe messages; everything else passes
// through as a non-operational internal error.
func Normalize(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return Wrap(err, fmt.Sprintf("Invalid %s: %s.", castErr.Field, castErr.Value), http.StatusBadRequest)
	}

	var dupErr *DuplicateError
	if errors.As(err, &dupErr) {
		// The quoted-value extraction is best effort; a changed database
		// message format falls back to the generic duplicate message.
		if value := quotedValue.FindString(dupErr.Detail); value != "" {
			return Wrap(err, fmt.Sprintf("Duplicate field value: %s. Please use another value!", value), http.StatusBadRequest)
		}
		return Wrap(err, "Duplicate field value. Please use another value!", http.StatusBadRequest)
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return Wrap(err, "Invalid input data. "+strings.Join(valErr.Messages, ". "), http.StatusBadRequest)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return Wrap(err, "Your token has expired! Please log in again.", http.StatusUnauthorized)
	}
	if errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return Wrap(err, "Invalid token. Please log in again!", http.StatusUnauthorized)
	}

	return &Error{
		Message:     err.Error(),
		Code:        http.StatusInternalServerError,
		Status:      "error",
		Operational: false,
		Err:         err,
		Stack:       string(debug.Stack()),
	}
}
