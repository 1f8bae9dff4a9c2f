// Package apperr defines the failure taxonomy shared by the service and
// handler layers. Services return *Error values; handlers map the kind
// to an HTTP status and a structured body.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyExists
	KindConflict
	KindBadCode
	KindCodeExpired
	KindNotVerified
	KindInvalidCredentials
	KindUnauthorized
	KindForbidden
	KindTokenInvalid
	KindTokenExpired
	KindRateLimited
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match two apperr values by kind, so callers can
// compare against a template like apperr.New(apperr.KindNotFound, "").
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WithFields(kind Kind, message string, fields map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

// KindOf extracts the kind from any error, defaulting to KindInternal
// for errors that did not originate in this taxonomy.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindConflict:
		return http.StatusConflict
	case KindBadCode, KindCodeExpired, KindNotVerified:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized, KindTokenInvalid, KindTokenExpired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
