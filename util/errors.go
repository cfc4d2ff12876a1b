package util

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidToken
	KindUpstream
	KindRateLimited
)

// ErrRecordNotFound is returned by the stores when a lookup matches nothing.
var ErrRecordNotFound = errors.New("record not found")

// AppError is the error every service returns for failures a caller can act on.
// Status carries the staff account status for the "access denied" cases.
type AppError struct {
	Kind    ErrorKind
	Message string
	Status  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewAuthError(msg string) *AppError {
	return &AppError{Kind: KindAuth, Message: msg}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewForbiddenError(msg, status string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg, Status: status}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewInvalidTokenError(msg string) *AppError {
	return &AppError{Kind: KindInvalidToken, Message: msg}
}

func NewRateLimitedError(msg string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: msg}
}

func NewUpstreamError(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: msg, Err: err}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidToken:
		return http.StatusBadRequest
	case KindAuth, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
