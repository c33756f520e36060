package events

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable failure class of a workflow step.
type Code string

const (
	CodeUnauthenticated  Code = "unauthenticated"
	CodeInvalidInput     Code = "invalid-input"
	CodeNoOrganization   Code = "no-organization"
	CodeInvalidOwner     Code = "invalid-owner"
	CodePayoutRequired   Code = "payout-required"
	CodePayoutUnverified Code = "payout-unverified"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not-found"
	CodeUnavailable      Code = "unavailable"
	CodeStoreFailure     Code = "store-failure"
)

// Error is a workflow failure. Err carries the underlying cause, if any.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

func storeFailure(msg string, err error) *Error {
	return &Error{Code: CodeStoreFailure, Msg: msg, Err: err}
}

// CodeOf returns the code of err, CodeStoreFailure when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStoreFailure
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeInvalidInput, CodeNoOrganization, CodeInvalidOwner, CodePayoutRequired, CodePayoutUnverified:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
