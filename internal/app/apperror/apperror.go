// Package apperror carries the structured client errors the HTTP boundary renders.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type tags who is expected to act on an error.
type Type string

const (
	User    Type = "User"
	Client  Type = "Client"
	Service Type = "Service"
)

// Error is rendered as {"errorCode", "errorType", "message"}. Code doubles as
// the HTTP status when it is one.
type Error struct {
	Code    int    `json:"errorCode"`
	Type    Type   `json:"errorType"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// New returns a structured error without a cause.
func New(code int, t Type, message string) *Error {
	return &Error{Code: code, Type: t, Message: message}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error %d: %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error %d: %s: %v", e.Type, e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	out := *e
	out.Err = err
	return &out
}

// Status is the HTTP status the error is served with.
func (e *Error) Status() int {
	if e.Code >= 400 && e.Code < 600 {
		return e.Code
	}
	return http.StatusBadRequest
}

// As extracts the structured error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func NotFound() *Error {
	return New(http.StatusNotFound, Client, "The requested URI was not found.")
}

func Invalid(message string) *Error {
	return New(http.StatusBadRequest, User, message)
}

func SlugTaken(slug string) *Error {
	return New(http.StatusConflict, User, fmt.Sprintf("The slug %q is already in use.", slug))
}

// Internal is the body served for failures nobody classified.
type Internal struct {
	Code    string `json:"errorCode"`
	Type    Type   `json:"errorType"`
	Message string `json:"message"`
}

// InternalBody returns the generic internal-error response body.
func InternalBody() Internal {
	return Internal{Code: "INTERNAL_ERROR", Type: Service, Message: "Something went wrong."}
}
