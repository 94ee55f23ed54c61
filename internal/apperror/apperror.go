// Package apperror defines the error taxonomy shared by the service layer and
// the HTTP boundary. Every domain failure carries exactly one Kind; the Kind is
// translated to a status code in one place (StatusCode).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	BadRequest
	Unauthenticated
	Unauthorized
	Forbidden
	NotFound
	Conflict
	ServiceUnavailable
)

var kindNames = map[Kind]string{
	Internal:           "internal_error",
	BadRequest:         "bad_request",
	Unauthenticated:    "unauthenticated",
	Unauthorized:       "unauthorized",
	Forbidden:          "forbidden",
	NotFound:           "not_found",
	Conflict:           "conflict",
	ServiceUnavailable: "service_unavailable",
}

var statusByKind = map[Kind]int{
	Internal:           http.StatusInternalServerError,
	BadRequest:         http.StatusBadRequest,
	Unauthenticated:    http.StatusUnauthorized,
	Unauthorized:       http.StatusUnauthorized,
	Forbidden:          http.StatusForbidden,
	NotFound:           http.StatusNotFound,
	Conflict:           http.StatusConflict,
	ServiceUnavailable: http.StatusServiceUnavailable,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Internal]
}

// StatusCode returns the HTTP status for k.
func (k Kind) StatusCode() int {
	if code, ok := statusByKind[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewBadRequest(message string, err error) *Error {
	return New(BadRequest, message, err)
}

func NewUnauthenticated(message string) *Error {
	return New(Unauthenticated, message, nil)
}

func NewUnauthorized(message string, err error) *Error {
	return New(Unauthorized, message, err)
}

func NewForbidden(message string) *Error {
	return New(Forbidden, message, nil)
}

func NewNotFound(message string, err error) *Error {
	return New(NotFound, message, err)
}

func NewConflict(message string, err error) *Error {
	return New(Conflict, message, err)
}

func NewServiceUnavailable(message string, err error) *Error {
	return New(ServiceUnavailable, message, err)
}

func NewInternal(message string, err error) *Error {
	return New(Internal, message, err)
}

// KindOf returns the Kind of err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Response is the JSON body written for failed requests.
type Response struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToResponse converts err into a response body. Internal details of
// unclassified errors are not exposed.
func ToResponse(err error) Response {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return Response{
			Status:  http.StatusInternalServerError,
			Error:   Internal.String(),
			Message: "Something went wrong",
		}
	}
	msg := appErr.Message
	if appErr.Kind == Internal {
		msg = "Something went wrong"
	}
	return Response{
		Status:  appErr.Kind.StatusCode(),
		Error:   appErr.Kind.String(),
		Message: msg,
	}
}
