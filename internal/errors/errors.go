// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBadRequest is returned when a request payload cannot be accepted.
type ErrBadRequest struct {
	Reason string
	Err    error
}

func (e *ErrBadRequest) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad request: %s: %v", e.Reason, e.Err)
	}
	return "bad request: " + e.Reason
}

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// Helper constructor
func NewBadRequest(reason string, err error) error {
	return &ErrBadRequest{Reason: reason, Err: err}
}

// ErrCanceled is returned when the host gave up on a request before it was read.
type ErrCanceled struct {
	Err error
}

func (e *ErrCanceled) Error() string {
	return fmt.Sprintf("request canceled: %v", e.Err)
}

func (e *ErrCanceled) Unwrap() error { return e.Err }

func NewCanceled(err error) error {
	return &ErrCanceled{Err: err}
}

// ErrForward wraps a failure to hand customer details to the downstream queue.
type ErrForward struct {
	Topic string
	Err   error
}

func (e *ErrForward) Error() string {
	return fmt.Sprintf("forward to %s: %v", e.Topic, e.Err)
}

func (e *ErrForward) Unwrap() error { return e.Err }

func NewForward(topic string, err error) error {
	return &ErrForward{Topic: topic, Err: err}
}

// StatusCode maps an error onto the HTTP status the router answers with.
func StatusCode(err error) int {
	var (
		badRequest *ErrBadRequest
		canceled   *ErrCanceled
		forward    *ErrForward
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &canceled):
		return http.StatusRequestTimeout
	case errors.As(err, &forward):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
