package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the backend could not be reached or did not
	// answer in time.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrStatus indicates the backend answered with a non-2xx status.
	ErrStatus = errors.New("backend error status")
)

// StatusError carries the status code and server message of a failed call.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}
