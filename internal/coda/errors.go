package coda

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported by the Coda API. *APIError unwraps to one of these
// when its status has a dedicated meaning.
var (
	ErrRateLimited  = errors.New("coda: rate limited by Coda API")
	ErrUnauthorized = errors.New("coda: unauthorized (check CODA_API_TOKEN)")
	ErrForbidden    = errors.New("coda: forbidden")
	ErrNotFound     = errors.New("coda: not found")
)

// APIError is a non-2xx response from the Coda API or a download host.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == http.StatusTooManyRequests {
		return fmt.Sprintf("coda: %s %s: rate limited by Coda API", e.Method, e.Path)
	}
	if kind := e.Unwrap(); kind != nil {
		return fmt.Sprintf("%s: %s %s: API error %d: %s", kind, e.Method, e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("coda: %s %s: API error %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap maps the status to its error kind so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// RequestError is a failure to reach the API at all: DNS, connect, TLS,
// timeout or a canceled context.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("coda: %s %s: request failed: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("coda: %s: JSON parse error: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
