package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch cycle produced no data.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindCanceled    ErrorKind = "canceled"
	KindStatus      ErrorKind = "status"
	KindDecode      ErrorKind = "decode"
	KindShape       ErrorKind = "shape"
	KindCircuitOpen ErrorKind = "circuit_open"
)

// FetchError is the only error returned by Client.Fetch.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchKind reports the error kind as a metrics label.
func (e *FetchError) FetchKind() string {
	return string(e.Kind)
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNotArray      = errors.New("response body is not a JSON array")
)

// statusError keeps the response code of a rejected response.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return fmt.Sprintf("%v: %d", e.err, e.code) }
func (e *statusError) Unwrap() error { return e.err }

// classify wraps a transport-level error into a FetchError.
func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	var se *statusError
	switch {
	case errors.As(err, &se):
		return &FetchError{Kind: KindStatus, StatusCode: se.code, Err: err}
	case errors.Is(err, errCircuitOpen):
		return &FetchError{Kind: KindCircuitOpen, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &FetchError{Kind: KindCanceled, Err: err}
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			return &FetchError{Kind: KindTimeout, Err: err}
		}
		return &FetchError{Kind: KindNetwork, Err: err}
	}
}
