package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates a network-level failure before a response body
	// could be read.
	ErrTransport = errors.New("provider transport failure")

	// ErrTimeout indicates the per-call deadline elapsed.
	ErrTimeout = errors.New("provider call timed out")

	// ErrDecode indicates the response matched neither the success schema
	// nor the structured error schema.
	ErrDecode = errors.New("undecodable provider response")
)

// APIError is a structured error payload returned by the provider in place
// of a success response, e.g. {"code": 50035}.
type APIError struct {
	Code int `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error code %d", e.Code)
}
