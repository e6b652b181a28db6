package advisor

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned by SmartSearch for a blank query. The
	// service is not called.
	ErrEmptyQuery = errors.New("advisor: empty query")
	// ErrTransport marks failures of the service call itself.
	ErrTransport = errors.New("advisor: service call failed")
	// ErrMalformedResponse marks responses that are empty, not JSON, or do
	// not match the requested schema.
	ErrMalformedResponse = errors.New("advisor: malformed response")
)

// GatewayError records which advisory operation failed.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("advisor: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func transportErr(op string, err error) error {
	return &GatewayError{Op: op, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

func malformedErr(op string, err error) error {
	return &GatewayError{Op: op, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
}
