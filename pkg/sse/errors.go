package sse

import "errors"

var (
	// ErrTransport matches every *TransportError via errors.Is.
	ErrTransport = errors.New("sse: transport failure")

	// ErrDecoderClosed is returned by Next after Close was called before the
	// stream reached a terminal state.
	ErrDecoderClosed = errors.New("sse: decoder closed")
)

// TransportError is the terminal outcome of a stream whose chunk source
// failed. Events yielded before it remain valid.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "sse: transport failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
