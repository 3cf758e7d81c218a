// Package sse provides an incremental Server-Sent Events decoder for the
// streaming responses of the inference gateway.
//
// The decoder consumes arbitrarily chunked bytes from an HTTP response body
// and produces discrete events, one at a time, as each frame is terminated
// by a blank line:
//
// ┌──────────────────┐
// │   ChunkSource    │  NextChunk(ctx) → []byte | io.EOF | error
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │    lineBuffer    │  reassembles newline-terminated lines
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │   frameBuilder   │  accumulates event:, data:, id:, retry: fields
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  Decoder.Next()  │  Event | io.EOF | *TransportError
// └──────────────────┘
//
// Payloads are not interpreted here. Whether an event carries a server-side
// error is decided by the caller from Event.Type.
//
// Wire format: https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "time"

// Event represents a single decoded SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n".
	Data string

	// Type is the SSE event name from the "event:" field.
	// An empty string means the field was not present.
	Type string

	// ID is the last event ID from the "id:" field, if present.
	ID string

	// Retry is the reconnection hint from the "retry:" field in
	// milliseconds. nil when absent or malformed.
	Retry *uint64
}

// RetryAfter returns the retry hint as a duration.
func (e Event) RetryAfter() (time.Duration, bool) {
	if e.Retry == nil {
		return 0, false
	}
	return time.Duration(*e.Retry) * time.Millisecond, true
}
