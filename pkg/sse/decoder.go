package sse

import (
	"context"
	"errors"
	"io"
	"iter"

	"go.uber.org/zap"
)

// State indicates the lifecycle position of a Decoder.
type State int

const (
	StateIdle      State = iota // Next has not pulled a chunk yet.
	StateStreaming              // Chunks are being read and decoded.
	StateCompleted              // End of body or terminator; Next returns io.EOF.
	StateFailed                 // The chunk source failed; Next returns *TransportError.
	StateClosed                 // Close or cancellation before a terminal state.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithTerminator sets the data value the server sends to end a stream on
// purpose (for example "[DONE]"). A frame whose data equals it exactly ends
// the stream without being yielded. An empty terminator disables the check.
func WithTerminator(terminator string) Option {
	return func(d *Decoder) {
		d.terminator = terminator
	}
}

// WithLogger sets the logger used for debug output about recovered input.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder drives a ChunkSource and yields decoded events one at a time.
//
// A Decoder is bound to a single response body and is not safe for
// concurrent use. To abort a blocked read, cancel the context passed to Next;
// a ChunkSource must return from NextChunk once that context is done.
type Decoder struct {
	src        ChunkSource
	terminator string
	logger     *zap.Logger

	lines lineBuffer
	frame frameBuilder

	// queue holds events decoded from the current chunk but not yet returned.
	queue []Event

	state     State
	err       error
	srcClosed bool
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src ChunkSource, opts ...Option) *Decoder {
	d := &Decoder{
		src:    src,
		logger: zap.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next decoded event.
//
// It returns io.EOF once the body ends or the terminator is seen, and a
// *TransportError when the chunk source fails. Events decoded before either
// outcome are always returned first. If ctx is cancelled the source is
// closed, any partial frame is dropped and ctx.Err() is returned.
func (d *Decoder) Next(ctx context.Context) (Event, error) {
	for {
		if d.state == StateClosed {
			if d.err != nil {
				return Event{}, d.err
			}
			return Event{}, ErrDecoderClosed
		}

		if d.state == StateIdle || d.state == StateStreaming {
			if err := ctx.Err(); err != nil {
				d.abort(err)
				return Event{}, err
			}
		}

		if len(d.queue) > 0 {
			ev := d.queue[0]
			d.queue = d.queue[1:]
			return ev, nil
		}

		switch d.state {
		case StateCompleted:
			return Event{}, io.EOF
		case StateFailed:
			return Event{}, d.err
		}

		d.state = StateStreaming
		chunk, err := d.src.NextChunk(ctx)
		if len(chunk) > 0 {
			d.process(chunk)
		}
		if d.state == StateCompleted || err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			d.drain()
		case ctx.Err() != nil:
			d.abort(ctx.Err())
			return Event{}, d.err
		default:
			d.fail(err)
		}
	}
}

// All returns the remaining events as a single-pass sequence. Breaking out
// of the loop closes the decoder and its source. A transport failure is
// yielded once as the final element; normal completion ends the sequence.
func (d *Decoder) All(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer d.Close()
		for {
			ev, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// State returns the current decoder state.
func (d *Decoder) State() State {
	return d.state
}

// Close releases the chunk source. Calling Close before a terminal state
// moves the decoder to StateClosed and discards any partial frame.
func (d *Decoder) Close() error {
	if d.state != StateCompleted && d.state != StateFailed {
		d.state = StateClosed
		d.queue = nil
		d.lines.reset()
		d.frame.reset()
	}
	return d.closeSource()
}

// process feeds one chunk through the line buffer and frame builder,
// queueing completed events. Lines after the terminator are not examined.
func (d *Decoder) process(chunk []byte) {
	for _, line := range d.lines.feed(chunk) {
		ev, ok := d.frame.accept(line)
		if d.frame.droppedRetry != "" {
			d.logger.Debug("dropping malformed retry field",
				zap.String("value", d.frame.droppedRetry),
			)
			d.frame.droppedRetry = ""
		}
		if !ok {
			continue
		}

		if d.terminator != "" && ev.Data == d.terminator {
			d.logger.Debug("stream terminator received",
				zap.Int("queued_events", len(d.queue)),
			)
			d.complete()
			return
		}

		d.queue = append(d.queue, ev)
	}
}

// drain handles a normal end of body. Partial frames are never emitted.
func (d *Decoder) drain() {
	if n := d.lines.buffered(); n > 0 || d.frame.open() {
		d.logger.Debug("discarding unterminated trailing frame",
			zap.Int("pending_bytes", n),
		)
	}
	d.complete()
}

func (d *Decoder) complete() {
	d.state = StateCompleted
	d.lines.reset()
	d.frame.reset()
	if err := d.closeSource(); err != nil {
		d.logger.Debug("closing chunk source", zap.Error(err))
	}
}

func (d *Decoder) fail(err error) {
	d.logger.Debug("chunk source failed", zap.Error(err))
	d.state = StateFailed
	d.err = &TransportError{Err: err}
	d.lines.reset()
	d.frame.reset()
	_ = d.closeSource()
}

func (d *Decoder) abort(err error) {
	d.state = StateClosed
	d.err = err
	d.queue = nil
	d.lines.reset()
	d.frame.reset()
	_ = d.closeSource()
}

func (d *Decoder) closeSource() error {
	if d.srcClosed {
		return nil
	}
	d.srcClosed = true
	return d.src.Close()
}
