package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/igw/pkg/llm"
	"github.com/papercomputeco/igw/pkg/sse"
)

// Stream is an open streaming generation. It is bound to one response body
// and is not safe for concurrent use. Close it when done, or cancel the
// context given to GenerateContentStream, which governs every later Next,
// All, Chunks and Collect call.
type Stream struct {
	// RequestID is the X-Request-Id sent with the request.
	RequestID string

	dec        *sse.Decoder
	ctx        context.Context
	cancel     context.CancelFunc
	errorEvent string
	metrics    *Metrics
	finished   bool
}

// GenerateContentStream opens a streaming generation against provider. A
// non-2xx status is returned as an *APIError before any event is decoded.
func (c *Client) GenerateContentStream(ctx context.Context, provider llm.Provider, model string, messages []llm.Message) (*Stream, error) {
	body := llm.GenerateRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}

	ctx, cancel := context.WithCancel(ctx)

	route := providerPath(provider) + "/generate"
	req, err := c.newRequest(ctx, http.MethodPost, route, body)
	if err != nil {
		cancel()
		return nil, err
	}

	// The timeout only covers the wait for headers; the stream itself may
	// legitimately run for much longer.
	var headerTimer *time.Timer
	if c.timeout > 0 {
		headerTimer = time.AfterFunc(c.timeout, cancel)
	}

	resp, requestID, err := c.send(req, route, acceptEventStream)
	if headerTimer != nil && !headerTimer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		err = fmt.Errorf("waiting for stream headers: %w", context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		apiErr := newAPIError(resp)
		resp.Body.Close()
		cancel()
		return nil, apiErr
	}

	if ct := resp.Header.Get("Content-Type"); !isEventStream(ct) {
		c.logger.Debug("stream response has unexpected content type",
			zap.String("request_id", requestID),
			zap.String("content_type", ct),
		)
	}

	dec := sse.NewDecoder(
		sse.NewReaderSource(resp.Body, c.chunkSize),
		sse.WithTerminator(c.terminator),
		sse.WithLogger(c.logger.With(zap.String("request_id", requestID))),
	)

	return &Stream{
		RequestID:  requestID,
		dec:        dec,
		ctx:        ctx,
		cancel:     cancel,
		errorEvent: c.errorEvent,
		metrics:    c.metrics,
	}, nil
}

// Next returns the next event. io.EOF marks the end of the stream and a
// *sse.TransportError a broken connection. Next blocks until an event
// arrives or the context given to GenerateContentStream is done.
func (s *Stream) Next() (sse.Event, error) {
	ev, err := s.dec.Next(s.ctx)
	if err == nil {
		s.metrics.observeEvent()
	} else {
		s.finish(streamOutcome(err))
	}
	return ev, err
}

// All ranges over the remaining events. The end of the stream is not
// yielded; any other error is yielded once, last. Breaking out of the loop
// closes the stream.
func (s *Stream) All() iter.Seq2[sse.Event, error] {
	return func(yield func(sse.Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(sse.Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Chunks ranges over the decoded content of each event. An event named
// after the configured error event ends the sequence with an
// *llm.StreamError.
func (s *Stream) Chunks() iter.Seq2[*llm.StreamChunk, error] {
	return func(yield func(*llm.StreamChunk, error) bool) {
		for ev, err := range s.All() {
			if err != nil {
				yield(nil, err)
				return
			}
			if s.IsErrorEvent(ev) {
				s.finish(OutcomeError)
				yield(nil, llm.ParseStreamError(ev.Data))
				return
			}

			chunk, err := llm.ParseStreamChunk(ev.Data)
			if errors.Is(err, llm.ErrEmptyChunk) {
				continue
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// Collect reads the stream to the end and returns the concatenated
// content. On failure the content received so far is returned with the
// error.
func (s *Stream) Collect() (string, error) {
	var sb strings.Builder
	for chunk, err := range s.Chunks() {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String(), nil
}

// IsErrorEvent reports whether ev is a server-signaled error.
func (s *Stream) IsErrorEvent(ev sse.Event) bool {
	return s.errorEvent != "" && ev.Type == s.errorEvent
}

// State returns the decoder state.
func (s *Stream) State() sse.State {
	return s.dec.State()
}

// Close releases the connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.finish(OutcomeClosed)
	err := s.dec.Close()
	s.cancel()
	return err
}

// finish records the stream outcome once.
func (s *Stream) finish(outcome string) {
	if s.finished {
		return
	}
	s.finished = true
	s.metrics.observeStream(outcome)
}

func isEventStream(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == acceptEventStream
}
