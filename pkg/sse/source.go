package sse

import (
	"context"
	"io"
	"sync"
)

// DefaultChunkSize is the read buffer size used by NewReaderSource when no
// size is given.
const DefaultChunkSize = 4096

// ChunkSource delivers the raw bytes of a response body one chunk at a time.
//
// NextChunk blocks until bytes are available. It returns io.EOF once the
// body is exhausted; any other error is a transport failure. Close releases
// the underlying transport handle and unblocks a pending NextChunk, as does
// cancelling the context given to NextChunk.
type ChunkSource interface {
	NextChunk(ctx context.Context) ([]byte, error)
	Close() error
}

// readerSource adapts an io.ReadCloser, typically an *http.Response body,
// into a ChunkSource.
type readerSource struct {
	rc  io.ReadCloser
	buf []byte

	// err is a read error deferred until the bytes read alongside it have
	// been handed out.
	err error

	closeOnce sync.Once
	closeErr  error
}

// NewReaderSource returns a ChunkSource reading from rc with a buffer of
// size bytes. Each NextChunk performs at most one Read. Cancelling the
// context of a pending NextChunk closes rc so the blocked Read returns.
func NewReaderSource(rc io.ReadCloser, size int) ChunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &readerSource{
		rc:  rc,
		buf: make([]byte, size),
	}
}

func (s *readerSource) NextChunk(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	for {
		n, err := s.rc.Read(s.buf)
		if n > 0 {
			if err != nil {
				s.err = err
			}
			// The buffer is reused by the next call.
			chunk := make([]byte, n)
			copy(chunk, s.buf[:n])
			return chunk, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// The read was cut short by the close above.
				err = ctxErr
			}
			s.err = err
			return nil, err
		}
		// A (0, nil) read is allowed by io.Reader; try again unless the
		// caller has given up.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (s *readerSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rc.Close()
	})
	return s.closeErr
}
