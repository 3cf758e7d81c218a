package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request. An empty token
// sends no Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request/response call. For streaming calls it
// bounds the wait for response headers only, never the stream itself.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for request lifecycle and decoder output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records requests and stream outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTerminator sets the data value that ends a stream on purpose.
// Pass "" to disable terminator detection.
func WithTerminator(terminator string) Option {
	return func(c *Client) {
		c.terminator = terminator
	}
}

// WithErrorEvent sets the event name the gateway uses for in-stream errors.
func WithErrorEvent(name string) Option {
	return func(c *Client) {
		c.errorEvent = name
	}
}

// WithChunkSize sets the read buffer size for streamed bodies.
func WithChunkSize(size int) Option {
	return func(c *Client) {
		c.chunkSize = size
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
