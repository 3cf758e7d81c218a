package client

import (
	"net/http"

	"github.com/google/uuid"
)

// Header names set on outgoing requests.
const (
	RequestIDHeader = "X-Request-Id"
	authHeader      = "Authorization"
	userAgentHeader = "User-Agent"
)

// Accept values for request/response and streaming calls.
const (
	acceptJSON        = "application/json"
	acceptEventStream = "text/event-stream"
)

// setRequestHeaders stamps req with the headers every gateway call carries
// and returns the request ID used for correlation.
func (c *Client) setRequestHeaders(req *http.Request, accept string) string {
	requestID := uuid.NewString()

	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set(userAgentHeader, c.userAgent)
	req.Header.Set("Accept", accept)
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	// The header is only ever sent with a configured token.
	if c.token != "" {
		req.Header.Set(authHeader, "Bearer "+c.token)
	}

	if accept == acceptEventStream {
		req.Header.Set("Cache-Control", "no-cache")
	}

	return requestID
}
