// Package client is an HTTP client for the inference gateway API.
//
// Request/response calls return decoded values or an *APIError. Streaming
// generation returns a *Stream that decodes the Server-Sent Events body
// incrementally through pkg/sse.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/igw/pkg/llm"
	"github.com/papercomputeco/igw/pkg/sse"
	"github.com/papercomputeco/igw/pkg/utils"
)

const (
	// DefaultTerminator is the data value the gateway sends to close a stream.
	DefaultTerminator = "[DONE]"

	// DefaultErrorEvent is the event name the gateway uses for in-stream errors.
	DefaultErrorEvent = "error"
)

// Client talks to one inference gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *Metrics
	userAgent  string

	terminator string
	errorEvent string
	chunkSize  int
}

// New creates a Client for the gateway at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		userAgent:  utils.UserAgent(),
		terminator: DefaultTerminator,
		errorEvent: DefaultErrorEvent,
		chunkSize:  sse.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the gateway URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListModels returns the models of every provider. GET /llms
func (c *Client) ListModels(ctx context.Context) ([]llm.ProviderModels, error) {
	var models []llm.ProviderModels
	if err := c.doJSON(ctx, http.MethodGet, "/llms", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// ListModelsByProvider returns the models of one provider. GET /llms/{provider}
func (c *Client) ListModelsByProvider(ctx context.Context, provider llm.Provider) (*llm.ProviderModels, error) {
	var models llm.ProviderModels
	if err := c.doJSON(ctx, http.MethodGet, providerPath(provider), nil, &models); err != nil {
		return nil, err
	}
	return &models, nil
}

// GenerateContent asks provider to complete the conversation in a single
// response. POST /llms/{provider}/generate
func (c *Client) GenerateContent(ctx context.Context, provider llm.Provider, model string, messages []llm.Message) (*llm.GenerateResponse, error) {
	body := llm.GenerateRequest{
		Model:    model,
		Messages: messages,
	}

	var resp llm.GenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, providerPath(provider)+"/generate", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthCheck reports whether the gateway answers GET /health with a 2xx
// status. A transport failure is returned as an error.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, _, err := c.send(req, "/health", acceptJSON)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return isSuccess(resp.StatusCode), nil
}

// doJSON performs a request/response call, decoding a 2xx body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, requestID, err := c.send(req, path, acceptJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		apiErr := newAPIError(resp)
		c.logger.Debug("gateway returned error",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return req, nil
}

// send stamps headers and performs req, logging and measuring the round
// trip under route.
func (c *Client) send(req *http.Request, route, accept string) (*http.Response, string, error) {
	requestID := c.setRequestHeaders(req, accept)

	c.logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	took := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.observeRequest(route, req.Method, status, err, took)

	if err != nil {
		c.logger.Debug("request failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, requestID, fmt.Errorf("sending request: %w", err)
	}

	c.logger.Debug("received response",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", took),
	)
	return resp, requestID, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func providerPath(p llm.Provider) string {
	return "/llms/" + url.PathEscape(string(p))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
