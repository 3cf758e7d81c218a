package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors matched by errors.Is against an *APIError.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrInternal         = errors.New("internal server error")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "unauthorized: " + e.Message
	case http.StatusBadRequest:
		return "bad request: " + e.Message
	case http.StatusInternalServerError:
		return "internal server error: " + e.Message
	default:
		if e.Message == "" {
			return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
		}
		return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Message)
	}
}

// Is maps the status code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrInternal:
		return e.StatusCode == http.StatusInternalServerError
	case ErrUnexpectedStatus:
		switch e.StatusCode {
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusInternalServerError:
			return false
		}
		return true
	}
	return false
}

// errorResponse is the gateway's error body.
type errorResponse struct {
	Error string `json:"error"`
}

// newAPIError builds an APIError from resp, consuming its body.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		apiErr.Message = er.Error
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
