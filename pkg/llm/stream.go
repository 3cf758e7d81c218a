package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrEmptyChunk is returned by ParseStreamChunk for blank payloads.
var ErrEmptyChunk = errors.New("empty stream chunk")

// StreamChunk is the incremental content carried by one streamed event.
type StreamChunk struct {
	Role    MessageRole `json:"role,omitempty"`
	Model   string      `json:"model,omitempty"`
	Content string      `json:"content"`
}

// StreamError is a server-reported failure carried inside a stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// ParseStreamChunk decodes the data of a streamed event.
//
// Gateways put one of three shapes in a data line: a flat chunk, a chunk
// wrapped like GenerateResponse, or an OpenAI style choices delta. A payload
// holding only an error yields a *StreamError. Anything that is not a JSON
// object is returned verbatim as Content so plain-text gateways keep working.
func ParseStreamChunk(data string) (*StreamChunk, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, ErrEmptyChunk
	}
	if !strings.HasPrefix(trimmed, "{") {
		return &StreamChunk{Content: data}, nil
	}
	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("decoding stream chunk: invalid JSON %q", trimmed)
	}

	doc := gjson.Parse(trimmed)
	content := doc.Get("content")
	response := doc.Get("response")
	delta := doc.Get("choices.0.delta")

	if msg := errorMessage(doc); msg != "" && !content.Exists() && !response.Exists() && !delta.Exists() {
		return nil, &StreamError{Message: msg}
	}

	chunk := &StreamChunk{Model: doc.Get("model").String()}
	switch {
	case response.IsObject():
		chunk.Role = MessageRole(response.Get("role").String())
		chunk.Content = response.Get("content").String()
		if m := response.Get("model").String(); m != "" {
			chunk.Model = m
		}
	case delta.Exists():
		chunk.Role = MessageRole(delta.Get("role").String())
		chunk.Content = delta.Get("content").String()
	default:
		chunk.Role = MessageRole(doc.Get("role").String())
		chunk.Content = content.String()
	}
	return chunk, nil
}

// ParseStreamError extracts the message from an error event's data. When
// the data is not a JSON object carrying an error it is used as-is.
func ParseStreamError(data string) *StreamError {
	trimmed := strings.TrimSpace(data)
	if gjson.Valid(trimmed) {
		doc := gjson.Parse(trimmed)
		if msg := errorMessage(doc); msg != "" {
			return &StreamError{Message: msg}
		}
		if msg := doc.Get("message").String(); msg != "" {
			return &StreamError{Message: msg}
		}
	}
	return &StreamError{Message: trimmed}
}

// errorMessage reads "error" as a string or as an object with a message.
func errorMessage(doc gjson.Result) string {
	e := doc.Get("error")
	if e.IsObject() {
		return e.Get("message").String()
	}
	if e.Type == gjson.String {
		return e.String()
	}
	return ""
}
