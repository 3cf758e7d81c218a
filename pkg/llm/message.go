// Package llm defines the wire model of the inference gateway API.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageRole is the author of a message in a conversation.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ParseMessageRole returns the role named by s, ignoring case.
func ParseMessageRole(s string) (MessageRole, error) {
	switch r := MessageRole(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown message role: %q", s)
	}
}

func (r MessageRole) String() string {
	return string(r)
}

// UnmarshalJSON rejects roles other than system, user and assistant.
func (r *MessageRole) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding message role: %w", err)
	}
	parsed, err := ParseMessageRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Message represents a single message in a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role MessageRole, content string) Message {
	return Message{Role: role, Content: content}
}
