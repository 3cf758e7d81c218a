package llm

import "time"

// Conversation is a chat transcript against one provider and model. The
// chat command persists it so a session can be resumed.
type Conversation struct {
	Provider  Provider  `json:"provider"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Append adds messages and stamps the conversation.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
	c.UpdatedAt = time.Now().UTC()
}

// Reset drops all messages except a leading system prompt.
func (c *Conversation) Reset() {
	if len(c.Messages) > 0 && c.Messages[0].Role == RoleSystem {
		c.Messages = c.Messages[:1]
	} else {
		c.Messages = nil
	}
	c.UpdatedAt = time.Now().UTC()
}
