package llm

// GenerateRequest is the body of POST /llms/{provider}/generate.
type GenerateRequest struct {
	// Model name as known to the provider (e.g., "llama2", "gpt-4o").
	Model string `json:"model"`

	// Conversation history and prompt.
	Messages []Message `json:"messages"`

	// Ask the gateway to stream the response as Server-Sent Events.
	Stream bool `json:"stream,omitempty"`
}
