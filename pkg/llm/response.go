package llm

// Model is a model exposed by a provider.
type Model struct {
	Name string `json:"name"`
}

// ProviderModels lists the models available from one provider.
type ProviderModels struct {
	Provider Provider `json:"provider"`
	Models   []Model  `json:"models"`
}

// GenerateResponse is the body returned by a non-streaming generate call.
type GenerateResponse struct {
	Provider Provider        `json:"provider"`
	Response ResponseContent `json:"response"`
}

// ResponseContent is the generated message.
type ResponseContent struct {
	Role    MessageRole `json:"role"`
	Model   string      `json:"model"`
	Content string      `json:"content"`
}

// Message converts the response into a conversation message.
func (r ResponseContent) Message() Message {
	role := r.Role
	if role == "" {
		role = RoleAssistant
	}
	return NewMessage(role, r.Content)
}
