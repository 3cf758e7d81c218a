package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Provider names an upstream LLM provider behind the gateway.
type Provider string

// Supported provider constants. The gateway routes on the lowercase name.
const (
	ProviderOllama     Provider = "ollama"
	ProviderGroq       Provider = "groq"
	ProviderOpenAI     Provider = "openai"
	ProviderGoogle     Provider = "google"
	ProviderCloudflare Provider = "cloudflare"
	ProviderCohere     Provider = "cohere"
	ProviderAnthropic  Provider = "anthropic"
)

// SupportedProviders returns the list of all supported provider names.
func SupportedProviders() []Provider {
	return []Provider{
		ProviderOllama,
		ProviderGroq,
		ProviderOpenAI,
		ProviderGoogle,
		ProviderCloudflare,
		ProviderCohere,
		ProviderAnthropic,
	}
}

// ParseProvider returns the Provider named by s. Matching ignores case and
// surrounding whitespace.
func ParseProvider(s string) (Provider, error) {
	name := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range SupportedProviders() {
		if p == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %q (supported: %v)", s, SupportedProviders())
}

func (p Provider) String() string {
	return string(p)
}

// UnmarshalJSON rejects provider names the client does not know about.
func (p *Provider) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding provider: %w", err)
	}
	parsed, err := ParseProvider(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
