package config

const (
	defaultGatewayURL     = "http://localhost:8080"
	defaultGatewayTimeout = "30s"

	defaultProvider = "ollama"

	defaultTerminator = "[DONE]"
	defaultErrorEvent = "error"
	defaultChunkSize  = 4096
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Gateway: GatewayConfig{
			URL:     defaultGatewayURL,
			Timeout: defaultGatewayTimeout,
		},
		Client: ClientConfig{
			Provider: defaultProvider,
		},
		Stream: StreamConfig{
			Terminator: defaultTerminator,
			ErrorEvent: defaultErrorEvent,
			ChunkSize:  defaultChunkSize,
		},
	}
}
