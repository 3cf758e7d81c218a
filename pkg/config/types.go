package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/papercomputeco/igw/pkg/llm"
)

// Config represents the persistent igw configuration stored as config.toml
// in the .igw/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Gateway GatewayConfig `toml:"gateway"`
	Client  ClientConfig  `toml:"client"`
	Stream  StreamConfig  `toml:"stream"`
}

// GatewayConfig locates the inference gateway.
type GatewayConfig struct {
	URL string `toml:"url,omitempty"`

	// Timeout is a Go duration string (e.g. "30s"). For streaming calls it
	// only bounds the wait for response headers.
	Timeout string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (g GatewayConfig) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid gateway timeout: %w", err)
	}
	return d, nil
}

// ClientConfig holds the provider and model used when a command does not
// name them explicitly.
type ClientConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// StreamConfig holds the protocol details of the gateway's event streams.
type StreamConfig struct {
	Terminator string `toml:"terminator,omitempty"`
	ErrorEvent string `toml:"error_event,omitempty"`
	ChunkSize  uint   `toml:"chunk_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"gateway.url": {
		get: func(c *Config) string { return c.Gateway.URL },
		set: func(c *Config, v string) error { c.Gateway.URL = v; return nil },
	},
	"gateway.timeout": {
		get: func(c *Config) string { return c.Gateway.Timeout },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, err := time.ParseDuration(v); err != nil {
					return fmt.Errorf("invalid value for gateway.timeout: %w", err)
				}
			}
			c.Gateway.Timeout = v
			return nil
		},
	},
	"client.provider": {
		get: func(c *Config) string { return c.Client.Provider },
		set: func(c *Config, v string) error {
			p, err := llm.ParseProvider(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.provider: %w", err)
			}
			c.Client.Provider = p.String()
			return nil
		},
	},
	"client.model": {
		get: func(c *Config) string { return c.Client.Model },
		set: func(c *Config, v string) error { c.Client.Model = v; return nil },
	},
	"stream.terminator": {
		get: func(c *Config) string { return c.Stream.Terminator },
		set: func(c *Config, v string) error { c.Stream.Terminator = v; return nil },
	},
	"stream.error_event": {
		get: func(c *Config) string { return c.Stream.ErrorEvent },
		set: func(c *Config, v string) error { c.Stream.ErrorEvent = v; return nil },
	},
	"stream.chunk_size": {
		get: func(c *Config) string {
			if c.Stream.ChunkSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Stream.ChunkSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value for stream.chunk_size: %w", err)
			}
			c.Stream.ChunkSize = uint(n)
			return nil
		},
	},
}
