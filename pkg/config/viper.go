package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/igw/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable igw reads, e.g.
// IGW_GATEWAY_URL for gateway.url.
const EnvPrefix = "IGW"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the IGW_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (IGW_GATEWAY_URL, IGW_CLIENT_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file just means defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective configuration from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Gateway: GatewayConfig{
			URL:     v.GetString("gateway.url"),
			Timeout: v.GetString("gateway.timeout"),
		},
		Client: ClientConfig{
			Provider: v.GetString("client.provider"),
			Model:    v.GetString("client.model"),
		},
		Stream: StreamConfig{
			Terminator: v.GetString("stream.terminator"),
			ErrorEvent: v.GetString("stream.error_event"),
			ChunkSize:  v.GetUint("stream.chunk_size"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("gateway.url", d.Gateway.URL)
	v.SetDefault("gateway.timeout", d.Gateway.Timeout)

	v.SetDefault("client.provider", d.Client.Provider)
	v.SetDefault("client.model", d.Client.Model)

	v.SetDefault("stream.terminator", d.Stream.Terminator)
	v.SetDefault("stream.error_event", d.Stream.ErrorEvent)
	v.SetDefault("stream.chunk_size", d.Stream.ChunkSize)
}
