// Package gwclient resolves the effective gateway settings of a command
// invocation and builds the client from them.
package gwclient

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/igw/pkg/client"
	"github.com/papercomputeco/igw/pkg/config"
	"github.com/papercomputeco/igw/pkg/credentials"
	"github.com/papercomputeco/igw/pkg/llm"
)

// ErrNoModel is returned by Model when no model is configured.
var ErrNoModel = errors.New("no model configured: pass --model or run 'igw config set client.model <model>'")

// Settings is the effective configuration for one command run.
type Settings struct {
	Config    *config.Config
	Token     string
	Debug     bool
	ConfigDir string
}

// Resolve binds the root flags plus registryKeys to viper and returns the
// merged settings (flag > env > config file > default). The bearer token
// comes from --token, then IGW_TOKEN, then the credentials store.
func Resolve(cmd *cobra.Command, registryKeys ...string) (*Settings, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	keys := append([]string{config.FlagURL, config.FlagTimeout}, registryKeys...)
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	s := &Settings{
		Config:    config.FromViper(v),
		Debug:     debug,
		ConfigDir: configDir,
	}

	s.Token, _ = cmd.Flags().GetString("token")
	if s.Token == "" {
		mgr, err := credentials.NewManager(configDir)
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
		s.Token, err = mgr.ResolveToken(s.Config.Gateway.URL)
		if err != nil {
			return nil, fmt.Errorf("resolving token: %w", err)
		}
	}

	return s, nil
}

// Provider parses the configured provider.
func (s *Settings) Provider() (llm.Provider, error) {
	return llm.ParseProvider(s.Config.Client.Provider)
}

// Model returns the configured model.
func (s *Settings) Model() (string, error) {
	if s.Config.Client.Model == "" {
		return "", ErrNoModel
	}
	return s.Config.Client.Model, nil
}

// NewClient builds a gateway client from the settings.
func (s *Settings) NewClient(logger *zap.Logger) (*client.Client, error) {
	timeout, err := s.Config.Gateway.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithToken(s.Token),
		client.WithTimeout(timeout),
		client.WithLogger(logger),
	}
	if s.Config.Stream.Terminator != "" {
		opts = append(opts, client.WithTerminator(s.Config.Stream.Terminator))
	}
	if s.Config.Stream.ErrorEvent != "" {
		opts = append(opts, client.WithErrorEvent(s.Config.Stream.ErrorEvent))
	}
	if s.Config.Stream.ChunkSize > 0 {
		opts = append(opts, client.WithChunkSize(int(s.Config.Stream.ChunkSize)))
	}

	return client.New(s.Config.Gateway.URL, opts...), nil
}
