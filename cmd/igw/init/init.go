// Package initcmder provides the init command for initializing a local .igw
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/config"
)

const (
	dirName = ".igw"

	// remoteFetchTimeout bounds the download of a remote preset.
	remoteFetchTimeout = 30 * time.Second

	// maxRemoteConfigSize caps a remote preset body.
	maxRemoteConfigSize = 1 << 20
)

const initLongDesc string = `Initialize a new .igw/ directory in the current working directory.

Creates a local .igw/ directory that takes precedence over the default
~/.igw/ directory for configuration, credentials and the saved chat.
A config.toml with default values is written unless one already exists.

--preset writes a config for a provider (ollama, openai, anthropic, groq)
or fetches one from an http(s) URL, replacing any existing config.toml.

Examples:
  igw init
  igw init --preset openai
  igw init --preset https://example.com/igw/config.toml`

const initShortDesc string = "Initialize a local .igw/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		"Provider preset ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL of a config.toml")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	// Resolve the preset before touching the filesystem so a bad preset
	// leaves no half-initialized directory behind.
	var cfg *config.Config
	if preset != "" {
		cfg, err = resolvePreset(ctx, preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if !existed {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating .igw directory: %w", err)
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	switch {
	case cfg != nil:
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	case !fileExists(cfger.GetTarget()):
		if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
			return err
		}
	}

	if existed {
		fmt.Fprintf(out, "  %s Already initialized: %s\n", cliui.SuccessMark, dir)
	} else {
		fmt.Fprintf(out, "  %s Initialized .igw directory: %s\n", cliui.SuccessMark, dir)
	}
	if cfg != nil {
		fmt.Fprintf(out, "  %s Wrote %s preset to %s\n",
			cliui.SuccessMark, cliui.NameStyle.Render(preset), cliui.DimStyle.Render(cfger.GetTarget()))
	}

	return nil
}

func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchRemoteConfig(ctx, preset)
	}
	return config.PresetConfig(preset)
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfigSize))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
