// Package igwcmder is the root of the igw command tree.
package igwcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/igw/cmd/igw/auth"
	chatcmder "github.com/papercomputeco/igw/cmd/igw/chat"
	configcmder "github.com/papercomputeco/igw/cmd/igw/config"
	generatecmder "github.com/papercomputeco/igw/cmd/igw/generate"
	healthcmder "github.com/papercomputeco/igw/cmd/igw/health"
	initcmder "github.com/papercomputeco/igw/cmd/igw/init"
	modelscmder "github.com/papercomputeco/igw/cmd/igw/models"
	versioncmder "github.com/papercomputeco/igw/cmd/version"
	"github.com/papercomputeco/igw/pkg/config"
)

const igwLongDesc string = `igw is a command line client for an inference gateway.

It lists the models the gateway serves, generates content through any of
the gateway's providers and streams responses as they are produced.

Settings are read from flags, then IGW_* environment variables, then
config.toml in the .igw/ directory:
  igw init --preset openai         Create a local .igw/ with a preset
  igw auth                         Store a bearer token for the gateway
  igw models --all                 List models of every provider
  igw generate -p ollama "Hi"      One-shot generation
  igw chat -p openai -m gpt-4o     Interactive streaming chat`

const igwShortDesc string = "igw - Inference Gateway client"

func NewIgwCmd() *cobra.Command {
	var (
		gatewayURL string
		timeout    string
	)

	cmd := &cobra.Command{
		Use:          "igw",
		Short:        igwShortDesc,
		Long:         igwLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .igw/ config directory")
	cmd.PersistentFlags().String("token", "", "Bearer token (overrides IGW_TOKEN and stored credentials)")
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagURL, &gatewayURL)
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagTimeout, &timeout)

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
