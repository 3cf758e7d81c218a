// Package configcmder provides the config command for managing persistent
// igw configuration stored in the .igw/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/config"
)

const configLongDesc string = `Manage persistent igw configuration.

Configuration is stored as config.toml in the .igw/ directory and provides
default values for command flags. CLI flags and IGW_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  gateway.url, gateway.timeout,
  client.provider, client.model,
  stream.terminator, stream.error_event, stream.chunk_size

Use subcommands to get, set, or list configuration values:
  igw config set <key> <value>    Set a configuration value
  igw config get <key>            Get a configuration value
  igw config list                 List all configuration values

Examples:
  igw config set gateway.url https://gateway.example.com
  igw config set client.provider anthropic
  igw config get client.model
  igw config list`

const configShortDesc string = "Manage persistent igw configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// printTarget reports which config file a subcommand operates on.
func printTarget(out io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}
