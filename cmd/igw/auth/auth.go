// Package authcmder provides the auth command for storing the bearer token
// sent to an inference gateway.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/igw/cmd/igw/gwclient"
	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/credentials"
)

const authLongDesc string = `Store the bearer token for an inference gateway.

Tokens are stored in credentials.toml in the .igw/ directory, keyed by
gateway URL, and sent as "Authorization: Bearer <token>" on every request
to that gateway. IGW_TOKEN and --token take precedence over stored tokens.

Tokens are stored as given; igw never refreshes or exchanges them.

Examples:
  igw auth                                     Prompt for the configured gateway's token
  igw auth --url https://gateway.example.com   Prompt for another gateway's token
  igw auth --list                              List gateways with stored tokens
  igw auth --remove                            Remove the configured gateway's token
  echo $TOKEN | igw auth                       Pipe the token from stdin`

const authShortDesc string = "Store a gateway bearer token"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			if listFlag {
				return runList(out, mgr)
			}

			settings, err := gwclient.Resolve(cmd)
			if err != nil {
				return err
			}
			gatewayURL := settings.Config.Gateway.URL

			if removeFlag {
				return runRemove(out, mgr, gatewayURL)
			}
			return runAuth(cmd.InOrStdin(), out, mgr, gatewayURL)
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List gateways with stored tokens")
	cmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove the stored token for the gateway")
	cmd.MarkFlagsMutuallyExclusive("list", "remove")

	return cmd
}

func runAuth(in io.Reader, out io.Writer, mgr *credentials.Manager, gatewayURL string) error {
	token, err := readToken(in, out, gatewayURL)
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := mgr.SetToken(gatewayURL, token); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored token for %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(gatewayURL),
		cliui.DimStyle.Render("("+mgr.GetTarget()+")"),
	)
	return nil
}

func runList(out io.Writer, mgr *credentials.Manager) error {
	gateways, err := mgr.ListGateways()
	if err != nil {
		return err
	}

	if len(gateways) == 0 {
		fmt.Fprintf(out, "\n  %s No stored tokens.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'igw auth' to store one.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.KeyStyle.Render("Stored tokens"))
	for _, gw := range gateways {
		fmt.Fprintf(out, "  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(gw))
	}
	if os.Getenv(credentials.TokenEnvVar) != "" {
		fmt.Fprintf(out, "\n  %s %s is set and overrides stored tokens.\n",
			cliui.WarnStyle.Render("!"), credentials.TokenEnvVar)
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(out io.Writer, mgr *credentials.Manager, gatewayURL string) error {
	if err := mgr.RemoveToken(gatewayURL); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed token for %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(gatewayURL))
	return nil
}

// readToken reads a token from in. A terminal gets a hidden-input prompt;
// anything else is read up to the first newline.
func readToken(in io.Reader, out io.Writer, gatewayURL string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter bearer token for %s: ", gatewayURL)

		tokenBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return string(tokenBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
