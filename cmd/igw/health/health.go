// Package healthcmder provides the health command for probing the
// inference gateway.
package healthcmder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/igw/cmd/igw/gwclient"
	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/logger"
)

// ErrUnhealthy is returned when the gateway answers with a non-2xx status.
var ErrUnhealthy = errors.New("gateway is unhealthy")

const healthLongDesc string = `Check that the inference gateway is up.

Sends GET /health and succeeds when the gateway answers with a 2xx status.
The exit status is non-zero when the gateway is unreachable or unhealthy.

Examples:
  igw health
  igw health --url https://gateway.example.com`

const healthShortDesc string = "Check gateway health"

func NewHealthCmd() *cobra.Command {
	var settings *gwclient.Settings

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			settings, err = gwclient.Resolve(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealth(cmd.Context(), cmd.OutOrStdout(), settings)
		},
	}

	return cmd
}

func runHealth(ctx context.Context, out io.Writer, settings *gwclient.Settings) error {
	log := logger.NewLogger(settings.Debug)
	defer func() { _ = log.Sync() }()

	gw, err := settings.NewClient(log)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	err = cliui.Step(out, "Checking "+gw.BaseURL(), func() error {
		ok, err := gw.HealthCheck(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnhealthy
		}
		return nil
	})
	fmt.Fprintln(out)

	return err
}
