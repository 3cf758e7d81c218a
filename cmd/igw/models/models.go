// Package modelscmder provides the models command for listing the models
// an inference gateway serves.
package modelscmder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/igw/cmd/igw/gwclient"
	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/config"
	"github.com/papercomputeco/igw/pkg/llm"
	"github.com/papercomputeco/igw/pkg/logger"
	"github.com/papercomputeco/igw/pkg/worker"
)

type modelsCommander struct {
	provider string
	all      bool
	workers  uint

	settings *gwclient.Settings
	logger   *zap.Logger
}

const modelsLongDesc string = `List the models served by the inference gateway.

Without flags every provider's models are returned by a single GET /llms.
With --provider only that provider is queried. With --all each provider is
queried separately and concurrently, so one unreachable provider does not
hide the others.

Examples:
  igw models
  igw models --provider openai
  igw models --all --workers 4`

const modelsShortDesc string = "List available models"

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.all && cmd.Flags().Changed("provider") {
				return fmt.Errorf("--all and --provider are mutually exclusive")
			}

			var err error
			cmder.settings, err = gwclient.Resolve(cmd, config.FlagProvider)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A configured default provider does not narrow the listing.
			if !cmd.Flags().Changed("provider") {
				cmder.provider = ""
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Query every supported provider concurrently")
	cmd.Flags().UintVar(&cmder.workers, "workers", 3, "Concurrent queries for --all")

	return cmd
}

func (c *modelsCommander) run(ctx context.Context, out io.Writer) error {
	c.logger = logger.NewLogger(c.settings.Debug)
	defer func() { _ = c.logger.Sync() }()

	gw, err := c.settings.NewClient(c.logger)
	if err != nil {
		return err
	}

	switch {
	case c.all:
		results, err := worker.Probe(ctx, gw, llm.SupportedProviders(), c.workers, c.logger)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(out, "  %s %s %s\n\n",
					cliui.FailMark,
					cliui.NameStyle.Render(res.Provider.String()),
					cliui.ErrorStyle.Render(res.Err.Error()),
				)
				continue
			}
			printProvider(out, res.Models, res.Duration)
		}
		return nil

	case c.provider != "":
		p, err := llm.ParseProvider(c.provider)
		if err != nil {
			return err
		}
		pm, err := gw.ListModelsByProvider(ctx, p)
		if err != nil {
			return fmt.Errorf("listing %s models: %w", p, err)
		}
		fmt.Fprintln(out)
		printProvider(out, pm, 0)
		return nil

	default:
		all, err := gw.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}
		fmt.Fprintln(out)
		if len(all) == 0 {
			fmt.Fprintf(out, "  %s No models available.\n\n", cliui.DimStyle.Render("●"))
			return nil
		}
		for i := range all {
			printProvider(out, &all[i], 0)
		}
		return nil
	}
}

func printProvider(out io.Writer, pm *llm.ProviderModels, took time.Duration) {
	header := cliui.NameStyle.Render(pm.Provider.String())
	if took > 0 {
		header += " " + cliui.DimStyle.Render(cliui.FormatDuration(took))
	}
	fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, header)

	if len(pm.Models) == 0 {
		fmt.Fprintf(out, "    %s\n\n", cliui.DimStyle.Render("<no models>"))
		return
	}
	for _, m := range pm.Models {
		fmt.Fprintf(out, "    %s\n", cliui.ValueStyle.Render(m.Name))
	}
	fmt.Fprintln(out)
}
