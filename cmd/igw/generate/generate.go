// Package generatecmder provides the generate command for one-shot content
// generation through the inference gateway.
package generatecmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/igw/cmd/igw/gwclient"
	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/config"
	"github.com/papercomputeco/igw/pkg/llm"
	"github.com/papercomputeco/igw/pkg/logger"
)

type generateCommander struct {
	provider   string
	model      string
	terminator string
	errorEvent string
	chunkSize  uint
	system     string
	stream     bool
	markdown   bool

	settings *gwclient.Settings
	logger   *zap.Logger
}

const generateLongDesc string = `Generate content from a prompt.

The prompt is sent as a single user message, optionally preceded by a
system message. With --stream the response is printed as the gateway
produces it; otherwise the complete response is printed once it arrives.
With --markdown the response is rendered for the terminal.

Examples:
  igw generate -p ollama -m llama3.2 "Why is the sky blue?"
  igw generate -p openai -m gpt-4o-mini --stream "Write a haiku"
  igw generate --system "Answer in French" "Hello"`

const generateShortDesc string = "Generate content from a prompt"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.settings, err = gwclient.Resolve(cmd,
				config.FlagProvider,
				config.FlagModel,
				config.FlagTerminator,
				config.FlagErrorEvent,
				config.FlagChunkSize,
			)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTerminator, &cmder.terminator)
	config.AddStringFlag(cmd, config.Flags, config.FlagErrorEvent, &cmder.errorEvent)
	config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, &cmder.chunkSize)
	cmd.Flags().StringVar(&cmder.system, "system", "", "System message sent before the prompt")
	cmd.Flags().BoolVar(&cmder.stream, "stream", false, "Stream the response as it is generated")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render the response as markdown")

	return cmd
}

func (c *generateCommander) run(ctx context.Context, out io.Writer, prompt string) error {
	c.logger = logger.NewLogger(c.settings.Debug)
	defer func() { _ = c.logger.Sync() }()

	provider, err := c.settings.Provider()
	if err != nil {
		return err
	}
	model, err := c.settings.Model()
	if err != nil {
		return err
	}

	gw, err := c.settings.NewClient(c.logger)
	if err != nil {
		return err
	}

	var messages []llm.Message
	if c.system != "" {
		messages = append(messages, llm.NewMessage(llm.RoleSystem, c.system))
	}
	messages = append(messages, llm.NewMessage(llm.RoleUser, prompt))

	c.logger.Debug("generating",
		zap.String("provider", provider.String()),
		zap.String("model", model),
		zap.Bool("stream", c.stream),
	)

	if !c.stream {
		resp, err := gw.GenerateContent(ctx, provider, model, messages)
		if err != nil {
			return fmt.Errorf("generating content: %w", err)
		}
		return c.print(out, resp.Response.Content)
	}

	stream, err := gw.GenerateContentStream(ctx, provider, model, messages)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	// Rendered markdown needs the whole document.
	if c.markdown {
		content, err := stream.Collect()
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		return c.print(out, content)
	}

	for chunk, err := range stream.Chunks() {
		if err != nil {
			fmt.Fprintln(out)
			return fmt.Errorf("reading stream: %w", err)
		}
		fmt.Fprint(out, chunk.Content)
	}
	fmt.Fprintln(out)

	return nil
}

func (c *generateCommander) print(out io.Writer, content string) error {
	if !c.markdown {
		fmt.Fprintln(out, content)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(content)
	if err != nil {
		c.logger.Debug("markdown rendering failed", zap.Error(err))
	}
	fmt.Fprint(out, rendered)
	return nil
}
