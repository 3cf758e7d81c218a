// Package chatcmder provides the chat command for an interactive, streamed
// conversation through the inference gateway.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/igw/cmd/igw/gwclient"
	"github.com/papercomputeco/igw/pkg/client"
	"github.com/papercomputeco/igw/pkg/cliui"
	"github.com/papercomputeco/igw/pkg/config"
	"github.com/papercomputeco/igw/pkg/dotdir"
	"github.com/papercomputeco/igw/pkg/llm"
	"github.com/papercomputeco/igw/pkg/logger"
	"github.com/papercomputeco/igw/pkg/utils"
)

const (
	cmdExit  = "/exit"
	cmdReset = "/reset"

	// previewLen caps the resumed message shown on startup.
	previewLen = 72
)

type chatCommander struct {
	provider   string
	model      string
	terminator string
	errorEvent string
	chunkSize  uint
	system     string
	resume     bool

	settings *gwclient.Settings
	gw       *client.Client
	ddm      *dotdir.Manager
	logger   *zap.Logger
}

const chatLongDesc string = `Start an interactive chat session through the inference gateway.

Every reply is streamed as the gateway produces it. The transcript is saved
to chat.json in the .igw/ directory after each turn; pass --resume to pick
the conversation up where it was left.

Type /reset to start over (a --system message is kept) and /exit or
Ctrl+D to quit.

Examples:
  igw chat -p ollama -m llama3.2
  igw chat -p openai -m gpt-4o-mini --system "You are terse."
  igw chat --resume`

const chatShortDesc string = "Interactive streamed chat"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTerminator, &cmder.terminator)
	config.AddStringFlag(cmd, config.Flags, config.FlagErrorEvent, &cmder.errorEvent)
	config.AddUintFlag(cmd, config.Flags, config.FlagChunkSize, &cmder.chunkSize)
	cmd.Flags().StringVar(&cmder.system, "system", "", "System message for a new conversation")
	cmd.Flags().BoolVar(&cmder.resume, "resume", false, "Resume the saved conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
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

	c.gw, err = c.settings.NewClient(c.logger)
	if err != nil {
		return err
	}
	c.ddm = dotdir.NewManager()

	conv, err := c.loadConversation()
	if err != nil {
		return err
	}
	conv.Provider = provider
	conv.Model = model

	fmt.Fprintln(out)
	if c.resume && len(conv.Messages) > 0 {
		last := conv.Messages[len(conv.Messages)-1]
		fmt.Fprintf(out, "  %s Resuming conversation %s\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(conv.Messages))),
		)
		fmt.Fprintf(out, "  %s %s\n",
			cliui.KeyStyle.Render(last.Role.String()+":"),
			cliui.DimStyle.Render(utils.Truncate(oneLine(last.Content), previewLen)),
		)
	} else {
		fmt.Fprintf(out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}
	fmt.Fprintf(out, "  %s %s  %s %s\n\n",
		cliui.KeyStyle.Render("Provider:"),
		cliui.NameStyle.Render(provider.String()),
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(model),
	)
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /reset to start over, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, cliui.UserPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == cmdExit {
			break
		}
		if input == cmdReset {
			conv.Reset()
			c.save(conv)
			fmt.Fprintf(out, "  %s Conversation reset\n\n", cliui.SuccessMark)
			continue
		}

		conv.Append(llm.NewMessage(llm.RoleUser, input))

		reply, err := c.sendAndStream(ctx, out, conv)
		if err != nil {
			fmt.Fprintf(errOut, "\n  %s %v\n\n", cliui.FailMark, err)
			// Drop the failed user message so the turn can be retried.
			conv.Messages = conv.Messages[:len(conv.Messages)-1]
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		conv.Append(llm.NewMessage(llm.RoleAssistant, reply))
		c.save(conv)

		fmt.Fprintln(out)
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

// loadConversation returns the saved conversation when resuming, otherwise
// a new one seeded with the system message.
func (c *chatCommander) loadConversation() (*llm.Conversation, error) {
	if c.resume {
		conv, err := c.ddm.LoadChat(c.settings.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading chat: %w", err)
		}
		if conv != nil {
			return conv, nil
		}
	}

	conv := &llm.Conversation{}
	if c.system != "" {
		conv.Append(llm.NewMessage(llm.RoleSystem, c.system))
	}
	return conv, nil
}

func (c *chatCommander) save(conv *llm.Conversation) {
	if err := c.ddm.SaveChat(conv, c.settings.ConfigDir); err != nil {
		c.logger.Warn("could not save chat transcript", zap.Error(err))
	}
}

// sendAndStream opens a stream for the conversation and prints each chunk
// as it arrives. It returns the full reply.
func (c *chatCommander) sendAndStream(ctx context.Context, out io.Writer, conv *llm.Conversation) (string, error) {
	c.logger.Debug("sending chat request",
		zap.String("provider", conv.Provider.String()),
		zap.String("model", conv.Model),
		zap.Int("message_count", len(conv.Messages)),
	)

	stream, err := c.gw.GenerateContentStream(ctx, conv.Provider, conv.Model, conv.Messages)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	c.logger.Debug("stream opened", zap.String("request_id", stream.RequestID))

	fmt.Fprint(out, cliui.AssistantPrompt)

	var reply strings.Builder
	for chunk, err := range stream.Chunks() {
		if err != nil {
			return reply.String(), err
		}
		fmt.Fprint(out, chunk.Content)
		reply.WriteString(chunk.Content)
	}

	return reply.String(), nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
