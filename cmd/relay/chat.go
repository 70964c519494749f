package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/fallback"
	"github.com/spetersoncode/relay/hooks"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

type chatFlags struct {
	models      []string
	system      string
	maxTokens   int
	temperature float64
	stream      bool
	usage       bool
}

func newChatCmd(a *app) *cobra.Command {
	f := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a chat request through the roster",
		Long: `Send a chat request through the configured roster.

The prompt is read from the arguments, or from stdin when none are given.

Examples:
  relay chat "Hello"
  relay chat --stream --system "Be terse" "Explain backoff"
  echo "Hello" | relay chat --model openai/gpt-5-mini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd, args, f)
		},
	}

	cmd.Flags().StringSliceVar(&f.models, "model", nil, "roster entry as provider/model, repeatable (overrides config)")
	cmd.Flags().StringVar(&f.system, "system", "", "system message")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "max tokens (0 = provider default)")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "stream the response")
	cmd.Flags().BoolVar(&f.usage, "usage", false, "print token usage and cost to stderr")

	return cmd
}

func (a *app) runChat(cmd *cobra.Command, args []string, f *chatFlags) error {
	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}

	if len(f.models) > 0 {
		a.cfg.Models = f.models
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	clientCfg, err := a.cfg.ClientConfig()
	if err != nil {
		return err
	}
	clientCfg.Logger = a.logger
	clientCfg.Fallback = append(clientCfg.Fallback, fallback.WithOnError(hooks.Chain(
		hooks.Logging(a.logger),
		hooks.Tracing(otel.Tracer("github.com/spetersoncode/relay/cmd/relay")),
	)))

	events := make(chan client.Event, 16)
	clientCfg.Events = events

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c, err := client.New(ctx, clientCfg)
	if err != nil {
		return err
	}

	messages := make([]relay.Message, 0, 2)
	if f.system != "" {
		messages = append(messages, relay.Message{Role: relay.RoleSystem, Content: f.system})
	}
	messages = append(messages, relay.Message{Role: relay.RoleUser, Content: prompt})

	var opts []relay.Option
	if f.maxTokens > 0 {
		opts = append(opts, relay.WithMaxTokens(f.maxTokens))
	}
	if cmd.Flags().Changed("temperature") {
		opts = append(opts, relay.WithTemperature(f.temperature))
	}

	out := cmd.OutOrStdout()
	if f.stream {
		err = streamChat(ctx, c, messages, opts, out)
	} else {
		err = chat(ctx, c, messages, opts, out)
	}
	if err != nil {
		return errors.New(relay.DescribeError(err))
	}

	if f.usage {
		close(events)
		for e := range events {
			if e.Type == client.EventRequestComplete && e.Usage != nil {
				color.New(color.FgHiBlack).Fprintf(cmd.ErrOrStderr(), "%s: %d input + %d output tokens, $%.6f\n",
					e.Model, e.Usage.InputTokens, e.Usage.OutputTokens, e.Cost)
			}
		}
	}
	return nil
}

func chat(ctx context.Context, c *client.Client, messages []relay.Message, opts []relay.Option, out io.Writer) error {
	resp, err := c.Chat(ctx, messages, opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, resp.Content)
	return err
}

func streamChat(ctx context.Context, c *client.Client, messages []relay.Message, opts []relay.Option, out io.Writer) error {
	ch, err := c.ChatStream(ctx, messages, opts...)
	if err != nil {
		return err
	}

	var streamErr error
	for event := range ch {
		if event.Err != nil {
			streamErr = event.Err
			continue
		}
		if event.Delta != "" {
			fmt.Fprint(out, event.Delta)
		}
	}
	fmt.Fprintln(out)
	return streamErr
}

// readPrompt joins the arguments, or reads stdin when there are none.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt required: pass it as an argument or on stdin")
	}
	return prompt, nil
}
