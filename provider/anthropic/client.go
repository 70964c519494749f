package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/provider"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// Client wraps the Anthropic SDK to implement relay.Model.
type Client struct {
	client         *anthropic.Client
	model          string
	requestOptions []option.RequestOption
}

// New creates a new Anthropic client with the given API key.
// The SDK's own retries are disabled; failover is left to the caller.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, c.requestOptions...)
	client := anthropic.NewClient(reqOpts...)
	c.client = &client
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the model served by the client.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.requestOptions = append(c.requestOptions, option.WithBaseURL(url))
	}
}

// WithRequestOptions passes extra options to the SDK client.
func WithRequestOptions(opts ...option.RequestOption) ClientOption {
	return func(c *Client) {
		c.requestOptions = append(c.requestOptions, opts...)
	}
}

// ForModel returns a client for another model sharing the same SDK client.
func (c *Client) ForModel(model string) *Client {
	clone := *c
	clone.model = model
	return &clone
}

// ModelID returns the model served by the client.
func (c *Client) ModelID() string { return c.model }

// Provider returns relay.ProviderAnthropic.
func (c *Client) Provider() relay.Provider { return relay.ProviderAnthropic }

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	params := c.params(messages, options)

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err, string(params.Model))
	}
	return convertResponse(resp), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
// It waits for the first server event, so a request the API rejects fails
// here rather than on the channel. The channel starts with a Start marker.
func (c *Client) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	params := c.params(messages, options)
	model := string(params.Model)

	stream := c.client.Messages.NewStreaming(ctx, params)
	if !stream.Next() {
		err := stream.Err()
		stream.Close()
		if err == nil {
			err = errors.New("stream closed before any data")
		}
		return nil, wrapError(err, model)
	}

	ch := make(chan relay.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc anthropic.Message

		for ok := true; ok; ok = stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				provider.Send(ctx, ch, relay.StreamEvent{Err: wrapError(err, model)})
				return
			}

			var out relay.StreamEvent
			switch event.Type {
			case "message_start":
				out = relay.StreamEvent{Start: true}
			case "content_block_delta":
				textDelta := event.AsContentBlockDelta().Delta.AsTextDelta()
				if textDelta.Type != "text_delta" || textDelta.Text == "" {
					continue
				}
				out = relay.StreamEvent{Delta: textDelta.Text}
			default:
				continue
			}
			if !provider.Send(ctx, ch, out) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			provider.Send(ctx, ch, relay.StreamEvent{Err: wrapError(err, model)})
			return
		}

		provider.Send(ctx, ch, relay.StreamEvent{
			Done:     true,
			Response: convertResponse(&acc),
		})
	}()

	return ch, nil
}

func (c *Client) params(messages []relay.Message, options *relay.Options) anthropic.MessageNewParams {
	maxTokens := int64(provider.DefaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(provider.ModelFor(options, c.model)),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	return params
}

func convertResponse(msg *anthropic.Message) *relay.Response {
	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &relay.Response{
		Content:      content.String(),
		FinishReason: string(msg.StopReason),
		Usage: relay.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

var _ relay.Model = (*Client)(nil)
