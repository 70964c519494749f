package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/provider"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-5-mini"

// Client wraps the OpenAI SDK to implement relay.Model.
type Client struct {
	client         *openai.Client
	model          string
	requestOptions []option.RequestOption
}

// New creates a new OpenAI client with the given API key.
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
	client := openai.NewClient(reqOpts...)
	c.client = &client
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the model served by the client.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL points the client at a different API endpoint, such as an
// OpenAI-compatible gateway.
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

// Provider returns relay.ProviderOpenAI.
func (c *Client) Provider() relay.Provider { return relay.ProviderOpenAI }

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	params := c.params(messages, options)
	model := string(params.Model)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err, model)
	}
	if len(resp.Choices) == 0 {
		return nil, wrapError(errors.New("response contained no choices"), model)
	}

	return &relay.Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: relay.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
// It waits for the first chunk, so a request the API rejects fails here
// rather than on the channel.
func (c *Client) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	params := c.params(messages, options)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}
	model := string(params.Model)

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
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
		var acc openai.ChatCompletionAccumulator
		first := true

		for ok := true; ok; ok = stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			var out relay.StreamEvent
			switch {
			case len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "":
				out = relay.StreamEvent{Delta: chunk.Choices[0].Delta.Content}
			case first:
				out = relay.StreamEvent{Start: true}
			default:
				continue
			}
			first = false
			if !provider.Send(ctx, ch, out) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			provider.Send(ctx, ch, relay.StreamEvent{Err: wrapError(err, model)})
			return
		}

		resp := &relay.Response{
			Usage: relay.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		}
		if len(acc.Choices) > 0 {
			resp.Content = acc.Choices[0].Message.Content
			resp.FinishReason = string(acc.Choices[0].FinishReason)
		}
		provider.Send(ctx, ch, relay.StreamEvent{Done: true, Response: resp})
	}()

	return ch, nil
}

func (c *Client) params(messages []relay.Message, options *relay.Options) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    provider.ModelFor(options, c.model),
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	return params
}

var _ relay.Model = (*Client)(nil)
