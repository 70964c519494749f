package google

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/provider"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement relay.Model.
type Client struct {
	client  *genai.Client
	model   string
	baseURL string
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// ClientOption configures the Google client.
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
		c.baseURL = url
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

// Provider returns relay.ProviderGoogle.
func (c *Client) Provider() relay.Provider { return relay.ProviderGoogle }

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	model := provider.ModelFor(options, c.model)
	contents, config := convertRequest(messages, options)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err, model)
	}
	if err := checkBlocked(resp); err != nil {
		return nil, wrapError(err, model)
	}

	var content strings.Builder
	finishReason, usage := collectResponse(resp, &content)
	return &relay.Response{
		Content:      content.String(),
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
// It waits for the first response chunk, so a request the API rejects fails
// here rather than on the channel. The channel starts with a Start marker.
func (c *Client) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	if len(messages) == 0 {
		return nil, relay.ErrEmptyInput
	}
	options := relay.ApplyOptions(opts...)
	model := provider.ModelFor(options, c.model)
	contents, config := convertRequest(messages, options)

	next, stop := iter.Pull2(c.client.Models.GenerateContentStream(ctx, model, contents, config))
	resp, err, ok := next()
	if !ok {
		stop()
		return nil, wrapError(errors.New("stream returned no data"), model)
	}
	if err != nil {
		stop()
		return nil, wrapError(err, model)
	}

	ch := make(chan relay.StreamEvent)

	go func() {
		defer close(ch)
		defer stop()

		if !provider.Send(ctx, ch, relay.StreamEvent{Start: true}) {
			return
		}

		var content strings.Builder
		var finishReason string
		var usage relay.Usage

		for ; ok; resp, err, ok = next() {
			if err != nil {
				provider.Send(ctx, ch, relay.StreamEvent{Err: wrapError(err, model)})
				return
			}
			if err := checkBlocked(resp); err != nil {
				provider.Send(ctx, ch, relay.StreamEvent{Err: wrapError(err, model)})
				return
			}

			var delta strings.Builder
			reason, u := collectResponse(resp, &delta)
			if reason != "" {
				finishReason = reason
			}
			if u.Total() > 0 {
				usage = u
			}
			if delta.Len() == 0 {
				continue
			}
			content.WriteString(delta.String())
			if !provider.Send(ctx, ch, relay.StreamEvent{Delta: delta.String()}) {
				return
			}
		}

		provider.Send(ctx, ch, relay.StreamEvent{
			Done: true,
			Response: &relay.Response{
				Content:      content.String(),
				FinishReason: finishReason,
				Usage:        usage,
			},
		})
	}()

	return ch, nil
}

// collectResponse appends the text of the first candidate to content and
// returns its finish reason and the reported usage.
func collectResponse(resp *genai.GenerateContentResponse, content *strings.Builder) (string, relay.Usage) {
	var finishReason string
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					content.WriteString(part.Text)
				}
			}
		}
		finishReason = string(candidate.FinishReason)
	}

	var usage relay.Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return finishReason, usage
}

var _ relay.Model = (*Client)(nil)
