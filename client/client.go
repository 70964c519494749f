package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/fallback"
	"github.com/spetersoncode/relay/model"
	"github.com/spetersoncode/relay/provider/anthropic"
	"github.com/spetersoncode/relay/provider/google"
	"github.com/spetersoncode/relay/provider/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/spetersoncode/relay/client"

// APIKeys holds API keys for different providers.
// Only configure keys for providers the roster uses.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Endpoints overrides provider base URLs, for gateways and proxies.
// Empty fields use the provider's public endpoint.
type Endpoints struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Config holds configuration for creating a client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// Endpoints optionally overrides provider base URLs.
	Endpoints Endpoints

	// Models is the ordered roster. The first model is the primary.
	Models []model.ChatModel

	// Fallback configures retry and failover across the roster.
	Fallback []fallback.Option

	// Events is an optional channel for receiving request events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Tracer records a span per request. Defaults to the global tracer provider.
	Tracer trace.Tracer

	// Logger is passed to the fallback controller. Defaults to slog.Default().
	Logger *slog.Logger
}

// ErrMissingAPIKey is returned when a roster model's provider has no API key.
type ErrMissingAPIKey struct {
	Provider string
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, relay.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
// Per-request options override this default.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, relay.WithMaxTokens(n))
	}
}

// Client sends requests to a roster of models through a fallback controller.
type Client struct {
	models          []model.ChatModel
	fallback        *fallback.Model
	events          chan<- Event
	tracer          trace.Tracer
	defaultChatOpts []relay.Option

	anthropic *anthropic.Client
	openai    *openai.Client
	google    *google.Client
}

// New creates a client for the configured roster. One SDK client is created
// per provider and shared by that provider's models.
func New(ctx context.Context, cfg Config, opts ...ClientOption) (*Client, error) {
	if len(cfg.Models) == 0 {
		return nil, fallback.ErrNoModels
	}

	c := &Client{
		models: append([]model.ChatModel(nil), cfg.Models...),
		events: cfg.Events,
		tracer: cfg.Tracer,
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	for _, opt := range opts {
		opt(c)
	}

	backends := make([]relay.Model, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		backend, err := c.backend(ctx, cfg, m)
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fbOpts := append([]fallback.Option{fallback.WithLogger(logger)}, cfg.Fallback...)
	fb, err := fallback.New(backends, fbOpts...)
	if err != nil {
		return nil, err
	}
	c.fallback = fb
	return c, nil
}

// backend returns the adapter serving m.
func (c *Client) backend(ctx context.Context, cfg Config, m model.ChatModel) (relay.Model, error) {
	switch m.Provider() {
	case relay.ProviderAnthropic:
		if cfg.APIKeys.Anthropic == "" {
			return nil, &ErrMissingAPIKey{Provider: "anthropic", Model: m.String()}
		}
		if c.anthropic == nil {
			var opts []anthropic.ClientOption
			if cfg.Endpoints.Anthropic != "" {
				opts = append(opts, anthropic.WithBaseURL(cfg.Endpoints.Anthropic))
			}
			c.anthropic = anthropic.New(cfg.APIKeys.Anthropic, opts...)
		}
		return c.anthropic.ForModel(m.String()), nil

	case relay.ProviderOpenAI:
		if cfg.APIKeys.OpenAI == "" {
			return nil, &ErrMissingAPIKey{Provider: "openai", Model: m.String()}
		}
		if c.openai == nil {
			var opts []openai.ClientOption
			if cfg.Endpoints.OpenAI != "" {
				opts = append(opts, openai.WithBaseURL(cfg.Endpoints.OpenAI))
			}
			c.openai = openai.New(cfg.APIKeys.OpenAI, opts...)
		}
		return c.openai.ForModel(m.String()), nil

	case relay.ProviderGoogle:
		if cfg.APIKeys.Google == "" {
			return nil, &ErrMissingAPIKey{Provider: "google", Model: m.String()}
		}
		if c.google == nil {
			var opts []google.ClientOption
			if cfg.Endpoints.Google != "" {
				opts = append(opts, google.WithBaseURL(cfg.Endpoints.Google))
			}
			client, err := google.New(ctx, cfg.APIKeys.Google, opts...)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize Google client: %w", err)
			}
			c.google = client
		}
		return c.google.ForModel(m.String()), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", m.Provider())
	}
}

// Models returns the roster.
func (c *Client) Models() []model.ChatModel {
	return append([]model.ChatModel(nil), c.models...)
}

// Fallback returns the underlying controller.
func (c *Client) Fallback() *fallback.Model {
	return c.fallback
}

// ModelID returns the model currently selected by the controller.
func (c *Client) ModelID() string { return c.fallback.ModelID() }

// Provider returns the provider of the currently selected model.
func (c *Client) Provider() relay.Provider { return c.fallback.Provider() }

// current returns the catalog entry at the controller's cursor. The cursor
// is shared, so under concurrent failover this is the model most recently
// selected, which is normally the one that served the request.
func (c *Client) current() model.ChatModel {
	return c.models[c.fallback.CurrentIndex()]
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	opts = c.withDefaults(opts)
	req := c.begin(ctx, "chat")
	defer req.span.End()

	resp, err := c.fallback.Chat(req.ctx, messages, opts...)
	if err != nil {
		c.fail(req, err)
		return nil, err
	}
	c.complete(req, resp.Usage)
	return resp, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
// The request event and span complete when the stream ends.
func (c *Client) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	opts = c.withDefaults(opts)
	req := c.begin(ctx, "chat_stream")

	upstream, err := c.fallback.ChatStream(req.ctx, messages, opts...)
	if err != nil {
		c.fail(req, err)
		req.span.End()
		return nil, err
	}

	ch := make(chan relay.StreamEvent)

	go func() {
		defer close(ch)
		defer req.span.End()

		var usage relay.Usage
		var streamErr error
		abandoned := false

		// Keep reading after the consumer leaves so the controller can finish.
		for event := range upstream {
			if event.Err != nil {
				streamErr = event.Err
			}
			if event.Done && event.Response != nil {
				usage = event.Response.Usage
			}
			if abandoned {
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				abandoned = true
			}
		}

		switch {
		case streamErr != nil:
			c.fail(req, streamErr)
		case abandoned || ctx.Err() != nil:
			c.fail(req, context.Cause(ctx))
		default:
			c.complete(req, usage)
		}
	}()

	return ch, nil
}

func (c *Client) withDefaults(opts []relay.Option) []relay.Option {
	if len(c.defaultChatOpts) == 0 {
		return opts
	}
	// Prepend defaults so per-request options override them
	merged := make([]relay.Option, 0, len(c.defaultChatOpts)+len(opts))
	merged = append(merged, c.defaultChatOpts...)
	return append(merged, opts...)
}

// request tracks one Chat or ChatStream call.
type request struct {
	id        string
	operation string
	start     time.Time
	ctx       context.Context
	span      trace.Span
}

func (c *Client) begin(ctx context.Context, operation string) *request {
	id := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "relay."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("relay.request_id", id),
			attribute.Int("relay.roster_size", len(c.models)),
		),
	)

	current := c.current()
	emit(c.events, Event{
		Type:      EventRequestStart,
		RequestID: id,
		Operation: operation,
		Provider:  current.Provider(),
		Model:     current.String(),
	})

	return &request{id: id, operation: operation, start: time.Now(), ctx: ctx, span: span}
}

func (c *Client) complete(req *request, usage relay.Usage) {
	served := c.current()
	cost := served.Cost(usage)

	req.span.SetAttributes(
		attribute.String("relay.provider", served.Provider().String()),
		attribute.String("relay.model", served.String()),
		attribute.Int("relay.usage.input_tokens", usage.InputTokens),
		attribute.Int("relay.usage.output_tokens", usage.OutputTokens),
		attribute.Float64("relay.cost_usd", cost),
	)
	req.span.SetStatus(codes.Ok, "")

	emit(c.events, Event{
		Type:      EventRequestComplete,
		RequestID: req.id,
		Operation: req.operation,
		Provider:  served.Provider(),
		Model:     served.String(),
		Duration:  time.Since(req.start),
		Usage:     &usage,
		Cost:      cost,
	})
}

func (c *Client) fail(req *request, err error) {
	req.span.RecordError(err)
	req.span.SetStatus(codes.Error, err.Error())

	current := c.current()
	emit(c.events, Event{
		Type:      EventRequestError,
		RequestID: req.id,
		Operation: req.operation,
		Provider:  current.Provider(),
		Model:     current.String(),
		Duration:  time.Since(req.start),
		Error:     err,
	})
}

var _ relay.Model = (*Client)(nil)
