// Package client builds a fallback roster from catalog models and API keys.
//
// The Client creates one SDK client per provider, binds each roster entry to
// it, and wraps the result in a fallback.Model. Requests are traced with
// OpenTelemetry and reported on an optional event channel with token usage
// and estimated cost.
//
//	c, err := client.New(ctx, client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	        OpenAI:    os.Getenv("OPENAI_API_KEY"),
//	    },
//	    Models: []model.ChatModel{model.ClaudeSonnet45, model.GPT5Mini},
//	    Fallback: []fallback.Option{
//	        fallback.WithOnError(hooks.Logging(slog.Default())),
//	    },
//	})
//
//	resp, err := c.Chat(ctx, []relay.Message{
//	    {Role: relay.RoleUser, Content: "Hello!"},
//	})
//
// Client satisfies relay.Model, so it can itself be placed in another roster.
package client
