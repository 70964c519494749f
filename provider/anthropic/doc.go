// Package anthropic adapts the Anthropic Messages API to relay.Model.
//
//	claude := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"),
//		anthropic.WithModel("claude-sonnet-4-5"),
//	)
//	haiku := claude.ForModel("claude-haiku-4-5")
//
// Errors are returned as *relay.Error carrying the HTTP status, which the
// fallback classifier inspects.
package anthropic
