// Package relay defines the contract shared by backend models and the
// fallback controller that strings them together.
//
// A [Model] is a [ChatProvider] bound to one backend model. Provider
// adapters live under provider/, the model catalog under model/, and the
// [github.com/spetersoncode/relay/fallback] package composes an ordered
// roster of models into a single Model that retries transient failures
// and rotates to the next backend when one keeps failing.
//
// # Basic Usage
//
//	primary := anthropic.New(os.Getenv("ANTHROPIC_API_KEY")).ForModel("claude-sonnet-4-5")
//	backup := openai.New(os.Getenv("OPENAI_API_KEY")).ForModel("gpt-5-mini")
//
//	m, err := fallback.New([]relay.Model{primary, backup})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := m.Chat(ctx, []relay.Message{
//	    {Role: relay.RoleUser, Content: "What is the capital of France?"},
//	})
//
// # Streaming
//
// ChatStream returns a channel of [StreamEvent]. Start events mark an
// opened connection and carry no content. Errors arrive as an event with
// Err set, after which the channel is closed. [Collect] drains a stream
// into a [Response].
//
// # Errors
//
// Adapters return [*Error], which carries the HTTP status of the failed
// request. [StatusCodeOf] extracts the status from any error chain that
// implements StatusCode() int.
package relay
