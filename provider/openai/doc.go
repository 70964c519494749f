// Package openai adapts the OpenAI Chat Completions API to relay.Model.
//
//	gpt := openai.New(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-5-mini"))
//
// WithBaseURL targets any OpenAI-compatible endpoint. Errors are returned
// as *relay.Error carrying the HTTP status.
package openai
