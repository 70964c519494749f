// Command relay sends chat requests through a fallback roster of models.
//
// Usage:
//
//	relay chat "Summarize RFC 9110 in one line"
//	relay chat --stream --model anthropic/claude-haiku-4-5 --model openai/gpt-5-mini "Hello"
//	relay models
//
// The roster and retry settings come from ~/.relay/config.yaml (or --config),
// overridden by RELAY_* environment variables. API keys are read from
// ANTHROPIC_API_KEY, OPENAI_API_KEY and GOOGLE_API_KEY, or a .env file.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
