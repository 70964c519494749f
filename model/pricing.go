package model

import "github.com/spetersoncode/relay"

// longContextThreshold is the prompt size above which long context pricing applies.
const longContextThreshold = 200_000

// ChatPricing contains pricing per million tokens (USD) for chat models.
// Fields are zero if not applicable to a specific provider's model.
type ChatPricing struct {
	// InputPerMillion is the standard input token pricing (all providers).
	InputPerMillion float64
	// OutputPerMillion is the standard output token pricing (all providers).
	OutputPerMillion float64
	// CachedInputPerMillion is for cached/prompt-cached input tokens (OpenAI only).
	// Check HasCachedPricing() before using.
	CachedInputPerMillion float64
	// InputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	InputPerMillionLong float64
	// OutputPerMillionLong is for long context >200K tokens (Google only).
	// Check HasLongContextPricing() before using.
	OutputPerMillionLong float64
}

// HasCachedPricing returns true if the model supports cached input pricing.
func (p ChatPricing) HasCachedPricing() bool {
	return p.CachedInputPerMillion > 0
}

// HasLongContextPricing returns true if the model has tiered pricing for long context.
func (p ChatPricing) HasLongContextPricing() bool {
	return p.InputPerMillionLong > 0 || p.OutputPerMillionLong > 0
}

// Cost returns the USD cost of usage. Prompts above 200K tokens use long
// context rates when the model has them.
func (p ChatPricing) Cost(usage relay.Usage) float64 {
	in, out := p.InputPerMillion, p.OutputPerMillion
	if p.HasLongContextPricing() && usage.InputTokens > longContextThreshold {
		in, out = p.InputPerMillionLong, p.OutputPerMillionLong
	}
	return float64(usage.InputTokens)/1_000_000*in + float64(usage.OutputTokens)/1_000_000*out
}
