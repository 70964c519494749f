package model

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/relay"
)

// ChatModel represents a chat/completion model from any provider.
type ChatModel struct {
	id       string
	provider relay.Provider
	pricing  ChatPricing
}

// New returns a ChatModel that is not part of the catalog.
func New(provider relay.Provider, id string, pricing ChatPricing) ChatModel {
	return ChatModel{id: id, provider: provider, pricing: pricing}
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() relay.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ChatModel) Pricing() ChatPricing { return m.pricing }

// Ref returns the "provider/id" reference used in roster files.
func (m ChatModel) Ref() string { return string(m.provider) + "/" + m.id }

// Cost returns the USD cost of the given usage at this model's pricing.
func (m ChatModel) Cost(usage relay.Usage) float64 {
	return m.pricing.Cost(usage)
}

// IsZero reports whether m is the zero ChatModel.
func (m ChatModel) IsZero() bool { return m.id == "" }

// Anthropic Claude Models
// Model pricing last verified: December 14, 2025
var (
	ClaudeOpus45   = ChatModel{id: "claude-opus-4-5", provider: relay.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: relay.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: relay.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}

	// DefaultClaudeModel is the recommended default Anthropic model.
	DefaultClaudeModel = ClaudeSonnet45
)

// OpenAI GPT and O-Series Models
// Model pricing last verified: December 14, 2025
var (
	GPT52     = ChatModel{id: "gpt-5.2", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.75, OutputPerMillion: 14.00, CachedInputPerMillion: 0.175}}
	GPT5      = ChatModel{id: "gpt-5", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125}}
	GPT5Mini  = ChatModel{id: "gpt-5-mini", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.25, OutputPerMillion: 1.00, CachedInputPerMillion: 0.025}}
	GPT5Nano  = ChatModel{id: "gpt-5-nano", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.10, OutputPerMillion: 0.40, CachedInputPerMillion: 0.01}}
	GPT41     = ChatModel{id: "gpt-4.1", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 2.00, OutputPerMillion: 8.00, CachedInputPerMillion: 0.50}}
	GPT41Mini = ChatModel{id: "gpt-4.1-mini", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.40, OutputPerMillion: 1.60, CachedInputPerMillion: 0.10}}
	O4Mini    = ChatModel{id: "o4-mini", provider: relay.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.50, OutputPerMillion: 2.00, CachedInputPerMillion: 0.05}}

	// DefaultGPTModel is the recommended default OpenAI model.
	DefaultGPTModel = GPT52
)

// Google Gemini Models
// Model pricing last verified: December 14, 2025
var (
	Gemini25Pro       = ChatModel{id: "gemini-2.5-pro", provider: relay.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, InputPerMillionLong: 2.50, OutputPerMillionLong: 15.00}}
	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: relay.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60, InputPerMillionLong: 0.15, OutputPerMillionLong: 0.60}}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: relay.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.075, OutputPerMillion: 0.30, InputPerMillionLong: 0.075, OutputPerMillionLong: 0.30}}

	// DefaultGeminiModel is the recommended default Google model.
	DefaultGeminiModel = Gemini25Flash
)

var catalog = []ChatModel{
	ClaudeOpus45, ClaudeSonnet45, ClaudeHaiku45,
	GPT52, GPT5, GPT5Mini, GPT5Nano, GPT41, GPT41Mini, O4Mini,
	Gemini25Pro, Gemini25Flash, Gemini25FlashLite,
}

// All returns every catalogued chat model, grouped by provider.
func All() []ChatModel {
	out := make([]ChatModel, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalogued model by its "provider/id" reference.
func Lookup(ref string) (ChatModel, bool) {
	for _, m := range catalog {
		if m.Ref() == ref {
			return m, true
		}
	}
	return ChatModel{}, false
}

// Parse resolves a "provider/id" reference. Catalogued models carry their
// pricing; other ids of a known provider resolve with zero pricing.
func Parse(ref string) (ChatModel, error) {
	provider, id, ok := strings.Cut(ref, "/")
	if !ok || provider == "" || id == "" {
		return ChatModel{}, fmt.Errorf("invalid model reference %q: want provider/model", ref)
	}
	if m, ok := Lookup(ref); ok {
		return m, nil
	}
	p := relay.Provider(provider)
	switch p {
	case relay.ProviderAnthropic, relay.ProviderOpenAI, relay.ProviderGoogle:
		return New(p, id, ChatPricing{}), nil
	default:
		return ChatModel{}, fmt.Errorf("invalid model reference %q: unknown provider %q", ref, provider)
	}
}
