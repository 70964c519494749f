package relay

// Provider identifies the vendor behind a backend model.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Known providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)
