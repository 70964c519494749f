package google

import (
	"github.com/spetersoncode/relay"
	"google.golang.org/genai"
)

// convertRequest maps a conversation onto Gemini contents. System messages
// become the system instruction.
func convertRequest(messages []relay.Message, options *relay.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}

	var contents []*genai.Content
	var system []*genai.Part

	for _, msg := range messages {
		part := &genai.Part{Text: msg.Content}
		switch msg.Role {
		case relay.RoleSystem:
			system = append(system, part)
		case relay.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, config
}
