package openai

import (
	"github.com/openai/openai-go"
	"github.com/spetersoncode/relay"
)

func convertMessages(messages []relay.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case relay.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case relay.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
