package utils

import (
	"strings"

	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// FlattenMessages converts an ordered message list into the prompt material
// the CLI adapter needs: the concatenated system prompt and a single
// conversation string.
func FlattenMessages(messages []types.Message) (systemPrompt string, prompt string) {
	var systemParts []string
	var conversationParts []string

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case types.RoleUser:
			conversationParts = append(conversationParts, "Human: "+msg.Content)
		case types.RoleAssistant:
			conversationParts = append(conversationParts, "Assistant: "+msg.Content)
		}
	}

	systemPrompt = strings.Join(systemParts, "\n\n")

	if len(conversationParts) > 0 {
		prompt = strings.Join(conversationParts, "\n\n")
		return systemPrompt, prompt
	}

	// No user/assistant messages: fall back to joining whatever content exists
	var parts []string
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	return systemPrompt, strings.Join(parts, "\n\n")
}

// LastUserMessage returns the content of the most recent user message, or
// the last message's content when no user message exists.
func LastUserMessage(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}

// TruncateContent limits content to maxLen runes for log records
func TruncateContent(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}
