package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// TokenCounter provides token counting for usage accounting. The routing
// classifier does not use it; classification relies on the deterministic
// character heuristic instead.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter backed by the cl100k_base encoding
func NewTokenCounter() (*TokenCounter, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TokenCounter{encoder: encoder}, nil
}

// CountTokens counts tokens in a text string
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.encoder == nil {
		return EstimateTokens(text)
	}
	return len(tc.encoder.Encode(text, nil, nil))
}

// CountMessagesTokens counts tokens across a message list, including the
// per-message framing overhead
func (tc *TokenCounter) CountMessagesTokens(messages []types.Message) int {
	total := 0
	for _, message := range messages {
		total += tc.CountTokens(message.Role)
		total += tc.CountTokens(message.Content)
		total += 3
	}
	total += 3
	return total
}

// Usage builds usage accounting for a completed response
func (tc *TokenCounter) Usage(messages []types.Message, responseText string) types.Usage {
	promptTokens := tc.CountMessagesTokens(messages)
	completionTokens := tc.CountTokens(responseText)
	return types.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// EstimateTokens provides a simple estimation without tiktoken, roughly 4
// characters per token
func EstimateTokens(text string) int {
	return len(text) / 4
}
