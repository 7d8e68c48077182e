package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// RoleSystem System role message
	RoleSystem = "system"

	// RoleUser User role message
	RoleUser = "user"

	// RoleAssistant AI assistant role message
	RoleAssistant = "assistant"
)

// Model sentinels that request smart routing instead of a concrete model
const (
	ModelAuto   = "auto"
	ModelSmart  = "smart"
	ModelRouter = "router"
)

// IsAutoModel reports whether the requested model name asks for smart routing
func IsAutoModel(model string) bool {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case ModelAuto, ModelSmart, ModelRouter, "":
		return true
	}
	return false
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// HasContent reports whether at least one message carries non-empty content.
// Requests without any content are rejected before routing.
func (r *ChatCompletionRequest) HasContent() bool {
	for _, msg := range r.Messages {
		if strings.TrimSpace(msg.Content) != "" {
			return true
		}
	}
	return false
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatCompletionResponse struct {
	Id      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// NewCompletionID generates a chat completion identifier
func NewCompletionID() string {
	return fmt.Sprintf("chatcmpl-%s", strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

// NewChatCompletionResponse builds a non-streaming completion from response text
func NewChatCompletionResponse(text, model string, usage Usage) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		Id:      NewCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Message:      Message{Role: RoleAssistant, Content: text},
				FinishReason: "stop",
			},
		},
		Usage: usage,
	}
}

// Streaming chunk types

type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type ChatCompletionChunk struct {
	Id      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

func newChunk(id, model string, choice StreamChoice) *ChatCompletionChunk {
	return &ChatCompletionChunk{
		Id:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []StreamChoice{choice},
	}
}

// FirstChunk is the initial chunk carrying the assistant role
func FirstChunk(id, model string) *ChatCompletionChunk {
	return newChunk(id, model, StreamChoice{Delta: Delta{Role: RoleAssistant}})
}

// TextChunk is an incremental content delta chunk
func TextChunk(id, model, text string) *ChatCompletionChunk {
	return newChunk(id, model, StreamChoice{Delta: Delta{Content: text}})
}

// DoneChunk is the final chunk carrying finish_reason
func DoneChunk(id, model string) *ChatCompletionChunk {
	stop := "stop"
	return newChunk(id, model, StreamChoice{FinishReason: &stop})
}

// Model listing types

type ModelInfo struct {
	Id      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelListResponse struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// NewModelInfo builds a model listing entry
func NewModelInfo(id, ownedBy string) ModelInfo {
	return ModelInfo{
		Id:      id,
		Object:  "model",
		Created: time.Now().Unix(),
		OwnedBy: ownedBy,
	}
}
