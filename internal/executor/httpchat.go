package executor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

const doneSentinel = "[DONE]"

// HTTPExecutor runs models behind any OpenAI-compatible chat completions
// endpoint: OpenAI, DeepSeek, Ollama, OpenRouter, Groq, Mistral, etc.
type HTTPExecutor struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewHTTPExecutor creates an HTTP executor with the given per-attempt timeout
func NewHTTPExecutor(timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

type chatPayload struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Stream      bool            `json:"stream"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

func (e *HTTPExecutor) newRequest(ctx context.Context, req *Request, model *registry.ModelDescriptor, stream bool) (*http.Request, error) {
	payload := chatPayload{
		Model:       model.ModelID,
		Messages:    req.Messages,
		Stream:      stream,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	url := strings.TrimRight(model.Provider.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	if model.Provider.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+model.Provider.APIKey)
	}
	for key, value := range model.Provider.ExtraHeaders {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

// Execute calls the endpoint non-streaming and extracts the first choice's
// message content.
func (e *HTTPExecutor) Execute(ctx context.Context, req *Request, model *registry.ModelDescriptor) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := e.newRequest(ctx, req, model, false)
	if err != nil {
		return "", types.NewBackendError(model.Name, "build request", err)
	}

	logger.Info("HTTP model request",
		zap.String("model", model.ModelID),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", types.NewBackendError(model.Name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", types.NewBackendError(model.Name,
			fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewBackendError(model.Name, "read response body", err)
	}

	var result types.ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", types.NewBackendError(model.Name, "parse response", err)
	}
	if len(result.Choices) == 0 {
		return "", types.NewBackendError(model.Name, "no choices in response", nil)
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", types.NewBackendError(model.Name, "empty response content", nil)
	}
	return content, nil
}

// ExecuteStream calls the endpoint streaming and emits delta content from
// each "data: " framed event until the [DONE] sentinel or stream close.
// Malformed event lines are skipped, never fatal. The timeout applies to
// each individual read; an upstream that stalls between events is abandoned
// rather than holding the attempt open.
func (e *HTTPExecutor) ExecuteStream(ctx context.Context, req *Request, model *registry.ModelDescriptor, emit Emit) error {
	httpReq, err := e.newRequest(ctx, req, model, true)
	if err != nil {
		return types.NewBackendError(model.Name, "build request", err)
	}

	logger.Info("HTTP model stream",
		zap.String("model", model.ModelID),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return types.NewBackendError(model.Name, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewBackendError(model.Name,
			fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)), nil)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()
	// The reader goroutine must not block on a line nobody consumes after
	// an early exit below
	defer func() {
		go func() {
			for range lines {
			}
		}()
	}()

	emitted := false
	readTimer := time.NewTimer(e.timeout)
	defer readTimer.Stop()

readLoop:
	for {
		select {
		case raw, ok := <-lines:
			if !ok {
				break readLoop
			}
			line := strings.TrimSpace(raw)
			if line != "" && strings.HasPrefix(line, "data: ") {
				data := strings.TrimPrefix(line, "data: ")
				if data == doneSentinel {
					// The producer may still be mid-send; return without
					// waiting on the scanner
					if !emitted {
						return types.NewBackendError(model.Name, "stream produced no output", nil)
					}
					return nil
				}
				if gjson.Valid(data) {
					if content := gjson.Get(data, "choices.0.delta.content").String(); content != "" {
						if err := emit(content); err != nil {
							resp.Body.Close()
							return err
						}
						emitted = true
					}
				}
			}
			if !readTimer.Stop() {
				<-readTimer.C
			}
			readTimer.Reset(e.timeout)
		case <-readTimer.C:
			logger.Error("HTTP stream read timed out", zap.String("model", model.ModelID))
			resp.Body.Close()
			if emitted {
				return types.NewBackendError(model.Name, "stream read timed out", nil)
			}
			return types.NewBackendError(model.Name, "stream timed out before producing output", nil)
		case <-ctx.Done():
			resp.Body.Close()
			return types.NewBackendError(model.Name, "stream canceled", ctx.Err())
		}
	}

	if err := <-scanErr; err != nil {
		if emitted {
			return types.NewBackendError(model.Name, "stream interrupted", err)
		}
		return types.NewBackendError(model.Name, "read stream", err)
	}
	if !emitted {
		return types.NewBackendError(model.Name, "stream produced no output", nil)
	}
	return nil
}

var _ Executor = (*HTTPExecutor)(nil)
