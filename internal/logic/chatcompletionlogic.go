package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
	"github.com/bridgekit-ai/llm-bridge/internal/executor"
	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/orchestrator"
	"github.com/bridgekit-ai/llm-bridge/internal/service"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
	"github.com/bridgekit-ai/llm-bridge/internal/utils"
)

type ChatCompletionLogic struct {
	ctx    context.Context
	svcCtx *bootstrap.ServiceContext
	req    *types.ChatCompletionRequest
	writer http.ResponseWriter
}

func NewChatCompletionLogic(ctx context.Context, svcCtx *bootstrap.ServiceContext, req *types.ChatCompletionRequest, writer http.ResponseWriter) *ChatCompletionLogic {
	return &ChatCompletionLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		req:    req,
		writer: writer,
	}
}

// buildExecRequest prepares the prompt material once per request
func (l *ChatCompletionLogic) buildExecRequest() *executor.Request {
	systemPrompt, prompt := utils.FlattenMessages(l.req.Messages)
	return &executor.Request{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Messages:     l.req.Messages,
		Temperature:  l.req.Temperature,
		MaxTokens:    l.req.MaxTokens,
	}
}

// ChatCompletion handles a non-streaming chat completion request
func (l *ChatCompletionLogic) ChatCompletion() (*types.ChatCompletionResponse, error) {
	if !l.req.HasContent() {
		return nil, types.NewEmptyPromptError()
	}

	startTime := time.Now()
	decision := l.svcCtx.Policy.Route(l.req)

	chatLog := &service.ChatLog{
		RequestID:      types.NewCompletionID(),
		Timestamp:      startTime,
		RequestedModel: l.req.Model,
		Scenario:       string(decision.Scenario),
		Reason:         decision.Reason,
	}
	l.svcCtx.Metrics.RecordScenario(string(decision.Scenario))

	defer func() {
		chatLog.TotalLatencyMs = time.Since(startTime).Milliseconds()
		l.svcCtx.Metrics.RecordTotalLatency(chatLog.ModelUsed, float64(chatLog.TotalLatencyMs))
		l.svcCtx.ChatLog.LogAsync(chatLog)
	}()

	modelStart := time.Now()
	text, used, err := l.svcCtx.Orchestrator.RunWithFallback(l.ctx, l.buildExecRequest(), decision)
	chatLog.ModelLatencyMs = time.Since(modelStart).Milliseconds()

	if err != nil {
		chatLog.Status = "error"
		chatLog.Error = err.Error()
		var exhausted *types.ExhaustedFallbackError
		if errors.As(err, &exhausted) {
			l.svcCtx.Metrics.RecordError("exhausted_fallback", exhausted.LastModel)
		}
		l.svcCtx.Metrics.RecordRequest(decision.Primary.Name, false, "error")
		return nil, err
	}

	chatLog.Status = "ok"
	chatLog.ModelUsed = used.ModelID
	chatLog.FallbackUsed = used != decision.Primary
	chatLog.ResponseSample = utils.TruncateContent(text, 500)
	if chatLog.FallbackUsed {
		l.svcCtx.Metrics.RecordFallback(string(decision.Scenario), used.Name)
	}
	l.svcCtx.Metrics.RecordRequest(used.Name, false, "ok")
	l.svcCtx.Metrics.RecordModelLatency(used.Name, float64(chatLog.ModelLatencyMs))

	usage := l.svcCtx.TokenCounter.Usage(l.req.Messages, text)
	chatLog.Usage = usage

	return types.NewChatCompletionResponse(text, used.ModelID, usage), nil
}

// ChatCompletionStream handles a streaming chat completion with SSE framing.
// Response headers are already sent when this runs, so every failure is
// surfaced inside the stream.
func (l *ChatCompletionLogic) ChatCompletionStream() error {
	if !l.req.HasContent() {
		l.sendSSEError("No prompt content in messages", nil)
		return types.NewEmptyPromptError()
	}

	flusher, ok := l.writer.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported")
	}

	startTime := time.Now()
	decision := l.svcCtx.Policy.Route(l.req)

	chatLog := &service.ChatLog{
		RequestID:      types.NewCompletionID(),
		Timestamp:      startTime,
		RequestedModel: l.req.Model,
		Scenario:       string(decision.Scenario),
		Reason:         decision.Reason,
		Stream:         true,
	}
	l.svcCtx.Metrics.RecordScenario(string(decision.Scenario))

	defer func() {
		chatLog.TotalLatencyMs = time.Since(startTime).Milliseconds()
		l.svcCtx.Metrics.RecordTotalLatency(chatLog.ModelUsed, float64(chatLog.TotalLatencyMs))
		l.svcCtx.ChatLog.LogAsync(chatLog)
	}()

	chunkID := types.NewCompletionID()
	actualModel := decision.Primary

	// Initial chunk carrying the assistant role
	if err := l.writeChunk(types.FirstChunk(chunkID, actualModel.ModelID), flusher); err != nil {
		return err
	}

	var responseContent strings.Builder
	modelStart := time.Now()

	streamErr := l.svcCtx.Orchestrator.StreamWithFallback(l.ctx, l.buildExecRequest(), decision, func(f orchestrator.Fragment) error {
		actualModel = f.Model
		responseContent.WriteString(f.Text)
		return l.writeChunk(types.TextChunk(chunkID, f.Model.ModelID, f.Text), flusher)
	})

	chatLog.ModelLatencyMs = time.Since(modelStart).Milliseconds()
	chatLog.ModelUsed = actualModel.ModelID
	chatLog.FallbackUsed = actualModel != decision.Primary
	chatLog.ResponseSample = utils.TruncateContent(responseContent.String(), 500)

	if streamErr != nil {
		chatLog.Status = "error"
		chatLog.Error = streamErr.Error()
		var exhausted *types.ExhaustedFallbackError
		if errors.As(streamErr, &exhausted) {
			l.svcCtx.Metrics.RecordError("exhausted_fallback", exhausted.LastModel)
			// Headers are out; the failure must be visible inside the stream
			_ = l.writeChunk(types.TextChunk(chunkID, actualModel.ModelID,
				fmt.Sprintf("\n\n[Error: %v]", streamErr)), flusher)
		} else {
			logger.Error("stream aborted", zap.Error(streamErr))
			l.svcCtx.Metrics.RecordError("stream_aborted", actualModel.Name)
			return streamErr
		}
	} else {
		chatLog.Status = "ok"
		if chatLog.FallbackUsed {
			l.svcCtx.Metrics.RecordFallback(string(decision.Scenario), actualModel.Name)
		}
		l.svcCtx.Metrics.RecordModelLatency(actualModel.Name, float64(chatLog.ModelLatencyMs))
	}
	l.svcCtx.Metrics.RecordRequest(actualModel.Name, true, chatLog.Status)

	chatLog.Usage = l.svcCtx.TokenCounter.Usage(l.req.Messages, responseContent.String())

	// Terminal chunks close the stream normally in every surviving path
	if err := l.writeChunk(types.DoneChunk(chunkID, actualModel.ModelID), flusher); err != nil {
		return err
	}
	if _, err := fmt.Fprint(l.writer, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeChunk serializes one chunk as an SSE data event and flushes it
func (l *ChatCompletionLogic) writeChunk(chunk *types.ChatCompletionChunk, flusher http.Flusher) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}
	if _, err := fmt.Fprintf(l.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// sendSSEError sends an error event in SSE format followed by [DONE]
func (l *ChatCompletionLogic) sendSSEError(message string, err error) {
	logger.Error(message, zap.Error(err))

	detail := message
	if err != nil {
		detail = fmt.Sprintf("%s: %v", message, err)
	}
	errorResponse := map[string]any{
		"error": map[string]any{
			"message": detail,
			"type":    "server_error",
			"code":    "internal_error",
		},
	}

	if data, marshalErr := json.Marshal(errorResponse); marshalErr == nil {
		fmt.Fprintf(l.writer, "data: %s\n\n", data)
	} else {
		fmt.Fprint(l.writer, "data: {\"error\":{\"message\":\"Internal server error\",\"type\":\"server_error\"}}\n\n")
	}
	fmt.Fprint(l.writer, "data: [DONE]\n\n")

	if flusher, ok := l.writer.(http.Flusher); ok {
		flusher.Flush()
	}
}
