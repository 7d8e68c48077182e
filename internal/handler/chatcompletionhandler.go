package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
	"github.com/bridgekit-ai/llm-bridge/internal/logic"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// ChatCompletionHandler handles chat completion requests
func ChatCompletionHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ChatCompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		l := logic.NewChatCompletionLogic(c.Request.Context(), svcCtx, &req, c.Writer)

		if req.Stream {
			// SSE response headers go out before the first backend attempt
			c.Header("Content-Type", "text/event-stream; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			if flusher, ok := c.Writer.(http.Flusher); ok {
				flusher.Flush()
			}

			// Failures past this point are surfaced in-stream by the logic
			// layer; nothing useful can be done with the returned error
			_ = l.ChatCompletionStream()
			return
		}

		resp, err := l.ChatCompletion()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// writeError maps core errors onto HTTP statuses: exhausted fallback is a
// server-side failure, an empty prompt a client error.
func writeError(c *gin.Context, err error) {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
		return
	}

	var exhausted *types.ExhaustedFallbackError
	if errors.As(err, &exhausted) {
		unavailable := types.NewModelUnavailableError(err.Error())
		c.AbortWithStatusJSON(unavailable.StatusCode, unavailable)
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
