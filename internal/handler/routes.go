package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
)

// RegisterHandlers wires all HTTP routes
func RegisterHandlers(router *gin.Engine, serverCtx *bootstrap.ServiceContext) {
	v1 := router.Group("/v1", AuthMiddleware(serverCtx.Config.APIKey))
	{
		v1.POST("/chat/completions", ChatCompletionHandler(serverCtx))
		v1.GET("/models", ModelsHandler(serverCtx))
	}
	router.GET("/health", HealthHandler(serverCtx))
	router.GET("/metrics", MetricsHandler(serverCtx))
}
