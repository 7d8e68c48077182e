package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
)

// HealthHandler reports service status and the available model set
func HealthHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		models := make([]string, 0, len(svcCtx.Registry.All()))
		for _, m := range svcCtx.Registry.All() {
			models = append(models, m.ModelID)
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"smart_routing": svcCtx.Config.Routing.SmartRouting,
			"models":        models,
		})
	}
}
