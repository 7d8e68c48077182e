package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

const modelOwner = "llm-bridge"

// ModelsHandler lists the configured models plus the auto sentinel
func ModelsHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := types.ModelListResponse{Object: "list"}
		for _, m := range svcCtx.Registry.All() {
			resp.Data = append(resp.Data, types.NewModelInfo(m.ModelID, modelOwner))
		}
		if svcCtx.Config.Routing.SmartRouting {
			resp.Data = append(resp.Data, types.NewModelInfo(types.ModelAuto, modelOwner+"-router"))
		}
		c.JSON(http.StatusOK, resp)
	}
}
