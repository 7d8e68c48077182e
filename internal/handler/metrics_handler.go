package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
)

// MetricsHandler exposes the Prometheus metrics endpoint
func MetricsHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	handler := promhttp.Handler()
	return gin.WrapH(handler)
}
