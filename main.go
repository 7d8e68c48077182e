package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/bootstrap"
	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/handler"
	"github.com/bridgekit-ai/llm-bridge/internal/logger"
)

// main is the entry point of the llm-bridge service
func main() {
	var configFile string
	flag.StringVar(&configFile, "f", "etc/llm-bridge.yaml", "the config file")
	flag.Parse()

	c := config.MustLoadConfig(configFile)

	svcCtx := bootstrap.NewServiceContext(c)
	defer svcCtx.Stop()
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterHandlers(router, svcCtx)

	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	logger.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
