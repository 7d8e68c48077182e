package bootstrap

import (
	"time"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/executor"
	"github.com/bridgekit-ai/llm-bridge/internal/orchestrator"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/router"
	"github.com/bridgekit-ai/llm-bridge/internal/service"
	"github.com/bridgekit-ai/llm-bridge/internal/tokenizer"
)

// ServiceContext holds all service dependencies
type ServiceContext struct {
	Config config.Config

	// Core routing and execution
	Registry     *registry.Registry
	Policy       *router.Policy
	Orchestrator *orchestrator.Orchestrator

	// Services
	Metrics *service.MetricsService
	ChatLog *service.ChatLogService

	// Utilities
	TokenCounter *tokenizer.TokenCounter
}

// NewServiceContext creates a new service context with all dependencies
func NewServiceContext(c config.Config) *ServiceContext {
	reg, err := registry.NewRegistry(c)
	if err != nil {
		panic("Failed to build model registry: " + err.Error())
	}

	policy := router.NewPolicy(reg, c.Routing)

	metrics := service.NewMetricsService()

	dispatcher := executor.NewDispatcher(time.Duration(c.RequestTimeoutSec) * time.Second)
	orch := orchestrator.New(dispatcher, c.MaxConcurrent, c.Routing.MaxFallbackAttempts)
	orch.SetActiveGauge(metrics.ActiveExecutions())

	tokenCounter, err := tokenizer.NewTokenCounter()
	if err != nil {
		// Usage accounting degrades to the character heuristic
		tokenCounter = nil
	}

	chatLog := service.NewChatLogService(c.ChatLogPath)
	if err := chatLog.Start(); err != nil {
		panic("Failed to start chat log service: " + err.Error())
	}

	return &ServiceContext{
		Config:       c,
		Registry:     reg,
		Policy:       policy,
		Orchestrator: orch,
		Metrics:      metrics,
		ChatLog:      chatLog,
		TokenCounter: tokenCounter,
	}
}

// Stop gracefully stops all services
func (svc *ServiceContext) Stop() {
	if svc.ChatLog != nil {
		svc.ChatLog.Stop()
	}
}
