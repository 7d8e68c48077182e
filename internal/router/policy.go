package router

import (
	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// RoutingDecision is the routing policy's verdict for one request. It is
// created once per request and consumed read-only by the orchestrator.
type RoutingDecision struct {
	Scenario Scenario
	Reason   string

	// Primary is the model attempted first
	Primary *registry.ModelDescriptor

	// FallbackChain is the ordered list of backup models. It never contains
	// Primary and holds no duplicates.
	FallbackChain []*registry.ModelDescriptor
}

// Default primary model per scenario (by built-in alias)
var defaultScenarioModels = map[Scenario]string{
	ScenarioComplex:     config.DefaultOpus,
	ScenarioCode:        config.DefaultSonnet,
	ScenarioLongContext: config.DefaultOpus,
	ScenarioModerate:    config.DefaultSonnet,
	ScenarioSimple:      config.DefaultHaiku,
}

// Default fallback chains per scenario, best to worst for that scenario
var defaultFallbackChains = map[Scenario][]string{
	ScenarioComplex:     {config.DefaultOpus, config.DefaultSonnet, config.DefaultHaiku},
	ScenarioCode:        {config.DefaultSonnet, config.DefaultOpus, config.DefaultHaiku},
	ScenarioLongContext: {config.DefaultOpus, config.DefaultSonnet},
	ScenarioModerate:    {config.DefaultSonnet, config.DefaultHaiku, config.DefaultOpus},
	ScenarioSimple:      {config.DefaultHaiku, config.DefaultSonnet},
}

// Policy maps a classified request to a primary model and an ordered
// fallback chain, honoring configuration overrides.
type Policy struct {
	registry   *registry.Registry
	classifier *Classifier
	routing    config.RoutingConfig
}

// NewPolicy creates a routing policy over the given registry
func NewPolicy(reg *registry.Registry, routing config.RoutingConfig) *Policy {
	return &Policy{
		registry:   reg,
		classifier: NewClassifier(routing),
		routing:    routing,
	}
}

// Classifier exposes the policy's classifier
func (p *Policy) Classifier() *Classifier {
	return p.classifier
}

// resolveChain resolves a list of model identifiers against the registry,
// skipping unknown entries with a warning.
func (p *Policy) resolveChain(ids []string) []*registry.ModelDescriptor {
	chain := make([]*registry.ModelDescriptor, 0, len(ids))
	for _, id := range ids {
		m, ok := p.registry.Lookup(id)
		if !ok {
			logger.Warn("unknown model in fallback chain, skipping",
				zap.String("model", id),
			)
			continue
		}
		chain = append(chain, m)
	}
	return chain
}

// fallbackChain returns the fallback chain for a scenario, preferring the
// configured override over the built-in default ordering.
func (p *Policy) fallbackChain(scenario Scenario) []*registry.ModelDescriptor {
	if override, ok := p.routing.FallbackChains[string(scenario)]; ok {
		if chain := p.resolveChain(override); len(chain) > 0 {
			return chain
		}
	}

	if chain := p.resolveChain(defaultFallbackChains[scenario]); len(chain) > 0 {
		return chain
	}

	// Custom model sets without the built-in aliases still get a chain:
	// every configured model, in registry order
	return p.registry.All()
}

// scenarioModel returns the primary model for a scenario, preferring the
// configured override.
func (p *Policy) scenarioModel(scenario Scenario) *registry.ModelDescriptor {
	if override, ok := p.routing.ScenarioModels[string(scenario)]; ok {
		if m, found := p.registry.Lookup(override); found {
			return m
		}
		logger.Warn("unknown model in scenario override",
			zap.String("scenario", string(scenario)),
			zap.String("model", override),
		)
	}

	if m, ok := p.registry.Lookup(defaultScenarioModels[scenario]); ok {
		return m
	}

	return p.fallbackChain(scenario)[0]
}

// withoutPrimary strips the primary model and duplicates from a chain
func withoutPrimary(chain []*registry.ModelDescriptor, primary *registry.ModelDescriptor) []*registry.ModelDescriptor {
	seen := map[string]bool{primary.ModelID: true}
	out := make([]*registry.ModelDescriptor, 0, len(chain))
	for _, m := range chain {
		if seen[m.ModelID] {
			continue
		}
		seen[m.ModelID] = true
		out = append(out, m)
	}
	return out
}

// classify runs the scenario classifier, unless smart routing is disabled;
// then every request is treated as moderate and no content is inspected.
func (p *Policy) classify(req *types.ChatCompletionRequest) Classification {
	if !p.routing.SmartRouting {
		return Classification{
			Scenario: ScenarioModerate,
			Reason:   "Smart routing disabled",
		}
	}
	return p.classifier.Classify(req)
}

// Route analyzes a request and decides which model should serve it.
//
// An explicitly requested model that resolves in the registry is honored as
// primary; the scenario is still classified to select its fallback chain.
// The auto sentinel (and unresolvable names) go through scenario-based
// selection instead. Routing never fails.
func (p *Policy) Route(req *types.ChatCompletionRequest) *RoutingDecision {
	cls := p.classify(req)

	if !types.IsAutoModel(req.Model) {
		if explicit, ok := p.registry.Lookup(req.Model); ok {
			chain := withoutPrimary(p.fallbackChain(cls.Scenario), explicit)
			logger.Info("explicit model routing",
				zap.String("model", explicit.ModelID),
				zap.String("scenario", string(cls.Scenario)),
				zap.String("reason", cls.Reason),
				zap.Int("fallbacks", len(chain)),
			)
			return &RoutingDecision{
				Scenario:      cls.Scenario,
				Reason:        "Explicit model request. Scenario detected: " + cls.Reason,
				Primary:       explicit,
				FallbackChain: chain,
			}
		}
		logger.Warn("requested model not found, falling back to smart routing",
			zap.String("model", req.Model),
		)
	}

	primary := p.scenarioModel(cls.Scenario)
	chain := withoutPrimary(p.fallbackChain(cls.Scenario), primary)

	logger.Info("smart routing",
		zap.String("scenario", string(cls.Scenario)),
		zap.String("model", primary.Name),
		zap.String("reason", cls.Reason),
		zap.Int("fallbacks", len(chain)),
	)

	return &RoutingDecision{
		Scenario:      cls.Scenario,
		Reason:        cls.Reason,
		Primary:       primary,
		FallbackChain: chain,
	}
}
