package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.NewRegistry(config.Config{
		Providers: map[string]config.ProviderConfig{
			"cli": {Type: config.ProviderCLI},
		},
		Models: map[string]config.ModelConfig{
			"opus":   {ModelID: "claude-opus-4-0", Provider: "cli"},
			"sonnet": {ModelID: "claude-sonnet-4-0", Provider: "cli"},
			"haiku":  {ModelID: "claude-haiku-4-0", Provider: "cli"},
		},
	})
	require.NoError(t, err)
	return reg
}

func simpleRequest() *types.ChatCompletionRequest {
	return &types.ChatCompletionRequest{
		Model:    types.ModelAuto,
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	}
}

func assertChainInvariants(t *testing.T, d *RoutingDecision) {
	t.Helper()
	seen := map[string]bool{}
	for _, m := range d.FallbackChain {
		assert.NotEqual(t, d.Primary.ModelID, m.ModelID, "fallback chain must not contain the primary")
		assert.False(t, seen[m.ModelID], "fallback chain must not contain duplicates")
		seen[m.ModelID] = true
	}
}

func TestRoute_SimpleGoesToHaiku(t *testing.T) {
	p := NewPolicy(testRegistry(t), testRoutingConfig())

	d := p.Route(simpleRequest())

	assert.Equal(t, ScenarioSimple, d.Scenario)
	assert.Equal(t, "haiku", d.Primary.Name)
	assertChainInvariants(t, d)
}

func TestRoute_ExplicitModelHonored(t *testing.T) {
	p := NewPolicy(testRegistry(t), testRoutingConfig())

	req := simpleRequest()
	req.Model = "claude-opus-4-0"
	d := p.Route(req)

	assert.Equal(t, "opus", d.Primary.Name)
	assert.Contains(t, d.Reason, "Explicit model request")
	// Scenario is still classified for the fallback chain
	assert.Equal(t, ScenarioSimple, d.Scenario)
	assertChainInvariants(t, d)
}

func TestRoute_ExplicitModelByAlias(t *testing.T) {
	p := NewPolicy(testRegistry(t), testRoutingConfig())

	req := simpleRequest()
	req.Model = "Sonnet"
	d := p.Route(req)

	assert.Equal(t, "sonnet", d.Primary.Name)
	assertChainInvariants(t, d)
}

func TestRoute_UnknownModelFallsBackToSmartRouting(t *testing.T) {
	p := NewPolicy(testRegistry(t), testRoutingConfig())

	req := simpleRequest()
	req.Model = "gpt-42"
	d := p.Route(req)

	assert.Equal(t, ScenarioSimple, d.Scenario)
	assert.Equal(t, "haiku", d.Primary.Name)
	assertChainInvariants(t, d)
}

func TestRoute_ScenarioModelOverride(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.ScenarioModels = map[string]string{"simple": "sonnet"}

	p := NewPolicy(testRegistry(t), cfg)
	d := p.Route(simpleRequest())

	assert.Equal(t, "sonnet", d.Primary.Name)
	assertChainInvariants(t, d)
}

func TestRoute_FallbackChainOverride(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.FallbackChains = map[string][]string{"simple": {"opus", "sonnet"}}

	p := NewPolicy(testRegistry(t), cfg)
	d := p.Route(simpleRequest())

	require.Len(t, d.FallbackChain, 2)
	assert.Equal(t, "opus", d.FallbackChain[0].Name)
	assert.Equal(t, "sonnet", d.FallbackChain[1].Name)
	assertChainInvariants(t, d)
}

func TestRoute_UnknownOverrideEntriesSkipped(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.FallbackChains = map[string][]string{"simple": {"no-such-model", "sonnet"}}

	p := NewPolicy(testRegistry(t), cfg)
	d := p.Route(simpleRequest())

	require.Len(t, d.FallbackChain, 1)
	assert.Equal(t, "sonnet", d.FallbackChain[0].Name)
}

func TestRoute_DuplicateOverrideEntriesDeduplicated(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.FallbackChains = map[string][]string{"simple": {"sonnet", "sonnet", "haiku", "opus"}}

	p := NewPolicy(testRegistry(t), cfg)
	d := p.Route(simpleRequest())

	// haiku is primary for simple: it is stripped along with the duplicate
	require.Len(t, d.FallbackChain, 2)
	assert.Equal(t, "sonnet", d.FallbackChain[0].Name)
	assert.Equal(t, "opus", d.FallbackChain[1].Name)
	assertChainInvariants(t, d)
}

func TestRoute_SmartRoutingDisabled(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.SmartRouting = false
	p := NewPolicy(testRegistry(t), cfg)

	// The auto sentinel no longer inspects content: everything is moderate
	d := p.Route(simpleRequest())
	assert.Equal(t, ScenarioModerate, d.Scenario)
	assert.Equal(t, "sonnet", d.Primary.Name)
	assert.Equal(t, "Smart routing disabled", d.Reason)
	assertChainInvariants(t, d)

	// Explicit model requests are still honored
	req := simpleRequest()
	req.Model = "opus"
	d = p.Route(req)
	assert.Equal(t, "opus", d.Primary.Name)
	assertChainInvariants(t, d)
}

func TestRoute_AllScenariosYieldChains(t *testing.T) {
	p := NewPolicy(testRegistry(t), testRoutingConfig())

	for _, scenario := range AllScenarios {
		primary := p.scenarioModel(scenario)
		assert.NotNil(t, primary, string(scenario))
		chain := withoutPrimary(p.fallbackChain(scenario), primary)
		for _, m := range chain {
			assert.NotEqual(t, primary.ModelID, m.ModelID, string(scenario))
		}
	}
}
