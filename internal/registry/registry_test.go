package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Providers: map[string]config.ProviderConfig{
			"claude-cli": {Type: config.ProviderCLI},
			"openrouter": {Type: config.ProviderHTTP, BaseURL: "https://openrouter.ai/api/v1"},
		},
		Models: map[string]config.ModelConfig{
			"opus":   {ModelID: "claude-opus-4-0", Provider: "claude-cli", ContextWindow: 200000, MaxTokens: 16384},
			"gpt-4o": {ModelID: "gpt-4o-2024-08-06", Provider: "openrouter", ContextWindow: 128000, MaxTokens: 16384},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(testConfig())
	require.NoError(t, err)

	// Stable alias-sorted order
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "gpt-4o", all[0].Name)
	assert.Equal(t, "opus", all[1].Name)
}

func TestNewRegistry_UnknownProvider(t *testing.T) {
	c := testConfig()
	c.Models["broken"] = config.ModelConfig{ModelID: "x", Provider: "missing"}

	_, err := NewRegistry(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewRegistry_NoModels(t *testing.T) {
	_, err := NewRegistry(config.Config{})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	r, err := NewRegistry(testConfig())
	require.NoError(t, err)

	byAlias, ok := r.Lookup("opus")
	require.True(t, ok)
	assert.Equal(t, "claude-opus-4-0", byAlias.ModelID)

	byID, ok := r.Lookup("claude-opus-4-0")
	require.True(t, ok)
	assert.Same(t, byAlias, byID)

	caseFolded, ok := r.Lookup("  OPUS ")
	require.True(t, ok)
	assert.Same(t, byAlias, caseFolded)

	_, ok = r.Lookup("no-such-model")
	assert.False(t, ok)
}

func TestIsCLI(t *testing.T) {
	r, err := NewRegistry(testConfig())
	require.NoError(t, err)

	opus, _ := r.Lookup("opus")
	assert.True(t, opus.IsCLI())

	gpt, _ := r.Lookup("gpt-4o")
	assert.False(t, gpt.IsCLI())
}
