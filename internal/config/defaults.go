package config

// Built-in model aliases used when no models are configured
const (
	DefaultOpus   = "opus"
	DefaultSonnet = "sonnet"
	DefaultHaiku  = "haiku"

	defaultCLIProvider = "claude-cli"
)

// applyDefaults fills in zero-valued fields so a minimal (or empty) YAML
// file still yields a working bridge backed by the local claude CLI.
func applyDefaults(c *Config) {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.RequestTimeoutSec == 0 {
		c.RequestTimeoutSec = 300
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 5
	}
	if c.Routing.LongContextThreshold == 0 {
		c.Routing.LongContextThreshold = 50000
	}
	if c.Routing.MaxFallbackAttempts == 0 {
		c.Routing.MaxFallbackAttempts = 2
	}

	if len(c.Models) == 0 {
		if c.Providers == nil {
			c.Providers = map[string]ProviderConfig{}
		}
		if _, ok := c.Providers[defaultCLIProvider]; !ok {
			c.Providers[defaultCLIProvider] = ProviderConfig{Type: ProviderCLI}
		}
		c.Models = map[string]ModelConfig{
			DefaultOpus: {
				ModelID:  "claude-opus-4-0",
				Provider: defaultCLIProvider,
			},
			DefaultSonnet: {
				ModelID:  "claude-sonnet-4-0",
				Provider: defaultCLIProvider,
			},
			DefaultHaiku: {
				ModelID:  "claude-haiku-4-0",
				Provider: defaultCLIProvider,
			},
		}
	}

	for name, m := range c.Models {
		if m.ModelID == "" {
			m.ModelID = name
		}
		if m.ContextWindow == 0 {
			m.ContextWindow = 200000
		}
		if m.MaxTokens == 0 {
			m.MaxTokens = 16384
		}
		c.Models[name] = m
	}
}
