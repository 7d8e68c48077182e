package config

// ProviderType identifies how a backend model is executed
type ProviderType string

const (
	// ProviderCLI runs the model through a local claude CLI subprocess
	ProviderCLI ProviderType = "cli"

	// ProviderHTTP calls an OpenAI-compatible chat completions endpoint
	ProviderHTTP ProviderType = "http"
)

// ProviderConfig holds execution coordinates for one provider
type ProviderConfig struct {
	Type         ProviderType      `mapstructure:"type"`
	BaseURL      string            `mapstructure:"base_url"`
	APIKey       string            `mapstructure:"api_key"`
	CLIPath      string            `mapstructure:"cli_path"`
	ExtraHeaders map[string]string `mapstructure:"extra_headers"`
}

// ModelConfig describes one backend model exposed by the bridge
type ModelConfig struct {
	ModelID       string `mapstructure:"model_id"`
	Provider      string `mapstructure:"provider"`
	ContextWindow int    `mapstructure:"context_window"`
	MaxTokens     int    `mapstructure:"max_tokens"`
}

// SignalsConfig allows overriding the classifier's regex signal sets.
// Empty lists keep the built-in defaults.
type SignalsConfig struct {
	Complex   []string `mapstructure:"complex"`
	Reasoning []string `mapstructure:"reasoning"`
	Code      []string `mapstructure:"code"`
	Simple    []string `mapstructure:"simple"`
	Moderate  []string `mapstructure:"moderate"`
}

// RoutingConfig holds smart routing configuration
type RoutingConfig struct {
	// SmartRouting enables scenario classification for the auto sentinel
	SmartRouting bool `mapstructure:"smart_routing"`

	// LongContextThreshold is the estimated token count above which a
	// request is classified long-context
	LongContextThreshold int `mapstructure:"long_context_threshold"`

	// MaxFallbackAttempts bounds how many fallback candidates are tried
	// after the primary
	MaxFallbackAttempts int `mapstructure:"max_fallback_attempts"`

	// ScenarioModels maps scenario -> primary model name/id override
	ScenarioModels map[string]string `mapstructure:"scenario_models"`

	// FallbackChains maps scenario -> ordered model name/id override list
	FallbackChains map[string][]string `mapstructure:"fallback_chains"`

	// Signals overrides the classifier pattern sets
	Signals SignalsConfig `mapstructure:"signals"`
}

// Config holds all service configuration, loaded once at startup
type Config struct {
	// Server configuration
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`

	// Execution limits
	RequestTimeoutSec int `mapstructure:"request_timeout_sec"`
	MaxConcurrent     int `mapstructure:"max_concurrent"`

	// Chat log output path, empty disables the async chat log
	ChatLogPath string `mapstructure:"chat_log_path"`

	// Backend catalog
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`

	// Routing configuration
	Routing RoutingConfig `mapstructure:"routing"`
}
