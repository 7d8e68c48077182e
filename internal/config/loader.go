package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/logger"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment variable value
func expandEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})
}

// loadConfig loads configuration from the specified file path using viper
func loadConfig(configPath string) (Config, error) {
	var c Config

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	// A bool zero value cannot distinguish "omitted" from "false", so the
	// on-by-default flag is declared to viper instead of applyDefaults
	viper.SetDefault("routing.smart_routing", true)
	if err := viper.ReadInConfig(); err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&c)

	// Credentials in YAML reference environment variables, resolved once here
	for key, p := range c.Providers {
		p.APIKey = expandEnvVars(p.APIKey)
		for h, v := range p.ExtraHeaders {
			p.ExtraHeaders[h] = expandEnvVars(v)
		}
		c.Providers[key] = p
	}

	logger.Info("loaded config",
		zap.String("path", configPath),
		zap.Int("models", len(c.Models)),
		zap.Int("providers", len(c.Providers)),
	)

	return c, nil
}

// MustLoadConfig loads configuration and panics if there's an error
func MustLoadConfig(configPath string) Config {
	c, err := loadConfig(configPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return c
}
