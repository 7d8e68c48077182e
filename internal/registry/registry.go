package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
)

// ModelDescriptor is the immutable identity and execution coordinates of one
// backend model. Instances are created at configuration load time and never
// mutated, so concurrent reads need no synchronization.
type ModelDescriptor struct {
	// Name is the stable alias the bridge exposes ("opus", "gpt-4o", ...)
	Name string

	// ModelID is the backend-specific identifier
	ModelID string

	// Provider holds execution coordinates (CLI path or base URL + credential)
	Provider config.ProviderConfig

	ContextWindow int
	MaxTokens     int
}

// IsCLI reports whether the model is executed through a local subprocess
func (m *ModelDescriptor) IsCLI() bool {
	return m.Provider.Type == config.ProviderCLI
}

// Registry is the read-only catalog of configured backend models, resolvable
// by either alias or model id.
type Registry struct {
	models []*ModelDescriptor
	byKey  map[string]*ModelDescriptor
}

// NewRegistry builds a registry from configuration. Models referencing an
// unknown provider are rejected.
func NewRegistry(c config.Config) (*Registry, error) {
	r := &Registry{
		byKey: make(map[string]*ModelDescriptor),
	}

	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mc := c.Models[name]
		provider, ok := c.Providers[mc.Provider]
		if !ok {
			return nil, fmt.Errorf("model %q references unknown provider %q", name, mc.Provider)
		}

		m := &ModelDescriptor{
			Name:          name,
			ModelID:       mc.ModelID,
			Provider:      provider,
			ContextWindow: mc.ContextWindow,
			MaxTokens:     mc.MaxTokens,
		}
		r.models = append(r.models, m)
		r.byKey[strings.ToLower(m.Name)] = m
		r.byKey[strings.ToLower(m.ModelID)] = m
	}

	if len(r.models) == 0 {
		return nil, fmt.Errorf("no models configured")
	}

	return r, nil
}

// Lookup resolves a model by alias or model id, case-insensitively
func (r *Registry) Lookup(key string) (*ModelDescriptor, bool) {
	m, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return m, ok
}

// All returns the configured models in stable (alias-sorted) order
func (r *Registry) All() []*ModelDescriptor {
	return r.models
}
