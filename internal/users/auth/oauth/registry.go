// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"maps"
	"slices"
)

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers. A later provider with the same
// name replaces an earlier one.
func NewRegistry(list ...Provider) *Registry {
	providers := make(map[string]Provider, len(list))
	for _, provider := range list {
		providers[provider.Name()] = provider
	}
	return &Registry{providers: providers}
}

// Get returns the provider registered under name.
func (registry *Registry) Get(name string) (Provider, bool) {
	if registry == nil {
		return nil, false
	}
	provider, ok := registry.providers[name]
	return provider, ok
}

// Names returns the registered provider names in sorted order.
func (registry *Registry) Names() []string {
	if registry == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(registry.providers))
}
