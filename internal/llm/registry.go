package llm

import (
	"fmt"
	"sort"
)

// ProviderFactory builds a provider from its own environment configuration.
type ProviderFactory func() (Provider, error)

var providers = make(map[string]ProviderFactory)

// RegisterProvider is called from the init of each provider package.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

func NewProvider(name string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported text provider: %s (registered: %v)", name, Registered())
	}
	return factory()
}

// Registered lists registered provider names in sorted order.
func Registered() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
