package tts

import (
	"fmt"
	"sort"
	"strings"
)

type SynthesizerFactory func() (Synthesizer, error)

var registry = make(map[string]SynthesizerFactory)

func RegisterSynthesizer(name string, factory SynthesizerFactory) {
	registry[name] = factory
}

func NewSynthesizer(name string) (Synthesizer, error) {
	factory, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown tts provider: %s (registered: %s)", name, strings.Join(Registered(), ", "))
	}
	return factory()
}

// Registered returns the registered provider names, sorted.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
