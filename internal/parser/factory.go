package parser

import (
	"fmt"
	"sync"

	"weddingplan/internal/config"
	"weddingplan/internal/port"
)

// ProviderFactory creates a VendorExtractor from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.VendorExtractor, error)

// registry of provider factories, populated by cmd/server via RegisterProvider.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a parser provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewParser creates a VendorExtractor from a provider config using the registered factory.
func NewParser(cfg *config.ParserProviderConfig) (port.VendorExtractor, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewChain builds one extractor per configured provider slot. A single provider is
// returned as-is; several are wrapped in a FallbackParser in slot order.
func NewChain(providerCfgs []config.ParserProviderConfig, opts ...FallbackOption) (port.VendorExtractor, error) {
	if len(providerCfgs) == 0 {
		return nil, fmt.Errorf("no parser provider configured")
	}
	extractors := make([]port.VendorExtractor, 0, len(providerCfgs))
	names := make([]string, 0, len(providerCfgs))
	for i := range providerCfgs {
		p, err := NewParser(&providerCfgs[i])
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, p)
		names = append(names, providerCfgs[i].Provider)
	}
	if len(extractors) == 1 {
		return extractors[0], nil
	}
	return NewFallbackParser(extractors, names, opts...), nil
}
