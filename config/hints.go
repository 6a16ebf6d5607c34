package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"lasertrack/extractor"
)

// DomainHints is the YAML shape of the extraction hints for one vendor domain.
type DomainHints struct {
	PriceAttributes []string          `yaml:"price_attributes"`
	PriceSelectors  []string          `yaml:"price_selectors"`
	Variants        map[string]string `yaml:"variants"` // variant label -> selector
	DecoyContexts   []string          `yaml:"decoy_contexts"`
	// Fetcher selects "static" or "browser" fetching for the domain.
	Fetcher string `yaml:"fetcher"`
}

// HintsFile is the top-level YAML document.
type HintsFile struct {
	Domains map[string]DomainHints `yaml:"domains"`
}

// HintRegistry resolves extraction hints by (domain, variant). Loaded once
// at startup; read-only afterwards, safe for concurrent lookups.
type HintRegistry struct {
	domains map[string]DomainHints
}

// LoadHints reads the per-domain extraction hints from a YAML file. A missing
// file is not fatal: every domain then runs on the resolver's generic tiers.
func LoadHints(path string) (*HintRegistry, error) {
	registry := &HintRegistry{domains: make(map[string]DomainHints)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No hints file at %s, all domains will use generic extraction", path)
			return registry, nil
		}
		return nil, fmt.Errorf("failed to read hints file: %v", err)
	}

	var file HintsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse hints file %s: %v", path, err)
	}

	for domain, hints := range file.Domains {
		registry.domains[normalizeDomain(domain)] = hints
	}

	log.Printf("Loaded extraction hints for %d domains from %s", len(registry.domains), path)
	return registry, nil
}

// Lookup returns the extraction hints for a domain. ok is false when the
// domain has no hints at all (ConfigurationMissing); the caller still gets a
// usable zero value and the resolver reports the degraded method tag.
func (h *HintRegistry) Lookup(domain string) (extractor.Hints, bool) {
	dh, ok := h.domains[normalizeDomain(domain)]
	if !ok {
		return extractor.Hints{}, false
	}

	return extractor.Hints{
		PriceAttributes:  dh.PriceAttributes,
		PriceSelectors:   dh.PriceSelectors,
		VariantSelectors: dh.Variants,
		DecoyContexts:    dh.DecoyContexts,
	}, true
}

// FetcherFor returns the configured fetcher kind for a domain, defaulting to
// "static" with a browser fallback decided by the fetcher itself.
func (h *HintRegistry) FetcherFor(domain string) string {
	if dh, ok := h.domains[normalizeDomain(domain)]; ok && dh.Fetcher != "" {
		return dh.Fetcher
	}
	return ""
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(domain, "www.")
}
