package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHints = `
domains:
  lasershop.example.com:
    price_attributes:
      - data-price
    price_selectors:
      - ".price-current"
    variants:
      80W: ".variant-80w .price-value"
    decoy_contexts:
      - spec-badge
    fetcher: browser
  www.engravers.example:
    price_selectors:
      - ".product-price"
`

func writeHints(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHintsAndLookup(t *testing.T) {
	registry, err := LoadHints(writeHints(t, sampleHints))
	require.NoError(t, err)

	hints, ok := registry.Lookup("lasershop.example.com")
	require.True(t, ok)
	assert.Equal(t, []string{"data-price"}, hints.PriceAttributes)
	assert.Equal(t, ".variant-80w .price-value", hints.VariantSelectors["80W"])
	assert.Equal(t, []string{"spec-badge"}, hints.DecoyContexts)
}

func TestLookupStripsWWWPrefix(t *testing.T) {
	registry, err := LoadHints(writeHints(t, sampleHints))
	require.NoError(t, err)

	// stored with www., looked up without
	hints, ok := registry.Lookup("engravers.example")
	require.True(t, ok)
	assert.Equal(t, []string{".product-price"}, hints.PriceSelectors)

	// stored without www., looked up with
	_, ok = registry.Lookup("www.lasershop.example.com")
	assert.True(t, ok)
}

func TestLookupUnknownDomain(t *testing.T) {
	registry, err := LoadHints(writeHints(t, sampleHints))
	require.NoError(t, err)

	hints, ok := registry.Lookup("unknown.example")
	assert.False(t, ok, "missing configuration is reported, not invented")
	assert.True(t, hints.IsZero())
}

func TestLoadHintsMissingFile(t *testing.T) {
	registry, err := LoadHints(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "missing hints file is not fatal")

	_, ok := registry.Lookup("anything.example")
	assert.False(t, ok)
}

func TestFetcherFor(t *testing.T) {
	registry, err := LoadHints(writeHints(t, sampleHints))
	require.NoError(t, err)

	assert.Equal(t, "browser", registry.FetcherFor("lasershop.example.com"))
	assert.Equal(t, "", registry.FetcherFor("engravers.example"))
}
