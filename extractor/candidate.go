package extractor

import (
	"github.com/shopspring/decimal"
)

// MethodTag records which extraction strategy produced a price candidate.
// It is persisted alongside every price so extraction failures can be
// audited after the fact.
type MethodTag string

const (
	MethodVariantSelector     MethodTag = "variant-specific-selector"
	MethodStructuredAttribute MethodTag = "structured-attribute"
	MethodCSSClassMatch       MethodTag = "css-class-match"
	MethodTextPattern         MethodTag = "text-pattern-match"
	MethodNone                MethodTag = "none"
)

// PriceCandidate represents a single price-like value found on a page,
// together with the context needed to choose between competing candidates.
type PriceCandidate struct {
	Value         decimal.Decimal
	Currency      string
	SourceLocator string // the attribute, selector or text span it came from
	Context       string // surrounding text (parent element)
	VariantLabel  string // variant the source is scoped to, empty if none
	Method        MethodTag
	DocumentOrder int
}

// ResolvedPrice is the outcome of one resolution attempt. When no candidate
// survives filtering, Found is false and Method is MethodNone; that is an
// expected outcome, not an error.
type ResolvedPrice struct {
	Candidate PriceCandidate
	Method    MethodTag
	Found     bool
	// Degraded is set when the resolver had to fall back below the tier the
	// caller asked for: no hints registered for the domain, or a variant was
	// requested but had no dedicated source.
	Degraded bool
	Note     string
}

// Hints carries the per-domain extraction configuration the resolver works
// from. A zero Hints value makes the resolver run on its generic defaults.
type Hints struct {
	// PriceAttributes are data attribute names that hold the price directly,
	// e.g. "data-price". Checked in tier 2.
	PriceAttributes []string
	// PriceSelectors are CSS selectors known to denote price on this domain.
	// Checked in tier 3.
	PriceSelectors []string
	// VariantSelectors maps a variant label (e.g. "80W") to a selector scoped
	// to that variant. Checked first.
	VariantSelectors map[string]string
	// DecoyContexts are extra words that mark a number as a non-price for
	// this domain, on top of the built-in wavelength/wattage/power/SKU list.
	DecoyContexts []string
}

// IsZero reports whether no hints were configured at all.
func (h Hints) IsZero() bool {
	return len(h.PriceAttributes) == 0 && len(h.PriceSelectors) == 0 &&
		len(h.VariantSelectors) == 0 && len(h.DecoyContexts) == 0
}
