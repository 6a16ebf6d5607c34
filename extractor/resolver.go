package extractor

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// ResolverConfig tunes candidate filtering.
type ResolverConfig struct {
	// OutlierMultiple discards text-tier candidates whose magnitude differs
	// from the page median by more than this factor.
	OutlierMultiple float64
	// MinPlausiblePrice is the floor below which a text-tier match is not
	// considered a price at all.
	MinPlausiblePrice float64
}

// DefaultResolverConfig returns the default resolver configuration.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		OutlierMultiple:   10,
		MinPlausiblePrice: 1,
	}
}

// Resolver extracts price candidates from a fetched page and selects the one
// that belongs to the requested product/variant. It is stateless and safe for
// concurrent use.
type Resolver struct {
	cfg    ResolverConfig
	parser *PriceParser
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.OutlierMultiple <= 1 {
		cfg.OutlierMultiple = DefaultResolverConfig().OutlierMultiple
	}
	if cfg.MinPlausiblePrice <= 0 {
		cfg.MinPlausiblePrice = DefaultResolverConfig().MinPlausiblePrice
	}
	return &Resolver{cfg: cfg, parser: NewPriceParser()}
}

// Default structured price attributes, used when the domain has no hints.
var defaultPriceAttributes = []string{
	"data-price", "data-product-price", "data-current-price", "data-price-amount",
}

// Default price selectors, used when the domain has no hints.
var defaultPriceSelectors = []string{
	".price", ".current-price", ".product-price", ".sale-price",
	".price__current", ".price-item--sale", ".money",
	"[class*='price']", "[id*='price']",
}

// Built-in context words marking a number as a non-price. Laser engraver
// listings are full of wavelength and wattage figures that look like prices.
var builtinDecoyContexts = []string{
	"wavelength", "wattage", "power", "sku",
}

// nonPriceUnitRe catches numbers glued to physical units (1064nm, 450 mW).
var nonPriceUnitRe = regexp.MustCompile(`(?i)[0-9]\s*(nm|mw|kw|khz|mm)\b`)

// Financing and promo text that carries a currency symbol but not the price.
var skipTextMarkers = []string{
	"/mo", "monthly", "apr", "affirm", "starting at", "from ",
}

// Resolve extracts all plausible price candidates from the page and selects
// one. variant may be empty when the product has a single configuration.
func (r *Resolver) Resolve(doc *goquery.Document, variant string, hints Hints) ResolvedPrice {
	degraded := false
	note := ""
	if hints.IsZero() {
		degraded = true
		note = "no extraction hints registered; using generic tiers"
	}

	order := 0

	// Tier 1: variant-specific structured source
	if variant != "" {
		if sel, ok := variantSelector(hints, variant); ok {
			candidates := r.collectFromSelector(doc, sel, MethodVariantSelector, variant, &order)
			if len(candidates) > 0 {
				return r.pick(candidates, variant, degraded, note)
			}
			note = fmt.Sprintf("variant selector %q matched nothing; falling back", sel)
			degraded = true
		} else {
			// AmbiguousVariant: a generic tier has to stand in
			note = fmt.Sprintf("no variant-specific source for %q", variant)
			degraded = true
		}
	}

	// Tier 2: general structured price attributes
	attrs := hints.PriceAttributes
	if len(attrs) == 0 {
		attrs = defaultPriceAttributes
	}
	if candidates := r.collectFromAttributes(doc, attrs, &order); len(candidates) > 0 {
		return r.pick(candidates, variant, degraded, note)
	}

	// Tier 3: configured CSS-class selectors
	selectors := hints.PriceSelectors
	if len(selectors) == 0 {
		selectors = defaultPriceSelectors
	}
	var cssCandidates []PriceCandidate
	for _, sel := range selectors {
		cssCandidates = append(cssCandidates, r.collectFromSelector(doc, sel, MethodCSSClassMatch, "", &order)...)
	}
	if len(cssCandidates) > 0 {
		return r.pick(cssCandidates, variant, degraded, note)
	}

	// Tier 4: generic currency-pattern scan over visible text
	textCandidates := r.collectFromText(doc, hints, &order)
	textCandidates = r.rejectOutliers(textCandidates)
	if len(textCandidates) > 0 {
		return r.pick(textCandidates, variant, degraded, note)
	}

	if note == "" {
		note = "no price candidates survived filtering"
	}
	return ResolvedPrice{Method: MethodNone, Found: false, Degraded: degraded, Note: note}
}

// pick applies the tie-break rules to candidates from a single tier.
func (r *Resolver) pick(candidates []PriceCandidate, variant string, degraded bool, note string) ResolvedPrice {
	best := candidates[0]

	if variant != "" {
		v := strings.ToLower(variant)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.SourceLocator), v) {
				if !strings.Contains(strings.ToLower(best.SourceLocator), v) || c.DocumentOrder < best.DocumentOrder {
					best = c
				}
			}
		}
	}
	// Otherwise first in document order wins; candidates are already
	// collected in traversal order, but selector iteration can interleave.
	if variant == "" || !strings.Contains(strings.ToLower(best.SourceLocator), strings.ToLower(variant)) {
		for _, c := range candidates {
			if c.DocumentOrder < best.DocumentOrder {
				best = c
			}
		}
	}

	log.Printf("Resolved price %s via %s (locator: %s, %d candidates)",
		best.Value.StringFixed(2), best.Method, best.SourceLocator, len(candidates))

	return ResolvedPrice{
		Candidate: best,
		Method:    best.Method,
		Found:     true,
		Degraded:  degraded,
		Note:      note,
	}
}

// collectFromSelector parses the text of every element matching sel.
func (r *Resolver) collectFromSelector(doc *goquery.Document, sel string, method MethodTag, variant string, order *int) []PriceCandidate {
	var candidates []PriceCandidate

	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		*order++
		text := strings.TrimSpace(s.Text())
		if text == "" || r.looksLikeDecoy(s, text, nil) {
			return
		}

		value, currency, err := r.parser.ParsePrice(text)
		if err != nil || !value.IsPositive() {
			return
		}

		candidates = append(candidates, PriceCandidate{
			Value:         value,
			Currency:      currency,
			SourceLocator: sel,
			Context:       elementContext(s),
			VariantLabel:  variant,
			Method:        method,
			DocumentOrder: *order,
		})
	})

	return candidates
}

// collectFromAttributes reads explicit price data attributes plus the usual
// structured-markup carriers (itemprop, product meta tags).
func (r *Resolver) collectFromAttributes(doc *goquery.Document, attrs []string, order *int) []PriceCandidate {
	var candidates []PriceCandidate

	add := func(s *goquery.Selection, raw, locator string) {
		*order++
		value, currency, err := r.parser.ParsePrice(raw)
		if err != nil || !value.IsPositive() {
			return
		}
		candidates = append(candidates, PriceCandidate{
			Value:         value,
			Currency:      currency,
			SourceLocator: locator,
			Context:       elementContext(s),
			Method:        MethodStructuredAttribute,
			DocumentOrder: *order,
		})
	}

	for _, attr := range attrs {
		a := attr
		doc.Find("[" + a + "]").Each(func(_ int, s *goquery.Selection) {
			if raw, ok := s.Attr(a); ok && raw != "" {
				add(s, raw, a)
			}
		})
	}

	doc.Find("[itemprop='price']").Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr("content")
		if !ok || raw == "" {
			raw = strings.TrimSpace(s.Text())
		}
		if raw != "" {
			add(s, raw, "itemprop=price")
		}
	})

	doc.Find("meta[property='product:price:amount']").Each(func(_ int, s *goquery.Selection) {
		if raw, ok := s.Attr("content"); ok && raw != "" {
			add(s, raw, "product:price:amount")
		}
	})

	return candidates
}

// collectFromText walks elements whose own text carries a currency marker.
func (r *Resolver) collectFromText(doc *goquery.Document, hints Hints, order *int) []PriceCandidate {
	var candidates []PriceCandidate
	min := decimal.NewFromFloat(r.cfg.MinPlausiblePrice)

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		*order++

		// Only the element's own text nodes; nested elements get their own visit.
		ownText := strings.TrimSpace(s.Contents().Not("*").Text())
		if ownText == "" || !ContainsCurrency(ownText) {
			return
		}

		lower := strings.ToLower(ownText)
		for _, marker := range skipTextMarkers {
			if strings.Contains(lower, marker) {
				return
			}
		}
		if r.looksLikeDecoy(s, ownText, hints.DecoyContexts) {
			return
		}

		for _, p := range r.parser.ExtractAll(ownText) {
			if p.Currency == "" || p.Value.LessThan(min) {
				continue
			}
			candidates = append(candidates, PriceCandidate{
				Value:         p.Value,
				Currency:      p.Currency,
				SourceLocator: p.Text,
				Context:       elementContext(s),
				Method:        MethodTextPattern,
				DocumentOrder: *order,
			})
		}
	})

	return candidates
}

// looksLikeDecoy checks an element's class/id and its own text for markers of
// non-price numerics (wavelength, wattage, SKU and friends).
func (r *Resolver) looksLikeDecoy(s *goquery.Selection, ownText string, extra []string) bool {
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	parentClass, _ := s.Parent().Attr("class")
	haystack := strings.ToLower(class + " " + id + " " + parentClass)

	for _, decoy := range builtinDecoyContexts {
		if strings.Contains(haystack, decoy) {
			return true
		}
	}
	for _, decoy := range extra {
		if decoy != "" && strings.Contains(haystack, strings.ToLower(decoy)) {
			return true
		}
	}

	return nonPriceUnitRe.MatchString(ownText)
}

// rejectOutliers drops text-tier candidates far from the page median.
func (r *Resolver) rejectOutliers(candidates []PriceCandidate) []PriceCandidate {
	if len(candidates) < 3 {
		return candidates
	}

	values := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.Value.InexactFloat64()
	}
	sort.Float64s(values)
	median := values[len(values)/2]
	if median <= 0 {
		return candidates
	}

	var kept []PriceCandidate
	for _, c := range candidates {
		v := c.Value.InexactFloat64()
		if v > median*r.cfg.OutlierMultiple || v < median/r.cfg.OutlierMultiple {
			log.Printf("Filtering out %s: outside %gx of median %.2f", c.Value.StringFixed(2), r.cfg.OutlierMultiple, median)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// elementContext returns the surrounding text of an element, capped for logs.
func elementContext(s *goquery.Selection) string {
	text := strings.TrimSpace(s.Parent().Text())
	if text == "" {
		text = strings.TrimSpace(s.Text())
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

func variantSelector(hints Hints, variant string) (string, bool) {
	if sel, ok := hints.VariantSelectors[variant]; ok {
		return sel, true
	}
	for label, sel := range hints.VariantSelectors {
		if strings.EqualFold(label, variant) {
			return sel, true
		}
	}
	return "", false
}
