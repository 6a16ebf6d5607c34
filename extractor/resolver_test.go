package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestResolveVariantSpecificSelectorWinsOverEverything(t *testing.T) {
	html := `<html><body>
		<div data-price="1999.00">base model</div>
		<span class="price">$1,999.00</span>
		<div class="variant" id="v80w"><span class="price-value">$3,499.00</span></div>
	</body></html>`

	hints := Hints{
		VariantSelectors: map[string]string{"80W": "#v80w .price-value"},
	}

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "80W", hints)

	require.True(t, resolved.Found)
	assert.Equal(t, MethodVariantSelector, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("3499.00")), "got %s", resolved.Candidate.Value)
	assert.Equal(t, "80W", resolved.Candidate.VariantLabel)
	assert.False(t, resolved.Degraded)
}

func TestResolveStructuredAttribute(t *testing.T) {
	html := `<html><body>
		<div class="product" data-price="3999.00">LaserMaster 3000</div>
		<span>$9.99 shipping</span>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	assert.Equal(t, MethodStructuredAttribute, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("3999.00")))
	assert.Equal(t, "data-price", resolved.Candidate.SourceLocator)
}

func TestResolveItempropPrice(t *testing.T) {
	html := `<html><body>
		<meta itemprop="price" content="2599.00">
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	assert.Equal(t, MethodStructuredAttribute, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("2599.00")))
}

func TestResolveCSSClassMatch(t *testing.T) {
	html := `<html><body>
		<h1>Engraver Pro</h1>
		<span class="price">$2,499.00</span>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	assert.Equal(t, MethodCSSClassMatch, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("2499.00")))
}

func TestResolveTextPatternIgnoresWavelength(t *testing.T) {
	// 1064nm sits right next to the price; no price classes, no data attrs,
	// no dedicated variant selector. The wavelength must not win.
	html := `<html><body>
		<div class="specs"><span>1064nm</span><span>$3,999</span></div>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "20W fiber", Hints{})

	require.True(t, resolved.Found)
	assert.Equal(t, MethodTextPattern, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("3999")), "got %s", resolved.Candidate.Value)
	assert.True(t, resolved.Degraded, "generic fallback for a requested variant is degraded")
}

func TestResolveTextPatternSkipsDecoyClasses(t *testing.T) {
	html := `<html><body>
		<span class="wavelength-badge">$1,064</span>
		<span>$2,799.00</span>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	assert.True(t, resolved.Candidate.Value.Equal(d("2799.00")))
}

func TestResolveTextPatternRejectsOutliers(t *testing.T) {
	html := `<html><body>
		<p>$1,950</p>
		<p>$2,000</p>
		<p>$2,100</p>
		<p>$45,000</p>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	// 45000 is more than 10x the median and must not be selectable
	assert.False(t, resolved.Candidate.Value.Equal(d("45000")))
	assert.True(t, resolved.Candidate.Value.Equal(d("1950")), "first in document order wins")
}

func TestResolveTextPatternDropsImplausiblyLow(t *testing.T) {
	html := `<html><body>
		<p>$0.50</p>
	</body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	assert.False(t, resolved.Found)
	assert.Equal(t, MethodNone, resolved.Method)
}

func TestResolveNoPriceFound(t *testing.T) {
	html := `<html><body><p>Out of stock</p></body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	assert.False(t, resolved.Found)
	assert.Equal(t, MethodNone, resolved.Method)
	assert.NotEmpty(t, resolved.Note)
}

func TestResolveTieBreakPrefersVariantInLocator(t *testing.T) {
	html := `<html><body>
		<span class="price-40w">$1,899.00</span>
		<span class="price-80w">$3,499.00</span>
	</body></html>`

	hints := Hints{
		PriceSelectors: []string{".price-40w", ".price-80w"},
	}

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "80W", hints)

	require.True(t, resolved.Found)
	assert.Equal(t, MethodCSSClassMatch, resolved.Method)
	assert.True(t, resolved.Candidate.Value.Equal(d("3499.00")))
}

func TestResolveDegradedWithoutHints(t *testing.T) {
	html := `<html><body><span class="price">$500.00</span></body></html>`

	r := NewResolver(DefaultResolverConfig())
	resolved := r.Resolve(docFrom(t, html), "", Hints{})

	require.True(t, resolved.Found)
	assert.True(t, resolved.Degraded)
	assert.Contains(t, resolved.Note, "no extraction hints")
}

func TestResolveVariantOrderIndependent(t *testing.T) {
	// The variant-scoped candidate wins no matter where it sits on the page.
	front := `<html><body>
		<div id="v80w"><span class="val">$3,499.00</span></div>
		<span class="price">$1,999.00</span>
	</body></html>`
	back := `<html><body>
		<span class="price">$1,999.00</span>
		<div id="v80w"><span class="val">$3,499.00</span></div>
	</body></html>`

	hints := Hints{VariantSelectors: map[string]string{"80w": "#v80w .val"}}
	r := NewResolver(DefaultResolverConfig())

	for _, html := range []string{front, back} {
		resolved := r.Resolve(docFrom(t, html), "80W", hints)
		require.True(t, resolved.Found)
		assert.Equal(t, MethodVariantSelector, resolved.Method)
		assert.True(t, resolved.Candidate.Value.Equal(d("3499.00")))
	}
}
