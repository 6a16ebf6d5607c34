package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceParser handles the number formats vendors actually ship: US/UK
// grouping ($4,589.00), European grouping (4.589,00 €), and bare decimals.
type PriceParser struct {
	patterns []pricePattern
}

type pricePattern struct {
	name string
	re   *regexp.Regexp
}

// ParsedPrice is one price-like match found in a text span.
type ParsedPrice struct {
	Value    decimal.Decimal
	Currency string
	Text     string
}

// NewPriceParser creates a locale-aware price parser. Patterns are tried in
// order of specificity, so grouped formats win over a bare digit run.
func NewPriceParser() *PriceParser {
	return &PriceParser{
		patterns: []pricePattern{
			// US/UK: $4,589.00 — comma groups required so "4589.00" falls
			// through to the plain pattern instead of matching "458".
			{"us_uk", regexp.MustCompile(`(\$|£|€)?\s*([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{1,2})?)`)},

			// European: €4.589,00
			{"european", regexp.MustCompile(`(\$|£|€)?\s*([0-9]{1,3}(?:\.[0-9]{3})+(?:,[0-9]{1,2})?)`)},

			// Plain: 4589.00, 4589,00 or 4589, optionally with a symbol
			{"plain", regexp.MustCompile(`(\$|£|€)?\s*([0-9]+(?:[.,][0-9]{1,2})?)`)},
		},
	}
}

// ParsePrice parses the first price found in text and returns its value and
// normalized currency code.
func (pp *PriceParser) ParsePrice(text string) (decimal.Decimal, string, error) {
	text = strings.TrimSpace(text)

	for _, pattern := range pp.patterns {
		matches := pattern.re.FindStringSubmatch(text)
		if matches == nil {
			continue
		}

		cleaned := cleanNumberString(matches[2], pattern.name)
		value, err := decimal.NewFromString(cleaned)
		if err != nil {
			continue
		}
		return value, normalizeCurrency(matches[1]), nil
	}

	return decimal.Zero, "", fmt.Errorf("no valid price pattern found in: %s", text)
}

// ExtractAll finds every price-like number in text. Spans already consumed by
// a more specific pattern are not re-matched by a looser one.
func (pp *PriceParser) ExtractAll(text string) []ParsedPrice {
	var results []ParsedPrice
	consumed := make([][2]int, 0, 4)

	for _, pattern := range pp.patterns {
		locs := pattern.re.FindAllStringSubmatchIndex(text, -1)
		for _, loc := range locs {
			if overlapsAny(consumed, loc[0], loc[1]) {
				continue
			}

			currency := ""
			if loc[2] >= 0 {
				currency = text[loc[2]:loc[3]]
			}
			cleaned := cleanNumberString(text[loc[4]:loc[5]], pattern.name)
			value, err := decimal.NewFromString(cleaned)
			if err != nil {
				continue
			}

			consumed = append(consumed, [2]int{loc[0], loc[1]})
			results = append(results, ParsedPrice{
				Value:    value,
				Currency: normalizeCurrency(currency),
				Text:     text[loc[0]:loc[1]],
			})
		}
	}

	return results
}

// ContainsCurrency reports whether text carries a currency marker at all.
// The text-pattern tier only considers elements that pass this gate.
func ContainsCurrency(text string) bool {
	return strings.ContainsAny(text, "$£€") ||
		strings.Contains(text, "USD") || strings.Contains(text, "EUR") || strings.Contains(text, "GBP")
}

// cleanNumberString converts locale-specific number formats to a standard
// decimal string.
func cleanNumberString(numberStr, locale string) string {
	switch locale {
	case "us_uk":
		// 4,589.00 -> 4589.00
		return strings.ReplaceAll(numberStr, ",", "")

	case "european":
		// 4.589,00 -> 4589.00
		temp := strings.ReplaceAll(numberStr, ".", "")
		return strings.ReplaceAll(temp, ",", ".")

	case "plain":
		if strings.Contains(numberStr, ",") && !strings.Contains(numberStr, ".") {
			// 4589,00 -> 4589.00
			return strings.ReplaceAll(numberStr, ",", ".")
		}
		return numberStr

	default:
		return numberStr
	}
}

func normalizeCurrency(symbol string) string {
	switch strings.TrimSpace(symbol) {
	case "$":
		return "USD"
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	default:
		return strings.ToUpper(strings.TrimSpace(symbol))
	}
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
