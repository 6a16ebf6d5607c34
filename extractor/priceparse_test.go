package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceFormats(t *testing.T) {
	pp := NewPriceParser()

	tests := []struct {
		name     string
		in       string
		want     string
		currency string
	}{
		{"us grouped", "$4,589.00", "4589.00", "USD"},
		{"us grouped no cents", "$3,999", "3999", "USD"},
		{"uk grouped", "£12,345.67", "12345.67", "GBP"},
		{"european grouped", "€4.589,00", "4589.00", "EUR"},
		{"plain decimal", "458.90", "458.90", ""},
		{"plain comma decimal", "4589,95", "4589.95", ""},
		{"plain integer", "2599", "2599", ""},
		{"symbol with space", "$ 1,299.00", "1299.00", "USD"},
		{"embedded in text", "Sale price: $2,499.00 today only", "2499.00", "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, currency, err := pp.ParsePrice(tt.in)
			require.NoError(t, err)
			assert.True(t, value.Equal(d(tt.want)), "want %s, got %s", tt.want, value)
			assert.Equal(t, tt.currency, currency)
		})
	}
}

func TestParsePriceUngroupedDoesNotTruncate(t *testing.T) {
	pp := NewPriceParser()

	// "4589.00" must not be read as "458" by the grouped pattern.
	value, _, err := pp.ParsePrice("4589.00")
	require.NoError(t, err)
	assert.True(t, value.Equal(d("4589.00")), "got %s", value)
}

func TestParsePriceNoMatch(t *testing.T) {
	pp := NewPriceParser()

	_, _, err := pp.ParsePrice("out of stock")
	assert.Error(t, err)
}

func TestExtractAllFindsEveryPrice(t *testing.T) {
	pp := NewPriceParser()

	results := pp.ExtractAll("Was $4,589.00 now $3,999.00")
	require.Len(t, results, 2)

	assert.True(t, results[0].Value.Equal(d("4589.00")))
	assert.True(t, results[1].Value.Equal(d("3999.00")))
	assert.Equal(t, "USD", results[0].Currency)
}

func TestExtractAllDoesNotDoubleCount(t *testing.T) {
	pp := NewPriceParser()

	// The grouped match must not be re-matched piecemeal by the plain pattern.
	results := pp.ExtractAll("$1,299.00")
	require.Len(t, results, 1)
	assert.True(t, results[0].Value.Equal(d("1299.00")))
}

func TestContainsCurrency(t *testing.T) {
	assert.True(t, ContainsCurrency("$3,999"))
	assert.True(t, ContainsCurrency("€2.499,00"))
	assert.False(t, ContainsCurrency("1064nm"))
	assert.False(t, ContainsCurrency("80W output"))
}
