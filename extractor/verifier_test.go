package extractor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestVerifyFirstObservation(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	result := v.Verify(d("1299.00"), nil)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.Price.Equal(d("1299.00")))
}

func TestVerifyUnchangedPrice(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	result := v.Verify(d("1299.00"), dp("1299.00"))

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 1.0, result.Confidence)
	assert.True(t, result.Price.Equal(d("1299.00")))
}

func TestVerifySmallChangeFullConfidence(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// 1.5% drop, inside the low band
	result := v.Verify(d("985.00"), dp("1000.00"))

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestVerifyModerateChangeScalesConfidence(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// 25% drop: accepted, confidence strictly between floor and 1.0
	result := v.Verify(d("750.00"), dp("1000.00"))

	require.Equal(t, StatusAccepted, result.Status)
	assert.Less(t, result.Confidence, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)

	// At the top of the band the confidence reaches the floor.
	atCeiling := v.Verify(d("500.00"), dp("1000.00"))
	require.Equal(t, StatusAccepted, atCeiling.Status)
	assert.InDelta(t, 0.7, atCeiling.Confidence, 0.001)
}

func TestVerifyDecimalShiftDown(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// The classic misparse: $4,589.00 read as $458.90
	result := v.Verify(d("458.90"), dp("4589.00"))

	assert.Equal(t, StatusCorrected, result.Status)
	assert.True(t, result.Price.Equal(d("4589.00")), "got %s", result.Price)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Contains(t, result.Reason, "decimal-shift")
}

func TestVerifyDecimalShiftUp(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	result := v.Verify(d("12990.00"), dp("1299.00"))

	assert.Equal(t, StatusCorrected, result.Status)
	assert.True(t, result.Price.Equal(d("1299.00")))
	assert.Equal(t, 0.5, result.Confidence)
}

func TestVerifyImplausibleChangeRejected(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// 100x jump: not explained by the default 10x rescale, previous retained
	result := v.Verify(d("50000.00"), dp("500.00"))

	assert.Equal(t, StatusRejected, result.Status)
	assert.True(t, result.Price.Equal(d("500.00")), "previous price must be retained")
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Reason, "implausible")
}

func TestVerifyHundredfoldRescaleWhenConfigured(t *testing.T) {
	cfg := DefaultVerifierConfig()
	cfg.RescaleFactors = []int64{10, 100}
	v := NewVerifier(cfg)

	result := v.Verify(d("50000.00"), dp("500.00"))

	assert.Equal(t, StatusCorrected, result.Status)
	assert.True(t, result.Price.Equal(d("500.00")))
}

func TestVerifyExtremeButNotRejectableNeedsReview(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// 70% drop: beyond the moderate band, under the hard ceiling, no rescale fits
	result := v.Verify(d("300.00"), dp("1000.00"))

	assert.Equal(t, StatusNeedsReview, result.Status)
	assert.True(t, result.Price.Equal(d("300.00")))
	assert.Equal(t, 0.3, result.Confidence)
}

func TestVerifyWithHistoryReversion(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	// Jump from a sale price back to a price seen before the sale.
	recent := []decimal.Decimal{d("2500.00"), d("1200.00")}
	result := v.VerifyWithHistory(d("2495.00"), dp("1200.00"), recent)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 0.9, result.Confidence)
	assert.True(t, result.Price.Equal(d("2495.00")))
}

func TestVerifyNonPositiveRejected(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	result := v.Verify(decimal.Zero, dp("1000.00"))

	assert.Equal(t, StatusRejected, result.Status)
	assert.True(t, result.Price.Equal(d("1000.00")))
}

func TestVerifyIdempotent(t *testing.T) {
	v := NewVerifier(DefaultVerifierConfig())

	first := v.Verify(d("458.90"), dp("4589.00"))
	second := v.Verify(d("458.90"), dp("4589.00"))

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reason, second.Reason)
	assert.True(t, first.Price.Equal(second.Price))
}
