package extractor

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VerificationStatus is the verifier's judgment on a newly extracted price.
type VerificationStatus string

const (
	StatusAccepted    VerificationStatus = "ACCEPTED"
	StatusCorrected   VerificationStatus = "CORRECTED"
	StatusRejected    VerificationStatus = "REJECTED"
	StatusNeedsReview VerificationStatus = "NEEDS_REVIEW"
)

// VerifierConfig holds the plausibility thresholds. The defaults are tuned
// for catching decimal-shift and wrong-variant extraction errors; confirm
// against real history before trusting them on a new product class.
type VerifierConfig struct {
	// LowChangeThreshold is the relative change under which a new price is
	// accepted at full confidence.
	LowChangeThreshold float64
	// ModerateChangeCeiling is the upper bound of the band where prices are
	// accepted with linearly decaying confidence.
	ModerateChangeCeiling float64
	// HardRejectCeiling is the relative change beyond which an unexplained
	// price is rejected outright.
	HardRejectCeiling float64
	// ConfidenceFloor is the confidence assigned at the top of the moderate band.
	ConfidenceFloor float64
	// RescaleFactors are the factors tried when checking for decimal-shift
	// errors. 100 is recognized but off by default: a double shift almost
	// always means the wrong product was scraped, not a format misparse.
	RescaleFactors []int64
}

// DefaultVerifierConfig returns the default thresholds: 2% low band, 50%
// moderate ceiling, 90% hard reject, 10x rescale.
func DefaultVerifierConfig() VerifierConfig {
	return VerifierConfig{
		LowChangeThreshold:    0.02,
		ModerateChangeCeiling: 0.50,
		HardRejectCeiling:     0.90,
		ConfidenceFloor:       0.70,
		RescaleFactors:        []int64{10},
	}
}

// VerificationResult is the verifier's answer. Price may differ from the
// input when the status is CORRECTED (rescaled) or REJECTED (previous price
// retained). The verifier never persists anything; the caller does.
type VerificationResult struct {
	Price      decimal.Decimal    `json:"price"`
	Status     VerificationStatus `json:"status"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
}

// Verifier validates newly extracted prices against price history. It is a
// pure function over its inputs: same inputs, same result, no side effects.
type Verifier struct {
	cfg VerifierConfig
}

// NewVerifier creates a verifier, filling zero thresholds from the defaults.
func NewVerifier(cfg VerifierConfig) *Verifier {
	def := DefaultVerifierConfig()
	if cfg.LowChangeThreshold <= 0 {
		cfg.LowChangeThreshold = def.LowChangeThreshold
	}
	if cfg.ModerateChangeCeiling <= 0 {
		cfg.ModerateChangeCeiling = def.ModerateChangeCeiling
	}
	if cfg.HardRejectCeiling <= 0 {
		cfg.HardRejectCeiling = def.HardRejectCeiling
	}
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = def.ConfidenceFloor
	}
	if len(cfg.RescaleFactors) == 0 {
		cfg.RescaleFactors = def.RescaleFactors
	}
	return &Verifier{cfg: cfg}
}

// Verify checks newPrice against the most recent previous price. previous is
// nil on the first observation of a product.
func (v *Verifier) Verify(newPrice decimal.Decimal, previous *decimal.Decimal) VerificationResult {
	return v.VerifyWithHistory(newPrice, previous, nil)
}

// VerifyWithHistory additionally considers a short window of recent prices:
// a price that fails the direct comparison but matches an earlier observed
// price is treated as a reversion (sale ended, price restored) rather than
// an extraction error.
func (v *Verifier) VerifyWithHistory(newPrice decimal.Decimal, previous *decimal.Decimal, recent []decimal.Decimal) VerificationResult {
	if !newPrice.IsPositive() {
		price := decimal.Zero
		if previous != nil {
			price = *previous
		}
		return VerificationResult{
			Price:      price,
			Status:     StatusRejected,
			Confidence: 0.0,
			Reason:     "extracted price is not a positive amount",
		}
	}

	if previous == nil || !previous.IsPositive() {
		return VerificationResult{
			Price:      newPrice,
			Status:     StatusAccepted,
			Confidence: 1.0,
			Reason:     "first observation, nothing to compare against",
		}
	}

	prev := *previous
	low := decimal.NewFromFloat(v.cfg.LowChangeThreshold)
	moderate := decimal.NewFromFloat(v.cfg.ModerateChangeCeiling)
	hard := decimal.NewFromFloat(v.cfg.HardRejectCeiling)

	rel := relativeChange(prev, newPrice)

	if rel.LessThanOrEqual(low) {
		return VerificationResult{
			Price:      newPrice,
			Status:     StatusAccepted,
			Confidence: 1.0,
			Reason:     "within normal variation",
		}
	}

	if rel.LessThanOrEqual(moderate) {
		// Confidence decays linearly from 1.0 at the low threshold down to
		// the floor at the moderate ceiling.
		span := v.cfg.ModerateChangeCeiling - v.cfg.LowChangeThreshold
		frac := (rel.InexactFloat64() - v.cfg.LowChangeThreshold) / span
		confidence := 1.0 - frac*(1.0-v.cfg.ConfidenceFloor)
		return VerificationResult{
			Price:      newPrice,
			Status:     StatusAccepted,
			Confidence: confidence,
			Reason:     fmt.Sprintf("moderate change of %.1f%%", rel.InexactFloat64()*100),
		}
	}

	// Beyond the moderate band: check whether a decimal shift explains it.
	for _, factor := range v.cfg.RescaleFactors {
		f := decimal.NewFromInt(factor)
		for _, scaled := range []decimal.Decimal{newPrice.Mul(f), newPrice.Div(f)} {
			if relativeChange(prev, scaled).LessThanOrEqual(low) {
				return VerificationResult{
					Price:      scaled,
					Status:     StatusCorrected,
					Confidence: 0.5,
					Reason: fmt.Sprintf("decimal-shift correction: %s rescaled by %dx to %s",
						newPrice.StringFixed(2), factor, scaled.StringFixed(2)),
				}
			}
		}
	}

	// A large jump that lands back on a recently seen price is a reversion.
	for _, earlier := range recent {
		if earlier.IsPositive() && relativeChange(earlier, newPrice).LessThanOrEqual(low) {
			return VerificationResult{
				Price:      newPrice,
				Status:     StatusAccepted,
				Confidence: 0.9,
				Reason:     fmt.Sprintf("matches earlier observed price %s", earlier.StringFixed(2)),
			}
		}
	}

	if rel.GreaterThan(hard) {
		return VerificationResult{
			Price:      prev,
			Status:     StatusRejected,
			Confidence: 0.0,
			Reason: fmt.Sprintf("implausible change of %.1f%% from %s to %s",
				rel.InexactFloat64()*100, prev.StringFixed(2), newPrice.StringFixed(2)),
		}
	}

	return VerificationResult{
		Price:      newPrice,
		Status:     StatusNeedsReview,
		Confidence: 0.3,
		Reason:     fmt.Sprintf("large change of %.1f%% needs a second look", rel.InexactFloat64()*100),
	}
}

// relativeChange returns |a-b| / a.
func relativeChange(base, value decimal.Decimal) decimal.Decimal {
	return value.Sub(base).Abs().Div(base)
}
