package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lasertrack/extractor"
)

// TrackedProduct represents a product page being monitored for price changes.
type TrackedProduct struct {
	ID           int                 `json:"id" db:"id"`
	URL          string              `json:"url" db:"url"`
	Name         string              `json:"name" db:"name"`
	Domain       string              `json:"domain" db:"domain"`
	Variant      string              `json:"variant" db:"variant"`
	CurrentPrice decimal.NullDecimal `json:"current_price" db:"current_price"`
	Currency     string              `json:"currency" db:"currency"`
	LastChecked  *time.Time          `json:"last_checked" db:"last_checked"`
	LastFailedAt *time.Time          `json:"last_failed_at" db:"last_failed_at"`
	RetryCount   int                 `json:"retry_count" db:"retry_count"`
	NextRetryAt  *time.Time          `json:"next_retry_at" db:"next_retry_at"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
	IsActive     bool                `json:"is_active" db:"is_active"`
}

// HasPrice returns true if the product has an observed price.
func (p *TrackedProduct) HasPrice() bool {
	return p.CurrentPrice.Valid
}

// PreviousPrice returns the current price as a pointer for the verifier, or
// nil when the product has never been priced.
func (p *TrackedProduct) PreviousPrice() *decimal.Decimal {
	if p.CurrentPrice.Valid {
		v := p.CurrentPrice.Decimal
		return &v
	}
	return nil
}

// CanRetry returns true if the product can be retried now.
func (p *TrackedProduct) CanRetry() bool {
	if p.NextRetryAt == nil {
		return true
	}
	return time.Now().After(*p.NextRetryAt)
}

// ShouldRetry returns true if the product has failed and is due for a retry.
func (p *TrackedProduct) ShouldRetry() bool {
	return p.LastFailedAt != nil && p.CanRetry() && p.RetryCount < 5
}

// GetRetryDelay returns the backoff delay for the next retry.
func (p *TrackedProduct) GetRetryDelay() time.Duration {
	switch p.RetryCount {
	case 0:
		return 10 * time.Minute
	case 1:
		return 30 * time.Minute
	case 2:
		return 1 * time.Hour
	case 3:
		return 3 * time.Hour
	case 4:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// PriceHistoryEntry is one append-only observation: what we saw, what we had
// before, and what the verifier made of it.
type PriceHistoryEntry struct {
	ID            int                 `json:"id" db:"id"`
	ProductID     int                 `json:"product_id" db:"product_id"`
	PreviousPrice decimal.NullDecimal `json:"previous_price" db:"previous_price"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	Currency      string              `json:"currency" db:"currency"`
	Status        string              `json:"status" db:"status"`
	Confidence    float64             `json:"confidence" db:"confidence"`
	Method        string              `json:"method" db:"method"`
	Success       bool                `json:"success" db:"success"`
	ErrorMessage  *string             `json:"error_message,omitempty" db:"error_message"`
	CheckedAt     time.Time           `json:"checked_at" db:"checked_at"`
}

// NeedsAttention reports whether an operator should look at this entry.
func (e *PriceHistoryEntry) NeedsAttention() bool {
	return e.Status == string(extractor.StatusRejected) ||
		e.Status == string(extractor.StatusNeedsReview) ||
		!e.Success
}

// PriceData is the combined extraction + verification outcome handed from
// the checker to persistence and API responses.
type PriceData struct {
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Method     string          `json:"method"`
	Status     string          `json:"status"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
	Degraded   bool            `json:"degraded,omitempty"`
}

// Accepted reports whether the price should overwrite the product's current
// price (ACCEPTED and CORRECTED do; REJECTED and NEEDS_REVIEW do not).
func (d *PriceData) Accepted() bool {
	return d.Status == string(extractor.StatusAccepted) ||
		d.Status == string(extractor.StatusCorrected)
}

// String renders the outcome for logs.
func (d *PriceData) String() string {
	return fmt.Sprintf("%s %s [%s, confidence %.2f, method %s]",
		d.Price.StringFixed(2), d.Currency, d.Status, d.Confidence, d.Method)
}

// PriceAlert represents a price drop alert on a tracked product.
type PriceAlert struct {
	ID          int             `json:"id" db:"id"`
	ProductID   int             `json:"product_id" db:"product_id"`
	TargetPrice decimal.Decimal `json:"target_price" db:"target_price"`
	AlertType   string          `json:"alert_type" db:"alert_type"` // "price_drop", "percentage_drop"
	Percentage  float64         `json:"percentage" db:"percentage"` // for percentage-based alerts
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	TriggeredAt *time.Time      `json:"triggered_at" db:"triggered_at"`
}

// AddProductRequest represents the request to track a new product page.
type AddProductRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Name    string `json:"name" validate:"required"`
	Variant string `json:"variant"`
}

// SetAlertRequest represents the request to set a price alert.
type SetAlertRequest struct {
	TargetPrice decimal.Decimal `json:"target_price"`
	AlertType   string          `json:"alert_type" validate:"required,oneof=price_drop percentage_drop"`
	Percentage  float64         `json:"percentage"`
}
