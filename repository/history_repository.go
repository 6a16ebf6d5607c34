package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lasertrack/database"
	"lasertrack/models"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// AddEntry appends one observation to the price history. History is
// append-only; nothing here updates or deletes existing rows.
func (r *HistoryRepository) AddEntry(productID int, previous decimal.NullDecimal, data *models.PriceData, success bool, errorMessage string) error {
	query := `
		INSERT INTO price_history (product_id, previous_price, price, currency, status, confidence, method, success, error_message, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), CURRENT_TIMESTAMP)
	`

	_, err := database.DB.Exec(query, productID, previous, data.Price, data.Currency,
		data.Status, data.Confidence, data.Method, success, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to add price history: %v", err)
	}

	return nil
}

const historyColumns = `id, product_id, previous_price, price, currency, status, confidence, method, success, error_message, checked_at`

// GetHistory returns the most recent history entries for a product
func (r *HistoryRepository) GetHistory(productID int, limit int) ([]models.PriceHistoryEntry, error) {
	if limit <= 0 {
		limit = 50 // default limit
	}

	query := `
		SELECT ` + historyColumns + `
		FROM price_history
		WHERE product_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()

	var history []models.PriceHistoryEntry
	for rows.Next() {
		var entry models.PriceHistoryEntry
		err := rows.Scan(
			&entry.ID, &entry.ProductID, &entry.PreviousPrice, &entry.Price, &entry.Currency,
			&entry.Status, &entry.Confidence, &entry.Method, &entry.Success,
			&entry.ErrorMessage, &entry.CheckedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price history: %v", err)
		}
		history = append(history, entry)
	}

	return history, nil
}

// GetRecentPrices returns the last n accepted prices for a product, newest
// first. This is the window the verifier uses for reversion detection.
func (r *HistoryRepository) GetRecentPrices(productID int, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		n = 5
	}

	query := `
		SELECT price
		FROM price_history
		WHERE product_id = $1 AND success = true AND status IN ('ACCEPTED', 'CORRECTED')
		ORDER BY checked_at DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, productID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent prices: %v", err)
	}
	defer rows.Close()

	var prices []decimal.Decimal
	for rows.Next() {
		var price decimal.Decimal
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("failed to scan recent price: %v", err)
		}
		prices = append(prices, price)
	}

	return prices, nil
}

// GetReviewQueue returns recent entries an operator should triage: rejected
// prices, entries flagged for review, and failed extractions.
func (r *HistoryRepository) GetReviewQueue(limit int) ([]models.PriceHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + historyColumns + `
		FROM price_history
		WHERE status IN ('REJECTED', 'NEEDS_REVIEW') OR success = false
		ORDER BY checked_at DESC
		LIMIT $1
	`

	rows, err := database.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review queue: %v", err)
	}
	defer rows.Close()

	var entries []models.PriceHistoryEntry
	for rows.Next() {
		var entry models.PriceHistoryEntry
		err := rows.Scan(
			&entry.ID, &entry.ProductID, &entry.PreviousPrice, &entry.Price, &entry.Currency,
			&entry.Status, &entry.Confidence, &entry.Method, &entry.Success,
			&entry.ErrorMessage, &entry.CheckedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review entry: %v", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
