package repository

import (
	"database/sql"
	"fmt"
	"time"

	"lasertrack/database"
	"lasertrack/models"
)

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

const productColumns = `id, url, name, domain, variant, current_price, currency, last_checked, last_failed_at, retry_count, next_retry_at, created_at, updated_at, is_active`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.TrackedProduct, error) {
	var p models.TrackedProduct
	err := row.Scan(
		&p.ID, &p.URL, &p.Name, &p.Domain, &p.Variant,
		&p.CurrentPrice, &p.Currency,
		&p.LastChecked, &p.LastFailedAt, &p.RetryCount,
		&p.NextRetryAt, &p.CreatedAt, &p.UpdatedAt, &p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProduct adds a new product page to track
func (r *ProductRepository) AddProduct(url, name, domain, variant string) (*models.TrackedProduct, error) {
	query := `
		INSERT INTO tracked_products (url, name, domain, variant, created_at, updated_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $5, 0)
		RETURNING ` + productColumns

	now := time.Now()
	product, err := scanProduct(database.DB.QueryRow(query, url, name, domain, variant, now))
	if err != nil {
		return nil, fmt.Errorf("failed to add product to track: %v", err)
	}

	return product, nil
}

// GetTrackedProducts returns all active tracked products
func (r *ProductRepository) GetTrackedProducts() ([]models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM tracked_products
		WHERE is_active = true
		ORDER BY created_at DESC
	`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked products: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, *product)
	}

	return products, nil
}

// GetProductByID returns a tracked product by ID
func (r *ProductRepository) GetProductByID(id int) (*models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM tracked_products
		WHERE id = $1 AND is_active = true
	`

	product, err := scanProduct(database.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	return product, nil
}

// UpdateProductPrice updates the price information for a tracked product
func (r *ProductRepository) UpdateProductPrice(id int, priceData *models.PriceData) error {
	query := `
		UPDATE tracked_products
		SET current_price = $2, currency = $3, last_checked = $4, updated_at = $4
		WHERE id = $1
	`

	_, err := database.DB.Exec(query, id, priceData.Price, priceData.Currency, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update product price: %v", err)
	}

	return nil
}

// TouchLastChecked records a check that did not change the stored price
// (rejected or review outcomes still count as a completed check).
func (r *ProductRepository) TouchLastChecked(id int) error {
	query := `UPDATE tracked_products SET last_checked = $2, updated_at = $2 WHERE id = $1`
	_, err := database.DB.Exec(query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update last_checked: %v", err)
	}
	return nil
}

// DeleteProduct soft-deletes a tracked product
func (r *ProductRepository) DeleteProduct(id int) error {
	query := `UPDATE tracked_products SET is_active = false WHERE id = $1`
	_, err := database.DB.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tracked product: %v", err)
	}
	return nil
}

// MarkCheckFailed marks a price check as failed and schedules a retry
func (r *ProductRepository) MarkCheckFailed(id int, delay time.Duration) error {
	query := `
		UPDATE tracked_products
		SET last_failed_at = $1, retry_count = retry_count + 1, next_retry_at = $2, updated_at = $1
		WHERE id = $3
	`

	now := time.Now()
	_, err := database.DB.Exec(query, now, now.Add(delay), id)
	if err != nil {
		return fmt.Errorf("failed to mark price check as failed: %v", err)
	}

	return nil
}

// MarkCheckSuccess resets retry bookkeeping when a price check succeeds
func (r *ProductRepository) MarkCheckSuccess(id int) error {
	query := `
		UPDATE tracked_products
		SET last_failed_at = NULL, retry_count = 0, next_retry_at = NULL, updated_at = $1
		WHERE id = $2
	`

	_, err := database.DB.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark price check as successful: %v", err)
	}

	return nil
}

// GetProductsForRetry returns products whose failed checks are due for retry
func (r *ProductRepository) GetProductsForRetry() ([]models.TrackedProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM tracked_products
		WHERE is_active = true
		AND last_failed_at IS NOT NULL
		AND (next_retry_at IS NULL OR next_retry_at <= $1)
		AND retry_count < 5
		ORDER BY next_retry_at ASC
	`

	rows, err := database.DB.Query(query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get products for retry: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, *product)
	}

	return products, nil
}
