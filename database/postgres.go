package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase initializes the database connection
func InitDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Test the connection
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tracked_products (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			name TEXT NOT NULL,
			domain TEXT NOT NULL,
			variant TEXT NOT NULL DEFAULT '',
			current_price DECIMAL(12,2),
			currency VARCHAR(3) DEFAULT 'USD',
			last_checked TIMESTAMP,
			last_failed_at TIMESTAMP,
			retry_count INTEGER DEFAULT 0,
			next_retry_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			is_active BOOLEAN DEFAULT TRUE,
			UNIQUE (url, variant)
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id SERIAL PRIMARY KEY,
			product_id INTEGER REFERENCES tracked_products(id) ON DELETE CASCADE,
			previous_price DECIMAL(12,2),
			price DECIMAL(12,2) NOT NULL,
			currency VARCHAR(3) DEFAULT 'USD',
			status VARCHAR(20) NOT NULL,
			confidence DECIMAL(3,2) NOT NULL DEFAULT 0,
			method VARCHAR(40) NOT NULL DEFAULT 'none',
			success BOOLEAN NOT NULL DEFAULT TRUE,
			error_message TEXT,
			checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS price_alerts (
			id SERIAL PRIMARY KEY,
			product_id INTEGER REFERENCES tracked_products(id) ON DELETE CASCADE,
			target_price DECIMAL(12,2) NOT NULL,
			alert_type VARCHAR(20) NOT NULL CHECK (alert_type IN ('price_drop', 'percentage_drop')),
			percentage DECIMAL(5,2),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			triggered_at TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tracked_products_retry ON tracked_products (last_failed_at, next_retry_at, retry_count)
		WHERE last_failed_at IS NOT NULL AND retry_count < 5`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history (product_id, checked_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_review ON price_history (checked_at DESC)
		WHERE status IN ('REJECTED', 'NEEDS_REVIEW') OR success = FALSE`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
