package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lasertrack/database"
	"lasertrack/models"
)

type AlertRepository struct{}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

// SetAlert creates a price alert for a product
func (r *AlertRepository) SetAlert(productID int, req *models.SetAlertRequest) (*models.PriceAlert, error) {
	query := `
		INSERT INTO price_alerts (product_id, target_price, alert_type, percentage, is_active, created_at)
		VALUES ($1, $2, $3, $4, true, $5)
		RETURNING id, product_id, target_price, alert_type, percentage, is_active, created_at, triggered_at
	`

	var alert models.PriceAlert
	err := database.DB.QueryRow(query, productID, req.TargetPrice, req.AlertType, req.Percentage, time.Now()).Scan(
		&alert.ID, &alert.ProductID, &alert.TargetPrice, &alert.AlertType,
		&alert.Percentage, &alert.IsActive, &alert.CreatedAt, &alert.TriggeredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set alert: %v", err)
	}

	return &alert, nil
}

// GetAlerts returns all active alerts for a product
func (r *AlertRepository) GetAlerts(productID int) ([]models.PriceAlert, error) {
	query := `
		SELECT id, product_id, target_price, alert_type, percentage, is_active, created_at, triggered_at
		FROM price_alerts
		WHERE product_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := database.DB.Query(query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %v", err)
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var alert models.PriceAlert
		err := rows.Scan(
			&alert.ID, &alert.ProductID, &alert.TargetPrice, &alert.AlertType,
			&alert.Percentage, &alert.IsActive, &alert.CreatedAt, &alert.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %v", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// DeleteAlert deactivates an alert
func (r *AlertRepository) DeleteAlert(productID, alertID int) error {
	query := `UPDATE price_alerts SET is_active = false WHERE id = $1 AND product_id = $2`
	_, err := database.DB.Exec(query, alertID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %v", err)
	}
	return nil
}

// CheckAlerts returns alerts triggered by the new price and marks them
// triggered. Only verified (accepted/corrected) prices reach this point.
func (r *AlertRepository) CheckAlerts(productID int, newPrice decimal.Decimal, previousPrice *decimal.Decimal) ([]models.PriceAlert, error) {
	alerts, err := r.GetAlerts(productID)
	if err != nil {
		return nil, err
	}

	var triggered []models.PriceAlert
	for _, alert := range alerts {
		if alert.TriggeredAt != nil {
			continue
		}

		hit := false
		switch alert.AlertType {
		case "price_drop":
			hit = newPrice.LessThanOrEqual(alert.TargetPrice)
		case "percentage_drop":
			if previousPrice != nil && previousPrice.IsPositive() {
				drop := previousPrice.Sub(newPrice).Div(*previousPrice).InexactFloat64() * 100
				hit = drop >= alert.Percentage
			}
		}

		if hit {
			if err := r.markTriggered(alert.ID); err != nil {
				return nil, err
			}
			triggered = append(triggered, alert)
		}
	}

	return triggered, nil
}

func (r *AlertRepository) markTriggered(alertID int) error {
	query := `UPDATE price_alerts SET triggered_at = $1 WHERE id = $2`
	_, err := database.DB.Exec(query, time.Now(), alertID)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %v", err)
	}
	return nil
}
