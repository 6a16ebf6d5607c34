package scheduler

import (
	"log"
	"time"

	"lasertrack/models"
)

// RetryServiceFuncs contains the functions needed by RetryService
type RetryServiceFuncs struct {
	GetProductsForRetry func() ([]models.TrackedProduct, error)
	CheckProduct        CheckFunc
}

// RetryService periodically re-runs failed price checks with backoff. The
// check pipeline itself records success or schedules the next retry.
type RetryService struct {
	funcs    *RetryServiceFuncs
	interval time.Duration
	stopChan chan bool
}

func NewRetryService(funcs *RetryServiceFuncs, interval time.Duration) *RetryService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RetryService{
		funcs:    funcs,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start starts the retry service
func (rs *RetryService) Start() {
	log.Println("🔄 Starting retry service...")

	go func() {
		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rs.processRetries()
			case <-rs.stopChan:
				log.Println("🛑 Retry service stopped")
				return
			}
		}
	}()
}

// Stop stops the retry service
func (rs *RetryService) Stop() {
	close(rs.stopChan)
}

// processRetries re-checks products whose failed checks are due
func (rs *RetryService) processRetries() {
	products, err := rs.funcs.GetProductsForRetry()
	if err != nil {
		log.Printf("❌ Failed to get products for retry: %v", err)
		return
	}

	if len(products) == 0 {
		return
	}

	log.Printf("🔄 Processing %d products for retry", len(products))

	for _, product := range products {
		if !product.ShouldRetry() {
			continue
		}

		log.Printf("🔄 Retrying price check for %s (attempt %d/5)", product.Name, product.RetryCount+1)

		priceData, err := rs.funcs.CheckProduct(product.ID)
		if err != nil {
			log.Printf("❌ Retry failed for %s: %v", product.Name, err)
			continue
		}

		log.Printf("✅ Retry successful for %s: %s", product.Name, priceData.String())
	}
}
