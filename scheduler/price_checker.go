package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"lasertrack/config"
	"lasertrack/extractor"
	"lasertrack/models"
	"lasertrack/repository"
	"lasertrack/scraper"
)

// PriceChecker runs the scheduled price sweep: fetch every tracked product
// page, resolve a price candidate, verify it against history, and persist
// the outcome.
type PriceChecker struct {
	cron        *cron.Cron
	settings    *config.Settings
	hints       *config.HintRegistry
	fetcher     *scraper.HybridFetcher
	resolver    *extractor.Resolver
	verifier    *extractor.Verifier
	productRepo *repository.ProductRepository
	historyRepo *repository.HistoryRepository
	alertRepo   *repository.AlertRepository
}

func NewPriceChecker(settings *config.Settings, hints *config.HintRegistry) *PriceChecker {
	return &PriceChecker{
		cron:        cron.New(cron.WithSeconds()),
		settings:    settings,
		hints:       hints,
		fetcher:     scraper.NewHybridFetcher(settings.FetchTimeout),
		resolver:    extractor.NewResolver(settings.Resolver),
		verifier:    extractor.NewVerifier(settings.Verifier),
		productRepo: repository.NewProductRepository(),
		historyRepo: repository.NewHistoryRepository(),
		alertRepo:   repository.NewAlertRepository(),
	}
}

// Start starts the scheduled price checking
func (pc *PriceChecker) Start() {
	_, err := pc.cron.AddFunc(pc.settings.CheckSchedule, pc.checkAllProducts)
	if err != nil {
		log.Printf("Failed to schedule price checker: %v", err)
		return
	}

	// Also run immediately on startup
	go pc.checkAllProducts()

	pc.cron.Start()
	log.Printf("Price checker scheduled with spec %q", pc.settings.CheckSchedule)
}

// Stop stops the scheduled price checking
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
	if pc.fetcher != nil {
		pc.fetcher.Close()
	}
}

// ManualCheck allows manual triggering of the full sweep
func (pc *PriceChecker) ManualCheck() {
	log.Println("Manual price check triggered")
	pc.checkAllProducts()
}

// checkAllProducts checks prices for all tracked products
func (pc *PriceChecker) checkAllProducts() {
	log.Println("Starting scheduled price check for all tracked products")

	products, err := pc.productRepo.GetTrackedProducts()
	if err != nil {
		log.Printf("Failed to get tracked products: %v", err)
		return
	}

	if len(products) == 0 {
		log.Println("No products to check")
		return
	}

	log.Printf("Checking prices for %d products", len(products))

	for _, product := range products {
		go func(p models.TrackedProduct) {
			if _, err := pc.checkProduct(&p); err != nil {
				log.Printf("❌ Check failed for %s: %v", p.Name, err)
			}
		}(product)
	}
}

// CheckProduct runs one full check for a product by ID. Used by the async
// task workers, the retry service and the manual check endpoint.
func (pc *PriceChecker) CheckProduct(productID int) (*models.PriceData, error) {
	product, err := pc.productRepo.GetProductByID(productID)
	if err != nil {
		return nil, err
	}
	return pc.checkProduct(product)
}

// checkProduct is the single-product pipeline: fetch, resolve, verify,
// persist. Every outcome lands in price_history; only accepted or corrected
// prices overwrite the product's current price.
func (pc *PriceChecker) checkProduct(product *models.TrackedProduct) (*models.PriceData, error) {
	log.Printf("Checking price for: %s (%s)", product.Name, product.URL)

	page, err := pc.fetchPage(product)
	if err != nil {
		pc.recordFailure(product, fmt.Sprintf("fetch failed: %v", err))
		return nil, err
	}

	hints, ok := pc.hints.Lookup(product.Domain)
	if !ok {
		log.Printf("⚠️  No extraction hints for %s, using generic tiers", product.Domain)
	}

	resolved := pc.resolver.Resolve(page.Doc, product.Variant, hints)
	if !resolved.Found {
		err := fmt.Errorf("no price found on %s: %s", product.URL, resolved.Note)
		pc.recordFailure(product, err.Error())
		return nil, err
	}

	previous := product.PreviousPrice()
	recent, err := pc.historyRepo.GetRecentPrices(product.ID, pc.settings.HistoryWindow)
	if err != nil {
		log.Printf("Failed to load recent prices for %s: %v", product.Name, err)
	}

	result := pc.verifier.VerifyWithHistory(resolved.Candidate.Value, previous, recent)

	currency := resolved.Candidate.Currency
	if currency == "" {
		currency = "USD"
	}

	priceData := &models.PriceData{
		Price:      result.Price,
		Currency:   currency,
		Method:     string(resolved.Method),
		Status:     string(result.Status),
		Confidence: result.Confidence,
		Reason:     result.Reason,
		Degraded:   resolved.Degraded,
	}

	if err := pc.persist(product, priceData); err != nil {
		return nil, err
	}

	return priceData, nil
}

// fetchPage retrieves the product page, honoring a per-domain fetcher choice
func (pc *PriceChecker) fetchPage(product *models.TrackedProduct) (*scraper.PageContent, error) {
	if pc.hints.FetcherFor(product.Domain) == "browser" {
		return pc.fetcher.FetchWithBrowser(product.URL)
	}
	return scraper.FetchWithRetry(pc.fetcher, product.URL, nil)
}

// persist writes the outcome to history and, when the verifier accepted the
// price, updates the product and checks alerts.
func (pc *PriceChecker) persist(product *models.TrackedProduct, priceData *models.PriceData) error {
	if err := pc.historyRepo.AddEntry(product.ID, product.CurrentPrice, priceData, true, ""); err != nil {
		log.Printf("Failed to add price history for %s: %v", product.URL, err)
	}

	oldPrice := "N/A"
	if product.HasPrice() {
		oldPrice = "$" + product.CurrentPrice.Decimal.StringFixed(2)
	}

	if !priceData.Accepted() {
		log.Printf("🚫 %s for %s: %s (was %s) - %s",
			priceData.Status, product.Name, priceData.Price.StringFixed(2), oldPrice, priceData.Reason)
		if err := pc.productRepo.TouchLastChecked(product.ID); err != nil {
			log.Printf("Failed to update last_checked for %s: %v", product.URL, err)
		}
		return nil
	}

	log.Printf("Current price for %s: %s (was %s)", product.Name, priceData.String(), oldPrice)

	if err := pc.productRepo.UpdateProductPrice(product.ID, priceData); err != nil {
		return fmt.Errorf("failed to update product price for %s: %v", product.URL, err)
	}
	if err := pc.productRepo.MarkCheckSuccess(product.ID); err != nil {
		log.Printf("Failed to reset retry state for %s: %v", product.URL, err)
	}

	pc.logPriceMovement(product, priceData.Price)
	pc.checkAlerts(product, priceData.Price)

	return nil
}

// recordFailure writes a failed-check history row and schedules a retry
func (pc *PriceChecker) recordFailure(product *models.TrackedProduct, errMsg string) {
	failed := &models.PriceData{
		Price:    decimal.Zero,
		Currency: product.Currency,
		Method:   string(extractor.MethodNone),
		Status:   string(extractor.StatusRejected),
	}
	if err := pc.historyRepo.AddEntry(product.ID, product.CurrentPrice, failed, false, errMsg); err != nil {
		log.Printf("Failed to record failed check for %s: %v", product.URL, err)
	}
	if err := pc.productRepo.MarkCheckFailed(product.ID, product.GetRetryDelay()); err != nil {
		log.Printf("Failed to schedule retry for %s: %v", product.URL, err)
	}
}

func (pc *PriceChecker) logPriceMovement(product *models.TrackedProduct, newPrice decimal.Decimal) {
	if !product.HasPrice() || newPrice.Equal(product.CurrentPrice.Decimal) {
		return
	}

	old := product.CurrentPrice.Decimal
	changePercent := newPrice.Sub(old).Div(old).InexactFloat64() * 100

	if newPrice.LessThan(old) {
		log.Printf("📉 Price DROPPED for %s: $%s → $%s (%.1f%%)",
			product.Name, old.StringFixed(2), newPrice.StringFixed(2), changePercent)
	} else {
		log.Printf("📈 Price INCREASED for %s: $%s → $%s (+%.1f%%)",
			product.Name, old.StringFixed(2), newPrice.StringFixed(2), changePercent)
	}
}

func (pc *PriceChecker) checkAlerts(product *models.TrackedProduct, newPrice decimal.Decimal) {
	triggered, err := pc.alertRepo.CheckAlerts(product.ID, newPrice, product.PreviousPrice())
	if err != nil {
		log.Printf("Failed to check alerts for %s: %v", product.URL, err)
		return
	}

	for _, alert := range triggered {
		log.Printf("🚨 ALERT TRIGGERED for %s: price reached $%s", product.Name, newPrice.StringFixed(2))

		switch alert.AlertType {
		case "price_drop":
			log.Printf("   Target price: $%s", alert.TargetPrice.StringFixed(2))
		case "percentage_drop":
			log.Printf("   Target percentage: %.1f%%", alert.Percentage)
		}
	}
}
