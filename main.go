package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"lasertrack/config"
	"lasertrack/database"
	"lasertrack/handlers"
	"lasertrack/middleware"
	"lasertrack/repository"
	"lasertrack/scheduler"
)

var startTime = time.Now()

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	settings := config.LoadSettings()

	// Initialize database
	if err := database.InitDatabase(settings.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Load per-domain extraction hints
	hints, err := config.LoadHints(settings.HintsFile)
	if err != nil {
		log.Fatalf("Failed to load extraction hints: %v", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository()
	historyRepo := repository.NewHistoryRepository()
	alertRepo := repository.NewAlertRepository()

	// Initialize and start the scheduled price checker
	priceChecker := scheduler.NewPriceChecker(settings, hints)
	priceChecker.Start()
	defer priceChecker.Stop()

	// Initialize handlers (owns the async task workers)
	h := handlers.NewHandlers(productRepo, historyRepo, alertRepo, priceChecker, settings.MaxWorkers)
	defer h.Close()

	// Initialize and start the retry service
	retryService := scheduler.NewRetryService(&scheduler.RetryServiceFuncs{
		GetProductsForRetry: productRepo.GetProductsForRetry,
		CheckProduct:        priceChecker.CheckProduct,
	}, settings.RetryInterval)
	retryService.Start()
	defer retryService.Stop()

	// Setup router
	r := mux.NewRouter()

	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(10))

	// Health and monitoring endpoints (no auth required)
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/metrics", getMetrics).Methods("GET")
	r.HandleFunc("/status", getStatus).Methods("GET")

	// API v1 routes with authentication
	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(middleware.APIKeyMiddleware(settings.APIKey, true))

	// Product management
	apiV1.HandleFunc("/products", h.AddProduct).Methods("POST")
	apiV1.HandleFunc("/products", h.GetTrackedProducts).Methods("GET")
	apiV1.HandleFunc("/products/{id}", h.GetProductDetails).Methods("GET")
	apiV1.HandleFunc("/products/{id}", h.DeleteTrackedProduct).Methods("DELETE")
	apiV1.HandleFunc("/products/{id}/check", h.CheckPriceNow).Methods("POST")
	apiV1.HandleFunc("/products/{id}/check-async", h.CheckPriceNowAsync).Methods("POST")
	apiV1.HandleFunc("/products/{id}/history", h.GetPriceHistory).Methods("GET")

	// Price alerts
	apiV1.HandleFunc("/products/{id}/alerts", h.SetPriceAlert).Methods("POST")
	apiV1.HandleFunc("/products/{id}/alerts", h.GetPriceAlerts).Methods("GET")
	apiV1.HandleFunc("/products/{id}/alerts/{alertId}", h.DeletePriceAlert).Methods("DELETE")

	// Task management
	apiV1.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	apiV1.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")

	// Operator triage
	apiV1.HandleFunc("/review-queue", h.GetReviewQueue).Methods("GET")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(settings.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("🌐 Server starting on %s:%s", settings.Host, settings.Port)
	log.Printf("📋 API overview:")
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /metrics - System metrics")
	log.Printf("   GET  /status - Detailed status")
	log.Printf("   POST /api/v1/products - Add product to track")
	log.Printf("   GET  /api/v1/products - Get all tracked products")
	log.Printf("   POST /api/v1/products/{id}/check - Check price now")
	log.Printf("   GET  /api/v1/review-queue - Entries needing operator review")

	log.Fatal(http.ListenAndServe(settings.Host+":"+settings.Port, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":     "lasertrack",
		"status":      "healthy",
		"timestamp":   time.Now(),
		"api_version": "v1",
	})
}

func getMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	productRepo := repository.NewProductRepository()
	activeProducts := 0
	if products, err := productRepo.GetTrackedProducts(); err == nil {
		activeProducts = len(products)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":       time.Now(),
		"uptime":          time.Since(startTime).String(),
		"goroutines":      runtime.NumGoroutine(),
		"memory_usage":    fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
		"active_products": activeProducts,
	})
}

func getStatus(w http.ResponseWriter, r *http.Request) {
	productRepo := repository.NewProductRepository()
	products, err := productRepo.GetTrackedProducts()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get products"})
		return
	}

	productsWithPrices := 0
	for _, product := range products {
		if product.HasPrice() {
			productsWithPrices++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":            time.Now(),
		"uptime":               time.Since(startTime).String(),
		"total_products":       len(products),
		"products_with_prices": productsWithPrices,
		"system_health":        "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
