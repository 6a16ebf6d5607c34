package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lasertrack/models"
	"lasertrack/repository"
	"lasertrack/scheduler"
)

type Handlers struct {
	productRepo *repository.ProductRepository
	historyRepo *repository.HistoryRepository
	alertRepo   *repository.AlertRepository
	checker     *scheduler.PriceChecker
	taskManager *scheduler.TaskManager
}

func NewHandlers(productRepo *repository.ProductRepository, historyRepo *repository.HistoryRepository,
	alertRepo *repository.AlertRepository, checker *scheduler.PriceChecker, maxWorkers int) *Handlers {

	h := &Handlers{
		productRepo: productRepo,
		historyRepo: historyRepo,
		alertRepo:   alertRepo,
		checker:     checker,
	}

	h.taskManager = scheduler.NewTaskManager(h.performPriceCheck, maxWorkers)

	return h
}

// Close stops the async task workers
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// GetTaskManager returns the task manager
func (h *Handlers) GetTaskManager() *scheduler.TaskManager {
	return h.taskManager
}

// performPriceCheck runs one check through the full pipeline (used by TaskManager)
func (h *Handlers) performPriceCheck(productID int) (*models.PriceData, error) {
	product, err := h.productRepo.GetProductByID(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product details: %v", err)
	}

	if !product.CanRetry() {
		nextRetryStr := "Unknown"
		if product.NextRetryAt != nil {
			nextRetryStr = product.NextRetryAt.Format("15:04")
		}
		return nil, fmt.Errorf("price check failed recently. Next retry available at %s", nextRetryStr)
	}

	return h.checker.CheckProduct(productID)
}

// AddProduct adds a new product page to track
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req models.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.URL == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "URL and name are required")
		return
	}

	domain, err := domainFromURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid URL")
		return
	}

	product, err := h.productRepo.AddProduct(req.URL, req.Name, domain, req.Variant)
	if err != nil {
		log.Printf("Failed to add product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	// Kick off the first price check in the background
	task := h.taskManager.SubmitTask(product.ID)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"product": product,
		"task_id": task.ID,
		"message": "Product added, initial price check queued",
	})
}

// GetTrackedProducts returns all tracked products
func (h *Handlers) GetTrackedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.GetTrackedProducts()
	if err != nil {
		log.Printf("Failed to get tracked products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get tracked products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// GetProductDetails returns a single tracked product
func (h *Handlers) GetProductDetails(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.productRepo.GetProductByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteTrackedProduct stops tracking a product
func (h *Handlers) DeleteTrackedProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.productRepo.DeleteProduct(id); err != nil {
		log.Printf("Failed to delete product %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product removed from tracking"})
}

// GetPriceHistory returns the price history for a product
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.historyRepo.GetHistory(id, limit)
	if err != nil {
		log.Printf("Failed to get price history for %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}

// CheckPriceNow runs a synchronous price check for a product
func (h *Handlers) CheckPriceNow(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	priceData, err := h.performPriceCheck(id)
	if err != nil {
		log.Printf("Manual price check failed for %d: %v", id, err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Price check failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, priceData)
}

// CheckPriceNowAsync queues a price check and returns a task ID
func (h *Handlers) CheckPriceNowAsync(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	// Make sure the product exists before queuing work for it
	if _, err := h.productRepo.GetProductByID(id); err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	task := h.taskManager.SubmitTask(id)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id":   task.ID,
		"status":    task.Status,
		"message":   "Price check queued",
		"queued_at": task.CreatedAt,
	})
}

// GetTaskStatus returns the status of an async price check task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// GetTaskStats returns task manager statistics
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.taskManager.GetStats())
}

// GetReviewQueue returns recent rejected / needs-review / failed checks
func (h *Handlers) GetReviewQueue(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.historyRepo.GetReviewQueue(limit)
	if err != nil {
		log.Printf("Failed to get review queue: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get review queue")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":      entries,
		"count":        len(entries),
		"generated_at": time.Now(),
	})
}

// SetPriceAlert sets a price alert for a product
func (h *Handlers) SetPriceAlert(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req models.SetAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.AlertType != "price_drop" && req.AlertType != "percentage_drop" {
		writeError(w, http.StatusBadRequest, "alert_type must be price_drop or percentage_drop")
		return
	}
	if req.AlertType == "price_drop" && !req.TargetPrice.IsPositive() {
		writeError(w, http.StatusBadRequest, "target_price must be positive")
		return
	}
	if req.AlertType == "percentage_drop" && (req.Percentage <= 0 || req.Percentage > 100) {
		writeError(w, http.StatusBadRequest, "percentage must be between 0 and 100")
		return
	}

	alert, err := h.alertRepo.SetAlert(id, &req)
	if err != nil {
		log.Printf("Failed to set alert for %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to set alert")
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

// GetPriceAlerts returns all active alerts for a product
func (h *Handlers) GetPriceAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	alerts, err := h.alertRepo.GetAlerts(id)
	if err != nil {
		log.Printf("Failed to get alerts for %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get alerts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// DeletePriceAlert deactivates an alert
func (h *Handlers) DeletePriceAlert(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	alertID, err := strconv.Atoi(mux.Vars(r)["alertId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	if err := h.alertRepo.DeleteAlert(id, alertID); err != nil {
		log.Printf("Failed to delete alert %d: %v", alertID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete alert")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert deleted"})
}

func productID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

func domainFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL has no host")
	}
	return strings.TrimPrefix(host, "www."), nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
