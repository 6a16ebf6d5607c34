package scraper

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Fetcher retrieves a product page for extraction
type Fetcher interface {
	Fetch(url string) (*PageContent, error)
	Close()
}

// FetchOptions configures retry behavior
type FetchOptions struct {
	MaxRetries int           // Maximum number of retries
	RetryDelay time.Duration // Delay between retries
}

// DefaultFetchOptions returns default retry options
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// HybridFetcher tries a cheap static fetch first and falls back to the
// headless browser when the static page is blocked or fails. The browser
// is launched lazily so static-only workloads never start Chromium.
type HybridFetcher struct {
	static   *StaticFetcher
	detector *BlockDetector
	timeout  time.Duration

	mu      sync.Mutex
	browser *BrowserFetcher
}

// NewHybridFetcher creates a hybrid fetcher
func NewHybridFetcher(timeout time.Duration) *HybridFetcher {
	return &HybridFetcher{
		static:   NewStaticFetcher(timeout),
		detector: NewBlockDetector(),
		timeout:  timeout,
	}
}

// Fetch retrieves a product page, escalating to the browser when needed
func (hf *HybridFetcher) Fetch(url string) (*PageContent, error) {
	page, err := hf.static.Fetch(url)
	if err == nil {
		blocked, reason, score := hf.detector.DetectBlock(page.Text(), page.Title)
		if !blocked {
			return page, nil
		}
		log.Printf("⚠️  Static fetch blocked for %s (score %.2f): %s", url, score, reason)
	} else {
		log.Printf("❌ Static fetch failed for %s: %v", url, err)
	}

	return hf.fetchWithBrowser(url)
}

// FetchWithBrowser forces a browser render, skipping the static attempt.
// Used for domains configured with fetcher: browser.
func (hf *HybridFetcher) FetchWithBrowser(url string) (*PageContent, error) {
	return hf.fetchWithBrowser(url)
}

func (hf *HybridFetcher) fetchWithBrowser(url string) (*PageContent, error) {
	browser, err := hf.getBrowser()
	if err != nil {
		return nil, err
	}

	log.Printf("🔄 Falling back to browser fetch for: %s", url)
	page, err := browser.Fetch(url)
	if err != nil {
		return nil, err
	}

	if blocked, reason, score := hf.detector.DetectBlock(page.Text(), page.Title); blocked {
		return nil, fmt.Errorf("page blocked (score %.2f): %s", score, reason)
	}

	return page, nil
}

func (hf *HybridFetcher) getBrowser() (*BrowserFetcher, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if hf.browser == nil {
		browser, err := NewBrowserFetcher(hf.timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser fetcher: %v", err)
		}
		hf.browser = browser
	}

	return hf.browser, nil
}

// Close shuts down the fetchers
func (hf *HybridFetcher) Close() {
	hf.static.Close()

	hf.mu.Lock()
	defer hf.mu.Unlock()
	if hf.browser != nil {
		hf.browser.Close()
		hf.browser = nil
	}
}

// FetchWithRetry attempts a fetch with retry logic
func FetchWithRetry(f Fetcher, url string, options *FetchOptions) (*PageContent, error) {
	if options == nil {
		options = DefaultFetchOptions()
	}

	var lastErr error
	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("🔄 Retry %d/%d for: %s", attempt, options.MaxRetries, url)
			time.Sleep(options.RetryDelay)
		}

		page, err := f.Fetch(url)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %v", options.MaxRetries, lastErr)
}
