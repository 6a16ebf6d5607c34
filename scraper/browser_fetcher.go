package scraper

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// BrowserFetcher renders pages in headless Chromium. Used for sites that
// inject prices with JavaScript or hide them behind bot walls.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewBrowserFetcher creates a headless browser fetcher
func NewBrowserFetcher(timeout time.Duration) (*BrowserFetcher, error) {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	// Configure launcher - use system Chromium in Docker, auto-detect locally
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium in Docker environment")
	} else {
		log.Printf("Using auto-detected Chromium (local environment)")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %v", err)
	}

	return &BrowserFetcher{browser: browser, timeout: timeout}, nil
}

// Fetch renders a product page and returns its final HTML
func (bf *BrowserFetcher) Fetch(url string) (*PageContent, error) {
	var html string
	err := rod.Try(func() {
		page := bf.browser.MustPage(url).Timeout(bf.timeout)
		defer page.MustClose()

		page.MustSetViewport(1920, 1080, 1.0, false)

		// Mask headless fingerprints before any site script runs
		page.MustEvalOnNewDocument(`
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
			Object.defineProperty(navigator, 'plugins', {
				get: () => [1, 2, 3, 4, 5],
			});
			Object.defineProperty(navigator, 'languages', {
				get: () => ['en-US', 'en'],
			});
		`)

		page.MustWaitLoad()
		time.Sleep(3 * time.Second) // Wait for dynamic content
		page.MustWaitStable()

		html = page.MustHTML()
	})
	if err != nil {
		return nil, fmt.Errorf("browser fetch failed for %s: %v", url, err)
	}

	log.Printf("✅ Browser fetch succeeded for %s (%d bytes)", url, len(html))
	return NewPageContent(url, html, "browser")
}

// Close shuts down the browser
func (bf *BrowserFetcher) Close() {
	if bf.browser != nil {
		_ = bf.browser.Close()
	}
}
