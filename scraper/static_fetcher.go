package scraper

import (
	"fmt"
	"log"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticFetcher fetches pages over plain HTTP. It is the cheap first
// attempt for sites that render prices server-side.
type StaticFetcher struct {
	timeout time.Duration
}

// NewStaticFetcher creates a static page fetcher
func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &StaticFetcher{timeout: timeout}
}

// Fetch downloads and parses a single product page
func (sf *StaticFetcher) Fetch(url string) (*PageContent, error) {
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(sf.timeout)

	var body []byte
	var statusCode int
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
			body = r.Body
		}
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch %s (status %d): %v", url, statusCode, fetchErr)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from %s", url)
	}

	log.Printf("✅ Static fetch succeeded for %s (%d bytes)", url, len(body))
	return NewPageContent(url, string(body), "static")
}

// Close is a no-op; static fetches hold no long-lived resources
func (sf *StaticFetcher) Close() {}
