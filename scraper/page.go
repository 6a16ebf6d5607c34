package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageContent is a fetched product page ready for price extraction
type PageContent struct {
	URL     string
	HTML    string
	Title   string
	Doc     *goquery.Document
	Fetcher string // which fetcher produced this page: "static" or "browser"
}

// NewPageContent parses raw HTML into a queryable page
func NewPageContent(url, html, fetchedBy string) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %v", err)
	}

	return &PageContent{
		URL:     url,
		HTML:    html,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Doc:     doc,
		Fetcher: fetchedBy,
	}, nil
}

// Text returns the visible page text, used for block detection
func (pc *PageContent) Text() string {
	if pc.Doc == nil {
		return ""
	}
	return pc.Doc.Find("body").Text()
}
