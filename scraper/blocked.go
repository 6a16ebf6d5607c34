package scraper

import (
	"regexp"
	"strings"
)

// BlockDetector detects bot walls and CAPTCHAs
type BlockDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBlockDetector creates a new block detector
func NewBlockDetector() *BlockDetector {
	return &BlockDetector{
		botPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)please verify you are human`),
			regexp.MustCompile(`(?i)security check`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)rate limit`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)cloudflare`),
			regexp.MustCompile(`(?i)imperva`),
			regexp.MustCompile(`(?i)akamai`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)recaptcha`),
			regexp.MustCompile(`(?i)hcaptcha`),
			regexp.MustCompile(`(?i)turnstile`),
			regexp.MustCompile(`(?i)verify you are human`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)403 forbidden`),
			regexp.MustCompile(`(?i)429 too many requests`),
			regexp.MustCompile(`(?i)503 service unavailable`),
			regexp.MustCompile(`(?i)site temporarily unavailable`),
		},
	}
}

// DetectBlock checks if the page content indicates a bot wall
func (bd *BlockDetector) DetectBlock(pageContent, pageTitle string) (bool, string, float64) {
	content := strings.ToLower(pageContent + " " + pageTitle)

	blockScore := 0.0
	reasons := []string{}

	for _, pattern := range bd.botPatterns {
		if pattern.MatchString(content) {
			blockScore += 0.3
			reasons = append(reasons, pattern.String())
		}
	}

	// CAPTCHA patterns carry higher weight
	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			blockScore += 0.5
			reasons = append(reasons, "CAPTCHA: "+pattern.String())
		}
	}

	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			blockScore += 0.4
			reasons = append(reasons, "HTTP error: "+pattern.String())
		}
	}

	// Short pages with any block indicator are almost always walls
	if len(content) < 1000 && blockScore > 0 {
		blockScore += 0.2
		reasons = append(reasons, "very short content with block indicators")
	}

	if blockScore > 1.0 {
		blockScore = 1.0
	}

	isBlocked := blockScore > 0.3
	return isBlocked, strings.Join(reasons, "; "), blockScore
}

// DetectCaptcha specifically checks for CAPTCHA challenges
func (bd *BlockDetector) DetectCaptcha(pageContent, pageTitle string) (bool, string) {
	content := strings.ToLower(pageContent + " " + pageTitle)

	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			return true, "CAPTCHA detected: " + pattern.String()
		}
	}

	return false, ""
}
