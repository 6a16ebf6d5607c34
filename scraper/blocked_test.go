package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBlockCaptchaPage(t *testing.T) {
	bd := NewBlockDetector()

	blocked, reason, score := bd.DetectBlock(
		"Please verify you are human. Complete the reCAPTCHA to continue.",
		"Security Check",
	)

	assert.True(t, blocked)
	assert.Greater(t, score, 0.5)
	assert.Contains(t, reason, "CAPTCHA")
}

func TestDetectBlockNormalProductPage(t *testing.T) {
	bd := NewBlockDetector()

	text := "LaserPro X5 80W CO2 Laser Engraver. Price: $4,589.00. " +
		"Work area 900x600mm, wavelength 10640nm. Free shipping on orders over $50. " +
		"Add to cart. Customer reviews. Specifications. Warranty information and support. " +
		"This industrial engraver handles wood, acrylic, leather and anodized aluminum."

	blocked, _, _ := bd.DetectBlock(text, "LaserPro X5 80W - Laser Engravers")
	assert.False(t, blocked)
}

func TestDetectBlockShortPageAmplifiesScore(t *testing.T) {
	bd := NewBlockDetector()

	_, _, longScore := bd.DetectBlock("access denied "+string(make([]byte, 2000)), "")
	blocked, _, shortScore := bd.DetectBlock("access denied", "")

	assert.True(t, blocked)
	assert.Greater(t, shortScore, longScore)
}

func TestDetectCaptcha(t *testing.T) {
	bd := NewBlockDetector()

	found, reason := bd.DetectCaptcha("solve this hCaptcha challenge", "")
	assert.True(t, found)
	assert.Contains(t, reason, "CAPTCHA detected")

	found, _ = bd.DetectCaptcha("80W fiber laser marking machine", "Product page")
	assert.False(t, found)
}

func TestNewPageContent(t *testing.T) {
	html := `<html><head><title>LaserPro X5</title></head>
		<body><div class="price">$3,999.00</div></body></html>`

	page, err := NewPageContent("https://shop.example/laserpro-x5", html, "static")
	require.NoError(t, err)

	assert.Equal(t, "LaserPro X5", page.Title)
	assert.Equal(t, "static", page.Fetcher)
	assert.Contains(t, page.Text(), "$3,999.00")
	assert.Equal(t, "$3,999.00", page.Doc.Find(".price").Text())
}
