// Package scan fetches a shop page and extracts candidate product images for
// the analysis engine. It performs no pixel-level analysis; the probe step
// only reads image headers for dimensions and EXIF metadata.
package scan

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"

	"github.com/pagecanvas/imagerank/models"
)

const userAgent = "Mozilla/5.0 (compatible; ImageRank/1.0)"

// Config contains scanner configuration
type Config struct {
	HTTPTimeout   time.Duration
	ProbeImages   bool          // fetch each image header for dimensions/EXIF
	MaxImageBytes int64         // maximum bytes to download per image probe
	ProbeTimeout  time.Duration // timeout per image probe
	MaxImages     int           // cap on extracted images per page
}

// DefaultConfig returns default scanner configuration
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:   30 * time.Second,
		ProbeImages:   true,
		MaxImageBytes: 5 * 1024 * 1024,
		ProbeTimeout:  15 * time.Second,
		MaxImages:     50, // similarity computation is O(n^2) downstream
	}
}

// Scanner extracts candidate images from shop pages
type Scanner struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Scanner instance
func New(config Config) *Scanner {
	return &Scanner{
		config: config,
		httpClient: &http.Client{
			Timeout: config.HTTPTimeout,
			// otelhttp keeps trace context alive across outbound fetches
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ScanPage fetches a shop page and returns the candidate images found on it.
// Junk imagery (placeholders, icons, tracking pixels) is filtered by URL
// pattern, and remaining images are probed for dimensions when probing is
// enabled. Probe failures produce warnings, not errors.
func (s *Scanner) ScanPage(ctx context.Context, pageURL string) (*models.ScanResult, error) {
	start := time.Now()
	warnings := []string{}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL must be http or https")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := extractTitle(doc)
	if title == "" {
		title = pageURL
	}

	images := extractImages(doc, parsedURL)

	// Filter out placeholder, icon, and tracking-pixel imagery
	filtered := make([]models.ImageRecord, 0, len(images))
	skipped := 0
	for _, img := range images {
		if shouldSkipImage(img.URL) {
			skipped++
			continue
		}
		filtered = append(filtered, img)
	}
	if skipped > 0 {
		log.Printf("Filtered out %d junk images on %s", skipped, pageURL)
		warnings = append(warnings, fmt.Sprintf("Skipped %d placeholder/icon/tracking images", skipped))
	}

	if s.config.MaxImages > 0 && len(filtered) > s.config.MaxImages {
		warnings = append(warnings, fmt.Sprintf("Truncated to first %d of %d images", s.config.MaxImages, len(filtered)))
		filtered = filtered[:s.config.MaxImages]
	}

	if s.config.ProbeImages {
		var probeWarnings []string
		filtered, probeWarnings = s.probeImages(ctx, filtered)
		warnings = append(warnings, probeWarnings...)
	}

	return &models.ScanResult{
		ID:             uuid.New().String(),
		URL:            pageURL,
		Title:          title,
		Images:         filtered,
		ScannedAt:      time.Now().UTC(),
		ProcessingTime: time.Since(start).Seconds(),
		Warnings:       warnings,
	}, nil
}

// probeImages resolves dimensions and EXIF for each image using a worker pool
func (s *Scanner) probeImages(ctx context.Context, images []models.ImageRecord) ([]models.ImageRecord, []string) {
	if len(images) == 0 {
		return images, nil
	}

	const maxWorkers = 5
	numWorkers := min(maxWorkers, len(images))

	type probeJob struct {
		index int
		img   models.ImageRecord
	}
	type probeResult struct {
		index  int
		img    models.ImageRecord
		failed bool
	}

	jobs := make(chan probeJob, len(images))
	results := make(chan probeResult, len(images))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				img, err := s.probeImage(ctx, job.img)
				if err != nil {
					log.Printf("Failed to probe image %s: %v", job.img.URL, err)
					results <- probeResult{index: job.index, img: job.img, failed: true}
					continue
				}
				results <- probeResult{index: job.index, img: img}
			}
		}()
	}

	for i, img := range images {
		jobs <- probeJob{index: i, img: img}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	probed := make([]models.ImageRecord, len(images))
	failures := 0
	for result := range results {
		probed[result.index] = result.img
		if result.failed {
			failures++
		}
	}

	var warnings []string
	if failures > 0 {
		warnings = append(warnings, fmt.Sprintf("Probe failed for %d/%d images", failures, len(images)))
	}
	return probed, warnings
}

// extractTitle extracts the page title from the HTML.
// Priority: og:title > twitter:title > h1 > title tag
func extractTitle(n *html.Node) string {
	var ogTitle, twitterTitle, h1Title, htmlTitle string

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = strings.ToLower(attr.Val)
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if property == "og:title" && ogTitle == "" {
					ogTitle = content
				} else if name == "twitter:title" && twitterTitle == "" {
					twitterTitle = content
				}
			case "h1":
				if h1Title == "" && n.FirstChild != nil {
					h1Title = textContent(n)
				}
			case "title":
				if htmlTitle == "" && n.FirstChild != nil {
					htmlTitle = n.FirstChild.Data
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)

	if ogTitle != "" {
		return strings.TrimSpace(ogTitle)
	}
	if twitterTitle != "" {
		return strings.TrimSpace(twitterTitle)
	}
	if h1Title != "" {
		return strings.TrimSpace(h1Title)
	}
	return strings.TrimSpace(htmlTitle)
}

func textContent(n *html.Node) string {
	var parts []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(parts, " ")
}

// extractImages collects img elements into image records, resolving relative
// URLs against the page and deduplicating by URL
func extractImages(n *html.Node, baseURL *url.URL) []models.ImageRecord {
	var images []models.ImageRecord
	seen := make(map[string]bool)

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			var src, alt string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "src":
					src = attr.Val
				case "alt":
					alt = attr.Val
				}
			}
			if src != "" {
				if imgURL, err := resolveURL(baseURL, src); err == nil && !seen[imgURL] {
					seen[imgURL] = true
					images = append(images, models.ImageRecord{
						URL:     imgURL,
						AltText: alt,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return images
}

// shouldSkipImage reports whether an image URL looks like a placeholder, UI
// component, tracking pixel, or other junk that would never belong on a
// detail page
func shouldSkipImage(imageURL string) bool {
	urlLower := strings.ToLower(imageURL)

	skipKeywords := []string{
		"placeholder",
		"temp",
		// UI components
		"icon",
		"logo",
		"button",
		"sprite",
		"avatar",
		// Tracking pixels and spacers
		"1x1",
		"pixel",
		"tracking",
		"spacer",
		"blank",
		"transparent",
		// Social and promotional
		"share-button",
		"social-icon",
		"ad-banner",
		"advertisement",
		"promo-banner",
		// Loading artifacts
		"spinner",
		"loader",
		"loading",
	}

	for _, keyword := range skipKeywords {
		if strings.Contains(urlLower, keyword) {
			return true
		}
	}
	return false
}

// resolveURL resolves a potentially relative URL against a base URL
func resolveURL(base *url.URL, href string) (string, error) {
	parsed, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(parsed).String(), nil
}
