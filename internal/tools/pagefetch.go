package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/finchhq/finch/internal/log"
)

// excerptRunes bounds the excerpt length so a long article does not crowd
// the model's context window.
const excerptRunes = 500

// PageFetcher downloads a web page and extracts a short readable excerpt.
// Extraction prefers the readability algorithm and falls back to the page
// title plus meta description when the page has no extractable article.
type PageFetcher struct {
	client *http.Client
	logger log.Logger
}

func NewPageFetcher(client *http.Client, logger log.Logger) *PageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &PageFetcher{client: client, logger: logger}
}

// Excerpt fetches pageURL and returns up to excerptRunes runes of readable
// text. Unlike the providers, it returns errors: the caller decides whether
// enrichment failure is fatal.
func (p *PageFetcher) Excerpt(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing page url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building page request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading page body: %w", err)
	}

	if article, err := readability.FromReader(strings.NewReader(string(body)), u); err == nil {
		if text := collapseWhitespace(article.TextContent); text != "" {
			return truncateRunes(text, excerptRunes), nil
		}
	}

	// No extractable article. Fall back to title and meta description.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parsing page html: %w", err)
	}

	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			parts = append(parts, desc)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return truncateRunes(strings.Join(parts, " - "), excerptRunes), nil
}

// collapseWhitespace squeezes runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
