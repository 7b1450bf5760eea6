package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/finchhq/finch/internal/log"
)

// Fixed search provider strings. These are part of the provider contract:
// callers and tests rely on them verbatim.
const (
	searchUnavailable = "Unable to perform web search at this time."
	searchNoResults   = "No search results found."

	// maxRelatedTopics caps the related-item list in the output block.
	maxRelatedTopics = 3
)

// Search retrieves a short abstract plus related items from an
// instant-answer search API.
type Search struct {
	baseURL string
	client  *http.Client
	logger  log.Logger

	// pages, when non-nil, enables the page-excerpt enrichment: the
	// abstract's source page is fetched and a readable excerpt appended to
	// the result block. Same fail-soft policy as the search itself.
	pages *PageFetcher
}

// NewSearch creates a search provider. pages may be nil to disable the
// excerpt enrichment.
func NewSearch(baseURL string, client *http.Client, pages *PageFetcher, logger log.Logger) *Search {
	if client == nil {
		client = http.DefaultClient
	}
	return &Search{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		pages:   pages,
		logger:  logger,
	}
}

// searchResponse mirrors the instant-answer payload.
type searchResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Fetch returns a formatted text block of search results for query, the
// fixed no-results string when the provider yields nothing, or the fixed
// unavailable string on any failure. It never returns an error.
func (s *Search) Fetch(ctx context.Context, query string) string {
	u := fmt.Sprintf("%s/?q=%s&format=json", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		s.logger.Error("building search request", "error", err)
		return searchUnavailable
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("search fetch failed", "error", err)
		return searchUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("search fetch non-OK status", "status", resp.StatusCode)
		return searchUnavailable
	}

	var sr searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&sr); err != nil {
		s.logger.Warn("decoding search response", "error", err)
		return searchUnavailable
	}

	var b strings.Builder
	if sr.AbstractText != "" {
		fmt.Fprintf(&b, "Summary: %s\n", sr.AbstractText)
	}
	if sr.AbstractURL != "" {
		fmt.Fprintf(&b, "Source: %s\n", sr.AbstractURL)
	}

	if len(sr.RelatedTopics) > 0 {
		b.WriteString("\nRelated Information:\n")
		n := 0
		for _, topic := range sr.RelatedTopics {
			if topic.Text == "" {
				continue
			}
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, topic.Text)
			if topic.FirstURL != "" {
				fmt.Fprintf(&b, "   Source: %s\n", topic.FirstURL)
			}
			if n == maxRelatedTopics {
				break
			}
		}
	}

	if b.Len() == 0 {
		return searchNoResults
	}

	if s.pages != nil && sr.AbstractURL != "" {
		if excerpt, err := s.pages.Excerpt(ctx, sr.AbstractURL); err != nil {
			s.logger.Debug("page excerpt failed", "url", sr.AbstractURL, "error", err)
		} else if excerpt != "" {
			fmt.Fprintf(&b, "\nPage Excerpt:\n%s\n", excerpt)
		}
	}

	return b.String()
}
