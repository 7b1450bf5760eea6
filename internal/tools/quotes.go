// Package tools implements the external data providers the agent can consult
// before calling the model: a market-data quote provider and a web-search
// provider, plus an optional page-excerpt fetcher.
//
// Every provider is fail-soft: transport errors, decode errors, timeouts and
// unrecognized inputs all degrade to a fixed human-readable fallback string.
// A tool failure must never abort the overall request.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/finchhq/finch/internal/log"
)

// maxResponseSize bounds provider response bodies to prevent resource
// exhaustion from a misbehaving endpoint.
const maxResponseSize = 2 << 20

// Quotes retrieves last-trade metadata for a ticker symbol.
type Quotes struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewQuotes creates a quote provider. baseURL is the market-data API root
// (no trailing slash required); client supplies timeout policy.
func NewQuotes(baseURL string, client *http.Client, logger log.Logger) *Quotes {
	if client == nil {
		client = http.DefaultClient
	}
	return &Quotes{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// chartResponse mirrors the market-data chart payload. Optional numbers are
// pointers: the upstream omits or nulls fields for halted or delisted
// symbols.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Fetch returns a markdown table of last-trade data for symbol, or a
// fallback string when the data cannot be retrieved. It never returns an
// error: tool failures degrade to text.
func (q *Quotes) Fetch(ctx context.Context, symbol string) string {
	fallback := fmt.Sprintf("Unable to fetch stock data for %s", symbol)

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", q.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		q.logger.Error("building quote request", "symbol", symbol, "error", err)
		return fallback
	}

	resp, err := q.client.Do(req)
	if err != nil {
		q.logger.Warn("quote fetch failed", "symbol", symbol, "error", err)
		return fallback
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		q.logger.Warn("quote fetch non-OK status", "symbol", symbol, "status", resp.StatusCode)
		return fallback
	}

	var chart chartResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&chart); err != nil {
		q.logger.Warn("decoding quote response", "symbol", symbol, "error", err)
		return fallback
	}

	if len(chart.Chart.Result) == 0 {
		// Upstream's shape for an unrecognized symbol.
		return fallback
	}

	result := chart.Chart.Result[0]
	meta := result.Meta

	var high, low, volume *float64
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		high = firstValue(quote.High)
		low = firstValue(quote.Low)
		volume = firstValue(quote.Volume)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Stock Data for %s**\n\n", symbol)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Current Price | %s |\n", dollars(meta.RegularMarketPrice))
	fmt.Fprintf(&b, "| Previous Close | %s |\n", dollars(meta.PreviousClose))
	fmt.Fprintf(&b, "| Day High | %s |\n", dollars(high))
	fmt.Fprintf(&b, "| Day Low | %s |\n", dollars(low))
	fmt.Fprintf(&b, "| Volume | %s |\n", shares(volume))
	fmt.Fprintf(&b, "| Change | %s |\n", change(meta.RegularMarketPrice, meta.PreviousClose))

	q.logger.Debug("quote fetched", "symbol", symbol)
	return b.String()
}

// firstValue returns the first non-nil entry of a sparse series.
func firstValue(series []*float64) *float64 {
	for _, v := range series {
		if v != nil {
			return v
		}
	}
	return nil
}

func dollars(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func shares(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return groupThousands(int64(*v))
}

// change formats the signed price delta with percentage, "+" prefixed when
// non-negative.
func change(price, prev *float64) string {
	if price == nil || prev == nil || *prev == 0 {
		return "N/A"
	}
	delta := *price - *prev
	percent := delta / *prev * 100
	sign := ""
	if delta >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s$%.2f (%.2f%%)", sign, delta, percent)
}

// groupThousands renders n with comma separators (12345678 → "12,345,678").
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
