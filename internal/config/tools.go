package config

// Default tool provider endpoints. Both are unauthenticated, best-effort
// dependencies; tests override them with httptest servers.
const (
	DefaultFinanceBaseURL = "https://query1.finance.yahoo.com"
	DefaultSearchBaseURL  = "https://api.duckduckgo.com"

	// DefaultToolTimeoutMs bounds a single provider fetch so a slow tool
	// cannot stall prompt assembly. On timeout the provider degrades to its
	// fallback text.
	DefaultToolTimeoutMs = 5000
)

// ToolsConfig holds tool provider configuration.
type ToolsConfig struct {
	// FinanceBaseURL is the market-data API root.
	FinanceBaseURL string `mapstructure:"finance_base_url" json:"finance_base_url"`

	// SearchBaseURL is the instant-answer search API root.
	SearchBaseURL string `mapstructure:"search_base_url" json:"search_base_url"`

	// TimeoutMs is the per-fetch timeout in milliseconds.
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`

	// FetchPages enables the search page-excerpt enrichment: when the
	// search result carries a source URL, fetch the page and append a short
	// readable excerpt to the search block.
	FetchPages bool `mapstructure:"fetch_pages" json:"fetch_pages"`
}
