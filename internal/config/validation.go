package config

import (
	"fmt"
	"net"
	"net/url"
)

// Validate validates configuration values shared by all modes.
// Returns sentinel errors that can be checked with errors.Is().
// The upstream credential is only required in serve mode; see ValidateServe.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 131072 {
		return fmt.Errorf("%w: must be between 1 and 131,072, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	for name, raw := range map[string]string{
		"upstream_base_url":      c.UpstreamBaseURL,
		"server_url":             c.ServerURL,
		"tools.finance_base_url": c.Tools.FinanceBaseURL,
		"tools.search_base_url":  c.Tools.SearchBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s = %q", ErrInvalidBaseURL, name, raw)
		}
	}

	if c.Tools.TimeoutMs < 100 || c.Tools.TimeoutMs > 60000 {
		return fmt.Errorf("%w: tools.timeout_ms must be between 100 and 60,000, got %d",
			ErrInvalidToolTimeout, c.Tools.TimeoutMs)
	}

	return nil
}

// ValidateServe validates the additional requirements of serve mode.
// A missing upstream credential is a fatal configuration error: the server
// refuses to start rather than failing every request at call time.
func (c *Config) ValidateServe() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: FINCH_API_KEY environment variable is required", ErrMissingAPIKey)
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAddr, c.Addr, err)
	}

	if c.RateBurst < 0 {
		c.RateBurst = 0
	}

	return nil
}
