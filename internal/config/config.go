// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.finch/config.yaml)
//  3. Default values
//
// Categories:
//   - Upstream: model provider endpoint, credential, sampling parameters
//   - Server: listen address, CORS, rate limiting
//   - Tools: quote/search endpoints and timeouts (see tools.go)
//   - Observability: OTLP trace export (see observability.go)
//
// The upstream API key is sensitive and masked in MarshalJSON/String.
// Validation is fail-fast: Load returns an error before any component is
// constructed, never at call time.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the upstream credential is absent.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidBaseURL indicates an endpoint URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidAddr indicates the listen address is malformed.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidToolTimeout indicates the tool fetch timeout is out of range.
	ErrInvalidToolTimeout = errors.New("invalid tool timeout")
)

// Defaults for the upstream model call. The provider speaks the
// OpenAI-compatible chat-completions protocol.
const (
	DefaultUpstreamBaseURL = "https://api.groq.com/openai/v1"
	DefaultModelName       = "llama-3.1-8b-instant"
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 2000
)

// DefaultAddr is the default HTTP listen address for serve mode.
const DefaultAddr = "127.0.0.1:8787"

// Config stores application configuration.
// SECURITY: the API key is explicitly masked in MarshalJSON.
type Config struct {
	// Upstream model configuration
	APIKey          string  `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	UpstreamBaseURL string  `mapstructure:"upstream_base_url" json:"upstream_base_url"`
	ModelName       string  `mapstructure:"model_name" json:"model_name"`
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Persona overrides the default system instruction when non-empty.
	Persona string `mapstructure:"persona" json:"persona"`

	// Server configuration (serve mode only)
	Addr       string `mapstructure:"addr" json:"addr"`
	TrustProxy bool   `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst  int    `mapstructure:"rate_burst" json:"rate_burst"`   // Per-IP token bucket burst (0 = default)

	// Client configuration (chat/ask modes)
	ServerURL string `mapstructure:"server_url" json:"server_url"`

	// Tool configuration (see tools.go)
	Tools ToolsConfig `mapstructure:"tools" json:"tools"`

	// Observability configuration (see observability.go)
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".finch")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream_base_url", DefaultUpstreamBaseURL)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("trust_proxy", false)
	v.SetDefault("server_url", "http://"+DefaultAddr)

	v.SetDefault("tools.finance_base_url", DefaultFinanceBaseURL)
	v.SetDefault("tools.search_base_url", DefaultSearchBaseURL)
	v.SetDefault("tools.timeout_ms", DefaultToolTimeoutMs)
	v.SetDefault("tools.fetch_pages", false)

	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.environment", "dev")
	v.SetDefault("tracing.service_name", "finch")
	v.SetDefault("tracing.enabled", false)
}

// bindEnvVariables binds environment variables explicitly.
// The only secret is FINCH_API_KEY; everything else is an override.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "FINCH_API_KEY")
	mustBind("upstream_base_url", "FINCH_UPSTREAM_BASE_URL")
	mustBind("model_name", "FINCH_MODEL_NAME")
	mustBind("addr", "FINCH_ADDR")
	mustBind("server_url", "FINCH_SERVER_URL")
	mustBind("trust_proxy", "FINCH_TRUST_PROXY")
	mustBind("rate_burst", "FINCH_RATE_BURST")
	mustBind("tracing.enabled", "FINCH_TRACING")
	mustBind("tracing.endpoint", "FINCH_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data. Full-width block
// characters avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Secrets of 8 characters or
// fewer are fully masked; longer ones keep the first and last 2 characters
// for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit API key masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIKey = maskSecret(a.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
