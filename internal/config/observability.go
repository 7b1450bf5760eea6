package config

// TracingConfig holds OTLP trace export configuration.
// Disabled by default; when enabled, spans are exported to the configured
// OTLP/HTTP endpoint (a local collector or agent).
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`         // host:port of the OTLP HTTP receiver
	Environment string `mapstructure:"environment" json:"environment"`   // dev, staging, prod
	ServiceName string `mapstructure:"service_name" json:"service_name"` // service name shown in traces
}
