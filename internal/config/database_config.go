package config

// DatabaseConfig carries the raw database section. The storage layer
// decodes it into its driver-specific configuration.
type DatabaseConfig struct {
	SQL map[string]any `mapstructure:"sql,omitempty"`
}
