package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service  *ServiceConfig  `mapstructure:"service"`
	Database *DatabaseConfig `mapstructure:"database"`
	Engine   *EngineConfig   `mapstructure:"engine"`
	Registry *RegistryConfig `mapstructure:"registry"`
	Datasets *DatasetsConfig `mapstructure:"datasets"`
	MLflow   *MLflowConfig   `mapstructure:"mlflow"`
}

type ServiceConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// EngineConfig holds the knobs of the evaluation execution engine.
type EngineConfig struct {
	// Per-invocation wall clock timeout.
	InvocationTimeout time.Duration `mapstructure:"invocation_timeout"`
	Retry             RetryConfig   `mapstructure:"retry"`
	BatchSize         int           `mapstructure:"batch_size"`
	// Providers whose client supports one multi-prompt call per batch.
	BulkProviders []string `mapstructure:"bulk_providers"`
	// Ordered provider names tried after the primary is exhausted.
	FallbackProviders []string     `mapstructure:"fallback_providers"`
	Router            RouterConfig `mapstructure:"router"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Multiplier  float64       `mapstructure:"multiplier"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type RouterConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Aliases maps a model name to the router-resolved alias. Models
	// without an entry get the "auto:<model>" form.
	Aliases map[string]string `mapstructure:"aliases"`
}

type RegistryConfig struct {
	// Path of the providers/models configuration file, watched for changes.
	Path string `mapstructure:"path"`
}

type DatasetsConfig struct {
	// Root directory holding the dataset JSON files.
	Root string `mapstructure:"root"`
}

type MLflowConfig struct {
	TrackingURL string `mapstructure:"tracking_url"`
	Experiment  string `mapstructure:"experiment"`
}

// Load reads the service configuration file with viper and applies defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.port", 8080)
	v.SetDefault("service.log_level", "info")
	v.SetDefault("engine.invocation_timeout", time.Minute)
	v.SetDefault("engine.retry.max_attempts", 3)
	v.SetDefault("engine.retry.base_delay", time.Second)
	v.SetDefault("engine.retry.multiplier", 2.0)
	v.SetDefault("engine.retry.max_delay", 30*time.Second)
	v.SetDefault("engine.batch_size", 5)
	v.SetDefault("registry.path", "registry.yaml")
	v.SetDefault("datasets.root", "datasets")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
