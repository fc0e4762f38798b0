package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/agropulse.log"`
}

// FetchConfig contains scraper configuration.
type FetchConfig struct {
	BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://rnm.franceagrimer.fr" validate:"url"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" default:"1" validate:"gt=0"`
	MaxProductPages int           `yaml:"max_product_pages" envconfig:"MAX_PRODUCT_PAGES" default:"10" validate:"min=1"`
	Headless        bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
}

// AnalyticsConfig contains analytics engine defaults.
type AnalyticsConfig struct {
	Seed              int64   `yaml:"seed" envconfig:"SEED" default:"42"`
	AlertThresholdPct float64 `yaml:"alert_threshold_pct" envconfig:"ALERT_THRESHOLD_PCT" default:"20" validate:"gt=0"`
	ForecastHorizon   int     `yaml:"forecast_horizon" envconfig:"FORECAST_HORIZON" default:"7" validate:"min=1,max=90"`
}

// Load loads configuration from environment variables and an optional YAML
// config file. Environment variables take precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("AGRO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getConfigFilePath returns the config file path, honoring AGRO_CONFIG_FILE.
func getConfigFilePath() string {
	if path := os.Getenv("AGRO_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// mergeConfigs layers the file configuration under the environment
// configuration: any env value left at its zero value falls back to the file.
func mergeConfigs(file, env Config) Config {
	merged := env

	if merged.Server.Port == 0 {
		merged.Server.Port = file.Server.Port
	}
	if merged.Server.ReadTimeout == 0 {
		merged.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if merged.Server.WriteTimeout == 0 {
		merged.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if merged.Server.IdleTimeout == 0 {
		merged.Server.IdleTimeout = file.Server.IdleTimeout
	}
	if merged.Server.ShutdownTimeout == 0 {
		merged.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if merged.Logging.Level == "" {
		merged.Logging.Level = file.Logging.Level
	}
	if merged.Logging.Format == "" {
		merged.Logging.Format = file.Logging.Format
	}
	if merged.Logging.Output == "" {
		merged.Logging.Output = file.Logging.Output
	}
	if merged.Logging.FilePath == "" {
		merged.Logging.FilePath = file.Logging.FilePath
	}
	if merged.Paths.DataDir == "" {
		merged.Paths.DataDir = file.Paths.DataDir
	}
	if merged.Paths.ReportsDir == "" {
		merged.Paths.ReportsDir = file.Paths.ReportsDir
	}
	if merged.Fetch.BaseURL == "" {
		merged.Fetch.BaseURL = file.Fetch.BaseURL
	}
	if merged.Fetch.RequestTimeout == 0 {
		merged.Fetch.RequestTimeout = file.Fetch.RequestTimeout
	}
	if merged.Fetch.RequestsPerSec == 0 {
		merged.Fetch.RequestsPerSec = file.Fetch.RequestsPerSec
	}
	if merged.Fetch.MaxProductPages == 0 {
		merged.Fetch.MaxProductPages = file.Fetch.MaxProductPages
	}
	if merged.Analytics.Seed == 0 {
		merged.Analytics.Seed = file.Analytics.Seed
	}
	if merged.Analytics.AlertThresholdPct == 0 {
		merged.Analytics.AlertThresholdPct = file.Analytics.AlertThresholdPct
	}
	if merged.Analytics.ForecastHorizon == 0 {
		merged.Analytics.ForecastHorizon = file.Analytics.ForecastHorizon
	}

	return merged
}
