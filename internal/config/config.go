package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/site-connector/pkg/connector"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string `mapstructure:"app_name"`
	Env                 string `mapstructure:"app_env"`
	LogLevel            string `mapstructure:"log_level"`
	ProfilesFile        string `mapstructure:"profiles_file"`
	DefaultMethod       string `mapstructure:"default_method"`
	DefaultTimeoutMs    int    `mapstructure:"default_timeout_ms"`
	DefaultIgnoreErrors bool   `mapstructure:"default_ignore_errors"`
	UserAgent           string `mapstructure:"user_agent"`
}

// Load reads configuration from configs/.env and environment variables.
func Load() (*Config, error) {
	return LoadFrom("configs/.env")
}

// LoadFrom is Load with an explicit dotenv path. A missing dotenv file is not an error.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()

	v.SetDefault("app_name", "site-connector")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("profiles_file", "./configs/requests.yaml")
	v.SetDefault("default_method", connector.DefaultMethod)
	v.SetDefault("default_timeout_ms", connector.DefaultTimeoutMillis)
	v.SetDefault("default_ignore_errors", connector.DefaultIgnoreErrors)
	v.SetDefault("user_agent", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DefaultMethod = strings.ToUpper(strings.TrimSpace(cfg.DefaultMethod))
	if cfg.DefaultMethod == "" {
		return nil, fmt.Errorf("invalid default_method (must not be empty)")
	}
	if cfg.DefaultTimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid default_timeout_ms (must be positive milliseconds)")
	}

	return &cfg, nil
}

// Defaults builds the connector base configuration from the loaded settings.
func (c *Config) Defaults() connector.RequestConfig {
	d := connector.DefaultConfig()
	if c == nil {
		return d
	}
	d.Method = c.DefaultMethod
	d.TimeoutMillis = c.DefaultTimeoutMs
	d.IgnoreErrors = c.DefaultIgnoreErrors
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		d.Headers["User-Agent"] = ua
	}
	return d
}
