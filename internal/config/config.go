// Package config loads process configuration from a YAML file and
// ENHANCESIM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/xtding233/enhance-sim/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. ENHANCESIM_HTTP_PORT.
const EnvPrefix = "ENHANCESIM"

type Config struct {
	ServiceName string        `mapstructure:"service_name"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	GRPC        GRPCConfig    `mapstructure:"grpc"`
	Rules       RulesConfig   `mapstructure:"rules"`
	Service     ServiceConfig `mapstructure:"service"`
	Logger      logger.Config `mapstructure:"logger"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	Mode         string `mapstructure:"mode"`          // gin mode: debug, release, test
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// RulesConfig points at the rules profiles.
type RulesConfig struct {
	Dir     string `mapstructure:"dir"` // empty: embedded default only
	Profile string `mapstructure:"profile"`
	Watch   bool   `mapstructure:"watch"`
}

type ServiceConfig struct {
	MaxSessions   int `mapstructure:"max_sessions"`
	MaxSearches   int `mapstructure:"max_searches"`
	SearchTTL     int `mapstructure:"search_ttl"`     // seconds a finished search stays queryable
	SessionTTL    int `mapstructure:"session_ttl"`    // seconds an idle session is kept
	PredictBudget int `mapstructure:"predict_budget"` // seconds before a prediction is stopped; 0 = none
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Addr is host:port.
func (h HTTPConfig) Addr() string { return fmt.Sprintf("%s:%d", h.Host, h.Port) }

// Addr is host:port.
func (g GRPCConfig) Addr() string { return fmt.Sprintf("%s:%d", g.Host, g.Port) }

// Load reads configPath (optional when empty) over the defaults and applies
// environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service_name is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port))
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		errs = append(errs, fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port))
	}
	if c.Service.MaxSessions < 1 || c.Service.MaxSearches < 1 {
		errs = append(errs, errors.New("service.max_sessions and service.max_searches must be >= 1"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "enhancesim")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 120)
	v.SetDefault("http.mode", "release")

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("rules.dir", "")
	v.SetDefault("rules.profile", "default")
	v.SetDefault("rules.watch", false)

	v.SetDefault("service.max_sessions", 1000)
	v.SetDefault("service.max_searches", 100)
	v.SetDefault("service.search_ttl", 600)
	v.SetDefault("service.session_ttl", 1800)
	v.SetDefault("service.predict_budget", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/enhancesim.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
