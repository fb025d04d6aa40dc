// Package config provides configuration management for taskdash.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

const (
	// ConfigFileName is the default config file name (without extension).
	ConfigFileName = "taskdash"
	// EnvFileName is the dotenv file read at startup when present.
	EnvFileName = ".env"
	// EnvPrefix prefixes every taskdash environment variable.
	EnvPrefix = "TASKDASH"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// AsanaConfig holds the connection settings for the Asana REST API.
type AsanaConfig struct {
	// Token is the Asana personal access token (ASANA_TOKEN).
	Token string `yaml:"token" mapstructure:"token"`
	// Project is the gid of the project whose tasks are charted (ASANA_PROJECT).
	Project string `yaml:"project" mapstructure:"project"`
	// BaseURL is the API root, overridable for tests and proxies.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxRetries bounds transport-level retries on 429/5xx/network errors.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// PageSize is the Asana "limit" parameter (1-100).
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// RedisConfig configures the optional shared cache store.
type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// CacheConfig controls the fetch cache.
type CacheConfig struct {
	TTL    time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Driver string        `yaml:"driver" mapstructure:"driver"`
	Redis  RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// ServerConfig controls the dashboard HTTP server.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// DashboardConfig controls what the page shows.
type DashboardConfig struct {
	Title       string `yaml:"title" mapstructure:"title"`
	ChartHeight string `yaml:"chart_height" mapstructure:"chart_height"`
	// ShowUnclassified adds an "Unclassified" slice for departments outside
	// the known set. Off by default so the chart keeps its six fixed slices.
	ShowUnclassified bool `yaml:"show_unclassified" mapstructure:"show_unclassified"`
}

// LoggingConfig controls the slog handler installed by the CLI.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Config represents the taskdash configuration.
type Config struct {
	Asana     AsanaConfig     `yaml:"asana" mapstructure:"asana"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Asana: AsanaConfig{
			BaseURL:    "https://app.asana.com/api/1.0",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			PageSize:   100,
		},
		Cache: CacheConfig{
			TTL:    60 * time.Second,
			Driver: CacheDriverMemory,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "taskdash:",
			},
		},
		Server: ServerConfig{
			Port: 8501,
		},
		Dashboard: DashboardConfig{
			Title:       "DSRS Tasks Dashboard",
			ChartHeight: "400px",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Redacted returns a copy safe to print: secrets are masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Asana.Token = mask(c.Asana.Token)
	out.Cache.Redis.Password = mask(c.Cache.Redis.Password)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + strings.Repeat("*", 8)
}

// Validate reports every missing or invalid setting.
// The dashboard still starts with an invalid config; failures then surface
// as fetch errors on the page.
func (c *Config) Validate() error {
	var errs []error

	if c.Asana.Token == "" {
		errs = append(errs, dasherrors.ErrConfigMissing("asana.token", "ASANA_TOKEN"))
	}
	if c.Asana.Project == "" {
		errs = append(errs, dasherrors.ErrConfigMissing("asana.project", "ASANA_PROJECT"))
	}
	if c.Asana.Timeout <= 0 {
		errs = append(errs, dasherrors.ErrConfigInvalid("asana.timeout", "must be positive"))
	}
	if c.Asana.MaxRetries < 0 {
		errs = append(errs, dasherrors.ErrConfigInvalid("asana.max_retries", "must not be negative"))
	}
	if c.Asana.PageSize < 1 || c.Asana.PageSize > 100 {
		errs = append(errs, dasherrors.ErrConfigInvalid("asana.page_size", "must be between 1 and 100"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, dasherrors.ErrConfigInvalid("cache.ttl", "must be positive"))
	}
	switch c.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, dasherrors.ErrConfigMissing("cache.redis.addr", ""))
		}
	default:
		errs = append(errs, dasherrors.ErrConfigInvalid("cache.driver",
			"must be one of: "+CacheDriverMemory+", "+CacheDriverRedis))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, dasherrors.ErrConfigInvalid("server.port", "must be between 0 and 65535"))
	}

	return errors.Join(errs...)
}
