package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config path (--config). When set, it must exist.
	ConfigFile string
	// EnvFile is the dotenv file to read. Defaults to ".env" in the working directory.
	EnvFile string
	// SearchPaths overrides the directories searched for taskdash.yaml.
	SearchPaths []string
}

// Loaded is a resolved configuration plus the files it came from.
type Loaded struct {
	Config *Config
	// ConfigFile is the config file actually read, empty if none was found.
	ConfigFile string
	// EnvFile is the dotenv file applied, empty if none was found.
	EnvFile string
}

// Load resolves configuration.
// Load order (later sources override earlier):
//  1. Built-in defaults
//  2. taskdash.yaml (./, then ~/.taskdash/) or the --config file
//  3. .env (never overrides variables already in the environment)
//  4. Environment variables (ASANA_TOKEN, ASANA_PROJECT, TASKDASH_*)
func Load(opts LoadOptions) (*Loaded, error) {
	loaded := &Loaded{}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = EnvFileName
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := gotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		loaded.EnvFile = envFile
	}

	v := newViper(opts)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	}
	loaded.ConfigFile = v.ConfigFileUsed()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Asana.BaseURL = strings.TrimRight(cfg.Asana.BaseURL, "/")
	loaded.Config = cfg

	return loaded, nil
}

func newViper(opts LoadOptions) *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if paths == nil {
			paths = defaultSearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	return v
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".taskdash"))
	}
	return paths
}

// setDefaults registers every key so Unmarshal sees environment overrides
// even when no config file mentions the key.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("asana.token", d.Asana.Token)
	v.SetDefault("asana.project", d.Asana.Project)
	v.SetDefault("asana.base_url", d.Asana.BaseURL)
	v.SetDefault("asana.timeout", d.Asana.Timeout)
	v.SetDefault("asana.max_retries", d.Asana.MaxRetries)
	v.SetDefault("asana.page_size", d.Asana.PageSize)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.key_prefix", d.Cache.Redis.KeyPrefix)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("dashboard.title", d.Dashboard.Title)
	v.SetDefault("dashboard.chart_height", d.Dashboard.ChartHeight)
	v.SetDefault("dashboard.show_unclassified", d.Dashboard.ShowUnclassified)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
