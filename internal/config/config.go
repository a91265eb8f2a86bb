// Package config loads process configuration from file, environment and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Shop      ShopConfig      `mapstructure:"shop"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Credits   CreditsConfig   `mapstructure:"credits"`
	Checklist ChecklistConfig `mapstructure:"checklist"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type ShopConfig struct {
	ID string `mapstructure:"id"`
}

type CatalogConfig struct {
	Kind     string        `mapstructure:"kind"`
	Path     string        `mapstructure:"path"`
	BaseURL  string        `mapstructure:"base_url"`
	Token    string        `mapstructure:"token"`
	RetryMax int           `mapstructure:"retry_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type GeneratorConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	ImageEndpoint   string        `mapstructure:"image_endpoint"`
	ImageModel      string        `mapstructure:"image_model"`
	MaxPerMinute    int           `mapstructure:"max_per_minute"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
}

type BatchConfig struct {
	MaxSize     int           `mapstructure:"max_size"`
	Concurrency int           `mapstructure:"concurrency"`
	Pause       time.Duration `mapstructure:"pause"`
	ItemDelay   time.Duration `mapstructure:"item_delay"`
}

type CreditsConfig struct {
	MonthlyLimit int `mapstructure:"monthly_limit"`
}

type ChecklistConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.path", "~/.local/share/shelfready/shelfready.db")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("shop.id", "default")
	v.SetDefault("catalog.kind", "file")
	v.SetDefault("catalog.path", "catalog.json")
	v.SetDefault("catalog.retry_max", 0)
	v.SetDefault("catalog.timeout", 30*time.Second)
	v.SetDefault("generator.model", "gpt-4o-mini")
	v.SetDefault("generator.image_model", "gpt-image-1")
	v.SetDefault("generator.max_per_minute", 60)
	v.SetDefault("generator.poll_interval", 2*time.Second)
	v.SetDefault("generator.max_poll_attempts", 30)
	v.SetDefault("batch.max_size", 50)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("batch.pause", time.Second)
	v.SetDefault("batch.item_delay", 2*time.Second)
	v.SetDefault("credits.monthly_limit", 100)
	v.SetDefault("checklist.path", ".")
}

// Default returns the configuration with every default applied and nothing
// read from disk or the environment.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults are plain values of the target types; decoding cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads configuration into a Config. file overrides the search path
// ($HOME/.config/shelfready, then the working directory). A missing config
// file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "shelfready"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SHELFREADY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	path, err := homedir.Expand(cfg.Database.Path)
	if err != nil {
		return Config{}, fmt.Errorf("expanding database.path: %w", err)
	}
	cfg.Database.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for problems that would only surface later.
func (c Config) Validate() error {
	switch c.Catalog.Kind {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file catalog")
		}
	case "http":
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required for the http catalog")
		}
	default:
		return fmt.Errorf("unknown catalog.kind %q (valid: file, http)", c.Catalog.Kind)
	}
	if c.Catalog.RetryMax < 0 {
		return fmt.Errorf("catalog.retry_max must be >= 0 (got %d)", c.Catalog.RetryMax)
	}
	if c.Shop.ID == "" {
		return fmt.Errorf("shop.id must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Batch.MaxSize < 1 {
		return fmt.Errorf("batch.max_size must be >= 1 (got %d)", c.Batch.MaxSize)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1 (got %d)", c.Batch.Concurrency)
	}
	if c.Batch.Pause < 0 || c.Batch.ItemDelay < 0 {
		return fmt.Errorf("batch.pause and batch.item_delay must not be negative")
	}
	if c.Generator.MaxPerMinute < 1 {
		return fmt.Errorf("generator.max_per_minute must be >= 1 (got %d)", c.Generator.MaxPerMinute)
	}
	if c.Generator.MaxPollAttempts < 1 {
		return fmt.Errorf("generator.max_poll_attempts must be >= 1 (got %d)", c.Generator.MaxPollAttempts)
	}
	if c.Credits.MonthlyLimit < 0 {
		return fmt.Errorf("credits.monthly_limit must be >= 0 (got %d)", c.Credits.MonthlyLimit)
	}
	return nil
}
