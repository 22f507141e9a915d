// Package config loads settings from <home>/config.yaml, .env files and
// WORKLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/faizmokh/worklog/internal/llm"
)

const (
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "WORKLOG"

	// fallbackKeyEnv is consulted when WORKLOG_API_KEY is not set.
	fallbackKeyEnv = "OPENAI_API_KEY"

	DefaultLogLevel = "warn"
)

// Config is the effective configuration for one invocation.
type Config struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Endpoint    string        `mapstructure:"endpoint"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LogLevel    string        `mapstructure:"log_level"`

	// Home is the directory the configuration was resolved against.
	Home string `mapstructure:"-"`
	// File is the config file that was read, empty when none existed.
	File string `mapstructure:"-"`
}

// Load reads configuration for the worklog rooted at home. A missing config
// file is not an error.
func Load(home string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(home, ".env"), ".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("api_key", "")
	v.SetDefault("model", llm.DefaultModel)
	v.SetDefault("endpoint", llm.DefaultEndpoint)
	v.SetDefault("max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("temperature", llm.DefaultTemperature)
	v.SetDefault("timeout", llm.DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(home)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = os.Getenv(fallbackKeyEnv)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Home = home
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// loadDotEnv loads each existing file in order. Variables already present in
// the environment are never overridden.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Client builds the chat completions client described by c.
func (c *Config) Client() *llm.Client {
	return llm.NewClient(c.APIKey,
		llm.WithEndpoint(c.Endpoint),
		llm.WithModel(c.Model),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithTemperature(c.Temperature),
		llm.WithTimeout(c.Timeout),
	)
}

// Logger returns a text logger writing to w at the configured level. verbose
// forces debug output.
func (c *Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if c != nil {
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			level = slog.LevelWarn
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type view struct {
	Home        string  `yaml:"home"`
	File        string  `yaml:"config_file,omitempty"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Endpoint    string  `yaml:"endpoint"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
	LogLevel    string  `yaml:"log_level"`
}

// YAML renders the effective configuration with the API key masked.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(view{
		Home:        c.Home,
		File:        c.File,
		APIKey:      MaskKey(c.APIKey),
		Model:       c.Model,
		Endpoint:    c.Endpoint,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout.String(),
		LogLevel:    c.LogLevel,
	})
}

// MaskKey hides all but the edges of a secret.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:3] + "..." + key[len(key)-4:]
	}
}
