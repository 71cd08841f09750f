package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > datachat.yaml > datachat.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("datachat.yaml"); err == nil {
		return "datachat.yaml"
	}
	if _, err := os.Stat("datachat.yml"); err == nil {
		return "datachat.yml"
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Later sources override earlier ones.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"format":              DefaultFormat,
		"history_file":        DefaultHistoryFile,
		"llm.base_url":        DefaultBaseURL,
		"llm.model":           DefaultModel,
		"llm.temperature":     0.0,
		"llm.api_key":         "",
		"llm.timeout_seconds": 0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (DATACHAT_ prefix; __ separates nesting)
	if err := k.Load(env.Provider("DATACHAT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "DATACHAT_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetCurrentConfig returns the config loaded by the last Load call, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// GetConfigFileUsed returns the path of the config file Load read, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LLMTimeout returns the configured client timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// NewLogger builds the CLI logger: debug level to stderr when verbose,
// otherwise discard.
func (c *Config) NewLogger() *slog.Logger {
	if !c.Verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
