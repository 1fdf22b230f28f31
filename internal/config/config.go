// Package config loads run configuration from flags, the
// DISCOGS_CACHE_ environment prefix, a discogs-cache.yaml file, and
// built-in defaults, in that priority order, via viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully-resolved set of inputs a pipeline run needs.
type Config struct {
	InputSource    string `mapstructure:"input-source"`
	LibraryCatalog string `mapstructure:"library-catalog-path"`
	TargetStoreURL string `mapstructure:"target-store-url"`
	DatabaseURL    string `mapstructure:"database-url"`
	MappingsPath   string `mapstructure:"mappings-path"`
	StateFilePath  string `mapstructure:"state-file-path"`
	Resume         bool   `mapstructure:"resume"`
	LogLevel       string `mapstructure:"log-level"`
}

// Sentinel configuration errors, returned by Validate and wrapped with
// the offending field by callers that need more context.
var (
	ErrMissingDatabaseURL   = errors.New("config: database-url is required")
	ErrMissingInputSource   = errors.New("config: input-source is required")
	ErrTargetWithoutLibrary = errors.New("config: target-store-url requires library-catalog-path")
)

// Defaults mirror the teacher's local_config.go fallback values: safe,
// conservative choices that still let a first run succeed without a
// config file.
var Defaults = map[string]any{
	"state-file-path": "pipeline_state.json",
	"mappings-path":   "",
	"resume":          false,
	"log-level":       "info",
}

// Load resolves a Config from flags, then DISCOGS_CACHE_ environment
// variables, then discogs-cache.yaml in the working directory, then
// Defaults, using viper's built-in precedence for exactly that order.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, val := range Defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("DISCOGS_CACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("discogs-cache")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read discogs-cache.yaml: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate enforces the invocation contract's cross-field rules: a
// database is always required, an input source is required unless
// resuming a state file that already names one, and a target store
// only makes sense alongside a library catalog to classify against.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.InputSource == "" && !c.Resume {
		return ErrMissingInputSource
	}
	if c.TargetStoreURL != "" && c.LibraryCatalog == "" {
		return ErrTargetWithoutLibrary
	}
	return nil
}
