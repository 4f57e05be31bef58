package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ARGRISK_CONFIG is set
//  3. env (prefix ARGRISK_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ARGRISK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ARGRISK_ADDR, ARGRISK_TABLE_PATH, ...
	// Map env keys like ARGRISK_TABLE_PATH -> table_path (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ARGRISK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "argrisk_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TablePath == "" {
		return fmt.Errorf("%w: table_path must not be empty", ErrInvalidConfig)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy_threshold must be in (0,1], got %v", ErrInvalidConfig, c.FuzzyThreshold)
	}
	if c.FuzzyTopK < 1 {
		return fmt.Errorf("%w: fuzzy_top_k must be at least 1", ErrInvalidConfig)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("%w: max_batch_size must be at least 1", ErrInvalidConfig)
	}
	if c.SuggestLimit < 1 {
		return fmt.Errorf("%w: suggest_limit must be at least 1", ErrInvalidConfig)
	}
	return nil
}
