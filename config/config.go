// Package config loads and validates the engine configuration. All
// validation is eager: bad naming templates or malformed overrides are
// reported here, before any analysis runs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/relspect/relspect/catalog"
	"github.com/relspect/relspect/infer"
	"github.com/relspect/relspect/naming"
)

// DefaultConfigPath is where the CLI looks for configuration when no
// path is given.
const DefaultConfigPath = "./relspect.yaml"

const envPrefix = "RELSPECT_"

type Config struct {
	// Database connection string
	DSN string `koanf:"dsn"`
	// database/sql driver to use, per dialect defaults apply
	Driver string `koanf:"driver"`
	// Postgres schemas to introspect
	Schemas []string `koanf:"schemas"`
	// How many tables to analyze in parallel
	Concurrency int `koanf:"concurrency"`

	// Cap on distinct-value sampling for polymorphic type columns
	SampleLimit int `koanf:"sample_limit"`
	// What to do with morph candidates that sampling could not confirm
	MorphPolicy string `koanf:"morph_policy"`
	// Name of the soft-delete marker column
	SoftDeleteColumn string `koanf:"soft_delete_column"`
	// Disable live-data sampling even when the provider supports it
	NoSampling bool `koanf:"no_sampling"`

	Patterns  naming.Patterns             `koanf:"patterns"`
	Overrides map[string][]infer.Override `koanf:"relationships"`

	// Where the CLI writes its report; empty means stdout
	Output string `koanf:"output"`
}

// Load reads the config file (when present), layers RELSPECT_* env vars
// on top and validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"concurrency":        10,
		"sample_limit":       100,
		"morph_policy":       string(infer.MorphAcceptUnsampled),
		"soft_delete_column": "deleted_at",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if path != DefaultConfigPath {
			// An explicitly named file must exist
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("loading env: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if len(c.Patterns.ForeignKeyTemplates) == 0 && c.Patterns.MorphTypeSuffix == "" {
		c.Patterns = naming.DefaultPatterns()
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate everything that does not need a catalog snapshot. Overrides
// are checked for parseable kinds here; table resolution happens when
// the coordinator is built.
func (c Config) Validate() error {
	switch infer.MorphPolicy(c.MorphPolicy) {
	case infer.MorphAcceptUnsampled, infer.MorphRejectUnsampled, "":
	default:
		return fmt.Errorf("unknown morph_policy %q", c.MorphPolicy)
	}

	if err := c.Patterns.Validate(); err != nil {
		return err
	}

	for table, decls := range c.Overrides {
		if table == "" {
			return fmt.Errorf("relationships: empty table name")
		}
		for _, decl := range decls {
			if _, err := infer.ParseKind(decl.Kind); err != nil {
				return fmt.Errorf("relationships.%s: %w", table, err)
			}
		}
	}

	return nil
}

// InferOptions converts the configuration into coordinator options.
func (c Config) InferOptions(sampler catalog.DistinctValueSampler) infer.Options {
	if c.NoSampling {
		sampler = nil
	}

	return infer.Options{
		Patterns:         c.Patterns,
		Overrides:        c.Overrides,
		Sampler:          sampler,
		MorphPolicy:      infer.MorphPolicy(c.MorphPolicy),
		SoftDeleteColumn: c.SoftDeleteColumn,
		SampleLimit:      c.SampleLimit,
		Concurrency:      c.Concurrency,
	}
}
