package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/runlog"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore: CP_ALLOCATION__BUDGET_VALUE=12.
const EnvPrefix = "CP_"

type Config struct {
	Allocation allocation.Config `json:"allocation"`
	Dataset    DatasetConfig     `json:"dataset"`
	Solver     SolverConfig      `json:"solver"`
	Sweep      SweepConfig       `json:"sweep"`
	Metrics    metrics.Config    `json:"metrics"`
	Store      runlog.Config     `json:"store"`
	Export     ExportConfig      `json:"export"`
	Logging    LoggingConfig     `json:"logging"`
	Sentry     SentryConfig      `json:"sentry"`
}

// Load reads the configuration file at path, applies environment overrides,
// defaults and validation. An empty path loads the environment only. The
// allocation section is validated by the allocator once command line
// overrides are applied.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CP_STORE__MAX_SIZE_MB to store.max_size_mb.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every section's defaults.
func (c *Config) SetDefaults() {
	c.Allocation = c.Allocation.WithDefaults()
	c.Solver.SetDefaults()
	c.Sweep.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section except allocation.
func (c Config) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Sweep.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics sink %d: type is required", i)
		}
	}
	return nil
}
