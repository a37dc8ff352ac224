package config

import (
	"fmt"
	"os"
)

// SentryConfig enables error reporting of failed planner runs. An empty DSN
// disables it.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	// Tags are attached to every captured event, e.g. the planning region.
	Tags map[string]string `json:"tags"`
}

// SetDefaults takes the environment from APP_ENV when unset.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate %v outside [0,1]", c.TracesSampleRate)
	}
	return nil
}
