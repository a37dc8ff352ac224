package config

import (
	"fmt"
	"os"
	"strings"
)

// LoggingConfig sets the logger level and output. Environment variables
// LOG_LEVEL and APP_ENV take precedence.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level"`
	// Console switches to the human readable console writer.
	Console bool `json:"console"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	c.Level = strings.ToLower(c.Level)
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

// Apply exports the settings to the variables read by the logger, leaving
// variables already set untouched.
func (c LoggingConfig) Apply() {
	if os.Getenv("LOG_LEVEL") == "" {
		_ = os.Setenv("LOG_LEVEL", c.Level)
	}
	if c.Console && os.Getenv("APP_ENV") == "" {
		_ = os.Setenv("APP_ENV", "dev")
	}
}
