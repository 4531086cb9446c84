package config

import (
	"fmt"

	"github.com/kbukum/shadowkit/logger"
)

// BaseConfig contains the fields every shadowkit binary needs.
type BaseConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" json:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment" json:"environment"`
	Version     string        `yaml:"version" mapstructure:"version" json:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug" json:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging" json:"logging"`
}

// GetBaseConfig returns the base section. Configs that embed BaseConfig
// satisfy bootstrap.Config through it.
func (c *BaseConfig) GetBaseConfig() *BaseConfig { return c }

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
