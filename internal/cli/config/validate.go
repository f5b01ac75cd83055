package config

import (
	"fmt"

	"github.com/dbsee/dbsee/internal/cli/output"
	sharedcfg "github.com/dbsee/dbsee/internal/config"
)

// Validate checks the settings every command depends on. The target is
// only validated by commands that open it, so demo and version run without
// one.
func (c *Config) Validate() error {
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("invalid search config: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	return nil
}

// ValidateTarget checks the configured database target.
func (c *Config) ValidateTarget() error {
	if c.Target == nil {
		return fmt.Errorf("no target configured: set target.type in dbsee.yaml, DBSEE_TARGET__TYPE or --db-type")
	}
	if err := sharedcfg.ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}
