// Package config loads the CLI configuration.
//
// The shared types (TargetConfig, SearchConfig, ServerConfig, AuthConfig)
// live in internal/config and are embedded here with the CLI-only settings.
package config

import (
	sharedcfg "github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Target *TargetConfig          `koanf:"target"`
	Search sharedcfg.SearchConfig `koanf:"search"`
	Server sharedcfg.ServerConfig `koanf:"server"`
	Auth   sharedcfg.AuthConfig   `koanf:"auth"`

	LogLevel     string `koanf:"log_level"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel = "info"
	EnvPrefix       = "DBSEE_"
)

// ConfigFileNames are looked up in the working directory, in order.
var ConfigFileNames = []string{"dbsee.yaml", "dbsee.yml"}
