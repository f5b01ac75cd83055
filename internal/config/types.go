// Package config provides shared configuration types for DBSee.
// This package is decoupled from CLI concerns: the engine, the HTTP server
// and the CLI all receive these structs from their constructors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// GroupRule decides when rows of the primary table that share an
// identifier form a group (a temporary association of companies).
type GroupRule struct {
	// MarkerColumn holds the subject type. Empty means any identifier with
	// more than one row is a group.
	MarkerColumn string `koanf:"marker_column"`

	// MarkerPatterns are LIKE patterns matched against MarkerColumn.
	MarkerPatterns []string `koanf:"marker_patterns"`

	// AggregateFields are joined across the group's rows.
	AggregateFields []string `koanf:"aggregate_fields"`
}

// SearchConfig tunes identifier resolution and name search.
type SearchConfig struct {
	IdentifierColumn  string   `koanf:"identifier_column"`
	PrimaryTable      string   `koanf:"primary_table"`
	PrimaryNameColumn string   `koanf:"primary_name_column"`
	PriorityTables    []string `koanf:"priority_tables"`

	// Column classification for the name scan.
	NameTerms  []string `koanf:"name_terms"`
	YearTokens []string `koanf:"year_tokens"`
	DateTokens []string `koanf:"date_tokens"`

	PrimaryRowCap  int `koanf:"primary_row_cap"`
	PriorityRowCap int `koanf:"priority_row_cap"`
	OtherRowCap    int `koanf:"other_row_cap"`

	DirectColumns       []string `koanf:"direct_columns"`
	DirectMatchCap      int      `koanf:"direct_match_cap"`
	DirectIdentifierCap int      `koanf:"direct_identifier_cap"`

	MinYear       int `koanf:"min_year"`
	MaxYear       int `koanf:"max_year"`
	MinNameLength int `koanf:"min_name_length"`

	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	Group GroupRule `koanf:"group"`
}

// IsPriority reports whether table is listed in PriorityTables.
func (s *SearchConfig) IsPriority(table string) bool {
	for _, t := range s.PriorityTables {
		if t == table {
			return true
		}
	}
	return false
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// AuthConfig holds API credentials.
type AuthConfig struct {
	// Tokens maps an API token to the username it authenticates.
	Tokens map[string]string `koanf:"tokens"`

	// SessionSecret signs the session cookie. Sessions are disabled when empty.
	SessionSecret string `koanf:"session_secret"`

	// SessionMaxAge is the cookie lifetime.
	SessionMaxAge time.Duration `koanf:"session_max_age"`
}

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "main" as fallback.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// ValidateTarget checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	return nil
}
