package core

import "time"

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
	Pool     PoolConfig
}

// PoolConfig bounds the connection pool shared by all requests.
type PoolConfig struct {
	MaxOpen         int           `koanf:"max_open"`
	MaxIdle         int           `koanf:"max_idle"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// TargetConfig holds database target configuration as read from dbsee.yaml.
type TargetConfig struct {
	Type string `koanf:"type"` // postgres, mysql, duckdb, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema to introspect ("public", "main", or the MySQL database)
	Schema string `koanf:"schema"`

	// Additional driver-specific options (sslmode, charset, ...)
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB settings)
	Params map[string]any `koanf:"params"`

	Pool PoolConfig `koanf:"pool"`
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
		Pool:     t.Pool,
	}
}
