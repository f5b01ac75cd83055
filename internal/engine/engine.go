// Package engine exposes the schema-driven query and aggregation operations
// over one configured database.
//
// The engine owns the adapter and its pool. Every operation checks out one
// connection, builds a fresh catalog on it and closes the connection before
// returning, so schema changes are picked up on the next call.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/internal/query"
	"github.com/dbsee/dbsee/internal/resolve"
	"github.com/dbsee/dbsee/internal/search"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// Engine runs catalog, query, resolution and search operations.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    core.AdapterConfig
	dbConnected bool
	dbMu        sync.Mutex

	dialect *dialect.Dialect
	search  config.SearchConfig
	logger  *slog.Logger

	builder  *query.Builder
	resolver *resolve.Resolver
	scanner  *search.Scanner
}

// Config holds engine configuration.
type Config struct {
	// Target is the database to serve.
	Target core.TargetConfig
	// Search tunes resolution and name search. Zero values take defaults.
	Search config.SearchConfig
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Adapter overrides the registry lookup for Target.Type (optional).
	Adapter adapter.Adapter
}

// Health reports whether the database answers.
type Health struct {
	Status    string `json:"status"`
	Connected bool   `json:"database_connected"`
	Error     string `json:"error,omitempty"`
}

// New creates an engine. The database is only connected on first use.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	target := cfg.Target
	target.Type = strings.ToLower(target.Type)
	config.ApplyTargetDefaults(&target)
	if cfg.Adapter == nil {
		if err := config.ValidateTarget(&target); err != nil {
			return nil, err
		}
	}

	searchCfg := cfg.Search
	config.ApplySearchDefaults(&searchCfg)
	if err := searchCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}

	// Get dialect from registry based on target type (no DB connection needed)
	var d *dialect.Dialect
	if cfg.Adapter != nil {
		d = cfg.Adapter.Dialect()
	} else if resolved, ok := dialect.Get(target.Type); ok {
		d = resolved
	} else {
		return nil, fmt.Errorf("dialect %q not found for adapter type %q", target.Type, target.Type)
	}

	logger.Debug("initializing engine", "adapter_type", target.Type, "schema", target.Schema)

	resolver := resolve.New(d, searchCfg, logger)
	return &Engine{
		db:          cfg.Adapter,
		dbConfig:    target.AdapterConfig(),
		dbConnected: cfg.Adapter != nil,
		dialect:     d,
		search:      searchCfg,
		logger:      logger,
		builder:     query.NewBuilder(d, searchCfg.MaxPageSize),
		resolver:    resolver,
		scanner:     search.New(d, searchCfg, resolver, logger),
	}, nil
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return core.CatalogUnavailable(fmt.Errorf("failed to connect to database: %w", err))
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("database connected", "dialect", db.Dialect().Name)
	return nil
}

// withConn checks out one connection and runs fn with a catalog bound to it.
func (e *Engine) withConn(ctx context.Context, fn func(cat *catalog.Catalog, q adapter.Querier) error) error {
	if err := e.ensureDBConnected(ctx); err != nil {
		return err
	}
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return core.CatalogUnavailable(fmt.Errorf("failed to check out connection: %w", err))
	}
	defer func() { _ = conn.Close() }()

	return fn(catalog.New(e.db, conn, e.logger), conn)
}

// Close releases the pool.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	e.dbConnected = false
	e.db = nil
	return nil
}

// Dialect returns the SQL dialect of the target.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// SearchConfig returns the effective search settings.
func (e *Engine) SearchConfig() config.SearchConfig {
	return e.search
}

// Health pings the database.
func (e *Engine) Health(ctx context.Context) Health {
	err := e.ensureDBConnected(ctx)
	if err == nil {
		err = e.db.Ping(ctx)
	}
	if err != nil {
		e.logger.Warn("health check failed", slog.String("error", err.Error()))
		return Health{Status: "unhealthy", Connected: false, Error: err.Error()}
	}
	return Health{Status: "healthy", Connected: true}
}
