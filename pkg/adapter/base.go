package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// Pool defaults used when the target leaves them unset.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 1
	DefaultConnMaxLifetime = time.Hour
)

// ErrNotConnected is returned by pool operations before Connect succeeds.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// pool handling and information_schema introspection.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Open opens a pool for driverName, applies the pool limits and pings it.
func (b *BaseSQLAdapter) Open(ctx context.Context, driverName, dsn string, cfg core.AdapterConfig) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	return b.Attach(ctx, driverName, db, cfg)
}

// Attach adopts an already opened pool. The pool is closed if it does not
// answer a ping.
func (b *BaseSQLAdapter) Attach(ctx context.Context, name string, db *sql.DB, cfg core.AdapterConfig) error {
	ConfigurePool(db, cfg.Pool)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", name, err)
	}

	b.DB = db
	b.Cfg = cfg
	return nil
}

// ConfigurePool applies pool limits, falling back to the package defaults.
func ConfigurePool(db *sql.DB, pool core.PoolConfig) {
	maxOpen := pool.MaxOpen
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	maxIdle := pool.MaxIdle
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}
	lifetime := pool.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = DefaultConnMaxLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Ping verifies the database answers.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	return b.DB.PingContext(ctx)
}

// Conn checks out one connection from the pool.
func (b *BaseSQLAdapter) Conn(ctx context.Context) (*sql.Conn, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// SchemaName returns the configured schema, or the dialect default.
func (b *BaseSQLAdapter) SchemaName(d *dialect.Dialect) string {
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema
	}
	return d.DefaultSchema
}

// ListTablesCommon lists base tables from information_schema.tables.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, q Querier, d *dialect.Dialect, schema string) ([]string, error) {
	query, args, err := d.Statements().
		Select("table_name").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": schema, "table_type": "BASE TABLE"}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build table listing: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// ColumnsCommon reads column metadata from information_schema.columns.
// AutoIncrement is set for defaults that draw from a sequence.
func (b *BaseSQLAdapter) ColumnsCommon(ctx context.Context, q Querier, d *dialect.Dialect, schema, table string) ([]core.Column, error) {
	query, args, err := d.Statements().
		Select("column_name", "data_type", "is_nullable", "column_default", "ordinal_position").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table}).
		OrderBy("ordinal_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build column query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			col      core.Column
			nullable string
			def      sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DeclaredType, &nullable, &def, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.Type = core.ClassifyType(col.DeclaredType)
		if def.Valid {
			v := def.String
			col.Default = &v
			col.AutoIncrement = strings.HasPrefix(strings.ToLower(v), "nextval(")
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// PrimaryKeyCommon reads the primary key columns in key order.
func (b *BaseSQLAdapter) PrimaryKeyCommon(ctx context.Context, q Querier, d *dialect.Dialect, schema, table string) ([]string, error) {
	query, args, err := d.Statements().
		Select("kcu.column_name").
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name" +
			" AND tc.table_schema = kcu.table_schema AND tc.table_name = kcu.table_name").
		Where(sq.Eq{"tc.constraint_type": "PRIMARY KEY", "tc.table_schema": schema, "tc.table_name": table}).
		OrderBy("kcu.ordinal_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build primary key query: %w", err)
	}
	return QueryStrings(ctx, q, query, args...)
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the fallback schema if not specified.
func ParseQualifiedName(table, fallback string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return fallback, table
}

// QueryStrings runs a one-column query and collects the values.
func QueryStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
