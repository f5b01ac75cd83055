// Package adapter provides the database adapter contract for DBSee.
//
// An adapter owns a connection pool to one database and knows how to read
// that database's metadata catalog. Concrete adapter implementations are in
// pkg/adapters/ subdirectories and register themselves via init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// Querier is the read surface shared by *sql.DB and *sql.Conn. Engine
// components receive the connection checked out for the current request.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Introspector reads table metadata through a Querier.
type Introspector interface {
	// ListTables returns the base tables of the configured schema, sorted.
	ListTables(ctx context.Context, q Querier) ([]string, error)

	// DescribeTable returns columns, primary key, foreign keys and indexes.
	// It fails when the table has no columns.
	DescribeTable(ctx context.Context, q Querier, table string) (*core.TableSchema, error)
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	Introspector

	// Connect opens the connection pool using the provided config.
	Connect(ctx context.Context, cfg core.AdapterConfig) error

	// Close closes the pool and releases resources.
	Close() error

	// Ping verifies the database answers.
	Ping(ctx context.Context) error

	// Conn checks out one connection from the pool. The caller must close it.
	Conn(ctx context.Context) (*sql.Conn, error)

	// Dialect returns the SQL dialect for this adapter.
	Dialect() *dialect.Dialect
}
