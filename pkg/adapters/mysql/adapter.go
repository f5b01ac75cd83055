package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/adapter"
	mydialect "github.com/dbsee/dbsee/pkg/adapters/mysql/dialect"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
	driver "github.com/go-sql-driver/mysql"
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQL dialect for this adapter.
func (a *Adapter) Dialect() *dialect.Dialect {
	return mydialect.MySQL
}

// Connect establishes a connection pool to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return a.Open(ctx, "mysql", buildMySQLDSN(cfg), cfg)
}

// buildMySQLDSN constructs a go-sql-driver DSN. Dates are parsed into
// time.Time so they render like the other drivers.
func buildMySQLDSN(cfg core.AdapterConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	c := driver.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.ParseTime = true
	if len(cfg.Options) > 0 {
		c.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			c.Params[k] = v
		}
	}
	return c.FormatDSN()
}

// schemaName is the configured schema, else the connection database.
func (a *Adapter) schemaName() string {
	if a.Cfg.Schema != "" {
		return a.Cfg.Schema
	}
	return a.Cfg.Database
}

// ListTables returns the base tables of the configured database.
func (a *Adapter) ListTables(ctx context.Context, q adapter.Querier) ([]string, error) {
	return a.ListTablesCommon(ctx, q, a.Dialect(), a.schemaName())
}

// DescribeTable reads columns, keys and indexes for table.
func (a *Adapter) DescribeTable(ctx context.Context, q adapter.Querier, table string) (*core.TableSchema, error) {
	schema, name := adapter.ParseQualifiedName(table, a.schemaName())

	columns, err := a.columns(ctx, q, schema, name)
	if err != nil {
		return nil, err
	}

	pk, err := a.PrimaryKeyCommon(ctx, q, a.Dialect(), schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}

	fks, err := adapter.QueryForeignKeys(ctx, q, foreignKeysQuery, schema, name)
	if err != nil {
		return nil, err
	}

	indexes, err := adapter.QueryIndexes(ctx, q, indexesQuery, schema, name)
	if err != nil {
		return nil, err
	}

	return &core.TableSchema{
		Name:        name,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Indexes:     indexes,
	}, nil
}

// columns reads information_schema.columns. MySQL reports auto_increment in
// the EXTRA column rather than the default.
func (a *Adapter) columns(ctx context.Context, q adapter.Querier, schema, table string) ([]core.Column, error) {
	columns, err := a.ColumnsCommon(ctx, q, a.Dialect(), schema, table)
	if err != nil {
		return nil, err
	}

	query, args, err := a.Dialect().Statements().
		Select("column_name").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table}).
		Where(sq.Like{"extra": "%auto_increment%"}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build auto_increment query: %w", err)
	}
	auto, err := adapter.QueryStrings(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read auto_increment columns: %w", err)
	}
	for _, name := range auto {
		for i := range columns {
			if strings.EqualFold(columns[i].Name, name) {
				columns[i].AutoIncrement = true
			}
		}
	}
	return columns, nil
}

const foreignKeysQuery = `
	SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = ? AND table_name = ? AND referenced_table_name IS NOT NULL
	ORDER BY constraint_name, ordinal_position`

const indexesQuery = `
	SELECT index_name, column_name, non_unique = 0
	FROM information_schema.statistics
	WHERE table_schema = ? AND table_name = ? AND index_name <> 'PRIMARY'
	ORDER BY index_name, seq_in_index`

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
