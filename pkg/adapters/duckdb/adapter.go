package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dbsee/dbsee/pkg/adapter"
	duckdialect "github.com/dbsee/dbsee/pkg/adapters/duckdb/dialect"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
	"github.com/marcboeker/go-duckdb"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
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
	return duckdialect.DuckDB
}

// Connect opens the database file. Use ":memory:" (or an empty path) for an
// in-memory database. Extensions and settings from the target params are
// applied to every pooled connection.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	stmts := params.initStatements()
	connector, err := duckdb.NewConnector(params.dsn(path), func(execer driver.ExecerContext) error {
		for _, stmt := range stmts {
			if _, err := execer.ExecContext(context.Background(), stmt, nil); err != nil {
				return fmt.Errorf("failed to run %q: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path), slog.Int("init_statements", len(stmts)))
	return a.Attach(ctx, "duckdb", sql.OpenDB(connector), cfg)
}

// ListTables returns the base tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context, q adapter.Querier) ([]string, error) {
	return a.ListTablesCommon(ctx, q, a.Dialect(), a.SchemaName(a.Dialect()))
}

// DescribeTable reads columns, keys and indexes for table.
func (a *Adapter) DescribeTable(ctx context.Context, q adapter.Querier, table string) (*core.TableSchema, error) {
	schema, name := adapter.ParseQualifiedName(table, a.SchemaName(a.Dialect()))

	columns, err := a.ColumnsCommon(ctx, q, a.Dialect(), schema, name)
	if err != nil {
		return nil, err
	}

	pk, err := adapter.QueryStrings(ctx, q, primaryKeyQuery, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}

	fks, err := adapter.QueryForeignKeys(ctx, q, foreignKeysQuery, schema, name)
	if err != nil {
		return nil, err
	}

	indexes, err := a.indexes(ctx, q, schema, name)
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

// indexes reads duckdb_indexes(). Index columns are reported as a list
// literal such as "[cig, anno]".
func (a *Adapter) indexes(ctx context.Context, q adapter.Querier, schema, table string) ([]core.Index, error) {
	rows, err := q.QueryContext(ctx, indexesQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []core.Index{}
	for rows.Next() {
		var (
			idx   core.Index
			exprs string
		)
		if err := rows.Scan(&idx.Name, &exprs, &idx.Unique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.Columns = parseExpressionList(exprs)
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return out, nil
}

// parseExpressionList splits "[a, "b c"]" into its bare column names.
func parseExpressionList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		out = append(out, p)
	}
	return out
}

const primaryKeyQuery = `
	SELECT unnest(constraint_column_names)
	FROM duckdb_constraints()
	WHERE constraint_type = 'PRIMARY KEY' AND schema_name = ? AND table_name = ?`

const foreignKeysQuery = `
	SELECT constraint_name, unnest(constraint_column_names), referenced_table, unnest(referenced_column_names)
	FROM duckdb_constraints()
	WHERE constraint_type = 'FOREIGN KEY' AND schema_name = ? AND table_name = ?
	ORDER BY constraint_index`

const indexesQuery = `
	SELECT index_name, CAST(expressions AS VARCHAR), is_unique
	FROM duckdb_indexes()
	WHERE schema_name = ? AND table_name = ?
	ORDER BY index_name`

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
