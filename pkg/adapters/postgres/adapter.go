package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/adapter"
	pgdialect "github.com/dbsee/dbsee/pkg/adapters/postgres/dialect"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	return pgdialect.Postgres
}

// Connect establishes a connection pool to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return a.Open(ctx, "pgx", buildPostgresDSN(cfg), cfg)
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.AdapterConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	// Remaining options pass through as libpq keywords.
	var extra []string
	for k, v := range cfg.Options {
		if k != "sslmode" {
			extra = append(extra, fmt.Sprintf("%s=%s", k, v))
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		dsn += " " + strings.Join(extra, " ")
	}

	return dsn
}

// ListTables returns the base tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context, q adapter.Querier) ([]string, error) {
	return a.ListTablesCommon(ctx, q, a.Dialect(), a.SchemaName(a.Dialect()))
}

// DescribeTable reads columns, keys and indexes for table.
func (a *Adapter) DescribeTable(ctx context.Context, q adapter.Querier, table string) (*core.TableSchema, error) {
	d := a.Dialect()
	schema, name := adapter.ParseQualifiedName(table, a.SchemaName(d))

	columns, err := a.ColumnsCommon(ctx, q, d, schema, name)
	if err != nil {
		return nil, err
	}

	identity, err := a.identityColumns(ctx, q, schema, name)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		if identity[columns[i].Name] {
			columns[i].AutoIncrement = true
		}
	}

	pk, err := a.PrimaryKeyCommon(ctx, q, d, schema, name)
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

// identityColumns returns the GENERATED ... AS IDENTITY columns of a table.
func (a *Adapter) identityColumns(ctx context.Context, q adapter.Querier, schema, table string) (map[string]bool, error) {
	query, args, err := a.Dialect().Statements().
		Select("column_name").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table, "is_identity": "YES"}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build identity query: %w", err)
	}
	names, err := adapter.QueryStrings(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity columns: %w", err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

const foreignKeysQuery = `
	SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage ccu
		ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position`

const indexesQuery = `
	SELECT i.relname, a.attname, ix.indisunique
	FROM pg_class t
	JOIN pg_namespace n ON n.oid = t.relnamespace
	JOIN pg_index ix ON ix.indrelid = t.oid
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	WHERE n.nspname = $1 AND t.relname = $2 AND NOT ix.indisprimary
	ORDER BY i.relname, k.ord`

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
