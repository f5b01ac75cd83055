package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/dbsee/dbsee/pkg/adapter"
	litedialect "github.com/dbsee/dbsee/pkg/adapters/sqlite/dialect"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return litedialect.SQLite
}

// Connect opens the database file at cfg.Path.
//
// An in-memory database exists per connection, so ":memory:" pins the pool
// to a single connection.
func (a *Adapter) Connect(ctx context.Context, cfg core.AdapterConfig) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if path == ":memory:" {
		cfg.Pool.MaxOpen = 1
		cfg.Pool.MaxIdle = 1
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))
	return a.Open(ctx, "sqlite", buildSQLiteDSN(path, cfg.Options), cfg)
}

// buildSQLiteDSN appends options as _pragma query parameters.
func buildSQLiteDSN(path string, options map[string]string) string {
	if len(options) == 0 {
		return path
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Add("_pragma", fmt.Sprintf("%s(%s)", k, options[k]))
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + values.Encode()
}

// ListTables returns user tables, skipping SQLite internals and the
// migration bookkeeping table.
func (a *Adapter) ListTables(ctx context.Context, q adapter.Querier) ([]string, error) {
	query, args, err := a.Dialect().Statements().
		Select("name").
		From("sqlite_master").
		Where("type = ?", "table").
		Where("name NOT LIKE ?", "sqlite_%").
		Where("name <> ?", "goose_db_version").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build table listing: %w", err)
	}
	tables, err := adapter.QueryStrings(ctx, q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// DescribeTable reads columns, keys and indexes through the pragma
// table-valued functions.
func (a *Adapter) DescribeTable(ctx context.Context, q adapter.Querier, table string) (*core.TableSchema, error) {
	columns, pk, err := a.columns(ctx, q, table)
	if err != nil {
		return nil, err
	}

	fks, err := adapter.QueryForeignKeys(ctx, q, foreignKeysQuery, table)
	if err != nil {
		return nil, err
	}
	for i := range fks {
		fks[i].Name = ""
	}

	indexes, err := adapter.QueryIndexes(ctx, q, indexesQuery, table)
	if err != nil {
		return nil, err
	}

	return &core.TableSchema{
		Name:        table,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Indexes:     indexes,
	}, nil
}

// columns reads pragma_table_info. A single INTEGER primary key aliases the
// rowid and is reported as autoincrement.
func (a *Adapter) columns(ctx context.Context, q adapter.Querier, table string) ([]core.Column, []string, error) {
	rows, err := q.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type pkCol struct {
		name string
		seq  int
	}
	var (
		columns []core.Column
		pkCols  []pkCol
	)
	for rows.Next() {
		var (
			col     core.Column
			notNull int
			def     sql.NullString
			pkSeq   int
		)
		if err := rows.Scan(&col.Position, &col.Name, &col.DeclaredType, &notNull, &def, &pkSeq); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position++
		col.Nullable = notNull == 0 && pkSeq == 0
		col.Type = core.ClassifyType(col.DeclaredType)
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		if pkSeq > 0 {
			pkCols = append(pkCols, pkCol{name: col.Name, seq: pkSeq})
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s not found", table)
	}

	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].seq < pkCols[j].seq })
	pk := make([]string, len(pkCols))
	for i, c := range pkCols {
		pk[i] = c.name
	}
	if len(pk) == 1 {
		for i := range columns {
			if columns[i].Name == pk[0] && strings.EqualFold(columns[i].DeclaredType, "INTEGER") {
				columns[i].AutoIncrement = true
			}
		}
	}
	return columns, pk, nil
}

const columnsQuery = `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`

const foreignKeysQuery = `
	SELECT CAST(id AS TEXT), "from", "table", COALESCE("to", '')
	FROM pragma_foreign_key_list(?)
	ORDER BY id, seq`

const indexesQuery = `
	SELECT il.name, ii.name, il."unique"
	FROM pragma_index_list(?) il
	JOIN pragma_index_info(il.name) ii
	WHERE il.origin <> 'pk'
	ORDER BY il.name, ii.seqno`

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
