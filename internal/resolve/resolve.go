// Package resolve merges the rows that share one identifier across every
// table exposing the identifier column.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// AggregateSeparator joins the distinct values of a group's aggregate fields.
const AggregateSeparator = " + "

// Resolver builds merged records for identifier values.
type Resolver struct {
	dialect *dialect.Dialect
	cfg     config.SearchConfig
	logger  *slog.Logger
}

// New creates a resolver. If logger is nil, a discard logger is used.
func New(d *dialect.Dialect, cfg config.SearchConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{dialect: d, cfg: cfg, logger: logger}
}

// Tables returns the tables exposing the identifier column, alphabetically.
func (r *Resolver) Tables(ctx context.Context, cat *catalog.Catalog) ([]string, error) {
	return cat.FindTablesWithColumn(ctx, r.cfg.IdentifierColumn, true)
}

// merge accumulates one resolution.
type merge struct {
	record  core.MergedRecord
	sources core.FieldSource
	tables  []string
}

func (m *merge) set(key, table string, v any) {
	if _, ok := m.record[key]; ok {
		return
	}
	m.record[key] = v
	m.sources[key] = table
}

// Resolve looks value up in every candidate table and merges what it finds.
// Tables whose queries fail are logged and skipped. A value no table
// contributes to yields a Resolution with Found set to false.
func (r *Resolver) Resolve(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, value string) (*core.Resolution, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, core.InvalidArgument("%s value is required", r.cfg.IdentifierColumn)
	}

	tables, err := r.Tables(ctx, cat)
	if err != nil {
		return nil, err
	}

	m := &merge{
		record:  core.MergedRecord{r.cfg.IdentifierColumn: value},
		sources: core.FieldSource{},
	}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		contributed, err := r.resolveTable(ctx, cat, q, table, value, m)
		if err != nil {
			r.logger.Warn("skipping table during identifier resolution",
				slog.String("table", table),
				slog.String("error", err.Error()))
			continue
		}
		if contributed {
			m.tables = append(m.tables, table)
		}
	}

	res := &core.Resolution{
		Identifier:     value,
		TablesSearched: len(tables),
	}
	if len(m.tables) == 0 {
		return res, nil
	}
	res.Found = true
	res.Record = m.record
	res.SourceTables = m.tables
	res.FieldSources = m.sources
	res.TotalFields = len(m.record)
	return res, nil
}

func (r *Resolver) resolveTable(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, table, value string, m *merge) (bool, error) {
	schema, err := cat.DescribeTable(ctx, table)
	if err != nil {
		return false, err
	}
	idCol, ok := cat.ResolveColumn(schema, r.cfg.IdentifierColumn)
	if !ok {
		return false, nil
	}

	if table == r.cfg.PrimaryTable {
		grouped, err := r.isGroup(ctx, cat, q, schema, idCol, value)
		if err != nil {
			return false, err
		}
		if grouped {
			return r.mergeGroup(ctx, q, schema, idCol, value, m)
		}
	}
	return r.mergeFirst(ctx, q, schema, idCol, value, m)
}

// selectRows queries every column of schema for rows carrying value.
func (r *Resolver) selectRows(schema *core.TableSchema, idCol, value string) sq.SelectBuilder {
	return r.dialect.Statements().
		Select(r.dialect.QuoteIdentifiers(schema.ColumnNames())...).
		From(r.dialect.QuoteIdentifier(schema.Name)).
		Where(sq.Eq{r.dialect.QuoteIdentifier(idCol): value})
}

func (r *Resolver) fetch(ctx context.Context, q adapter.Querier, schema *core.TableSchema, b sq.SelectBuilder) ([]core.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.QueryFailed(schema.Name, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := adapter.ScanInto(rows, schema.ColumnNames())
	if err != nil {
		return nil, core.QueryFailed(schema.Name, err)
	}
	return out, nil
}

// mergeFirst merges the first row carrying value.
func (r *Resolver) mergeFirst(ctx context.Context, q adapter.Querier, schema *core.TableSchema, idCol, value string, m *merge) (bool, error) {
	rows, err := r.fetch(ctx, q, schema, r.selectRows(schema, idCol, value).Limit(1))
	if err != nil || len(rows) == 0 {
		return false, err
	}
	for _, col := range schema.ColumnNames() {
		if col == idCol {
			continue
		}
		m.set(r.key(schema.Name, col), schema.Name, Convert(rows[0][col]))
	}
	return true, nil
}

// isGroup reports whether the rows carrying value form a group: at least
// two rows, at least one of them marked.
func (r *Resolver) isGroup(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, schema *core.TableSchema, idCol, value string) (bool, error) {
	rule := r.cfg.Group
	b := r.dialect.Statements().
		Select("COUNT(*)").
		From(r.dialect.QuoteIdentifier(schema.Name)).
		Where(sq.Eq{r.dialect.QuoteIdentifier(idCol): value})

	if rule.MarkerColumn == "" {
		b = b.Column("COUNT(*)")
	} else {
		marker, ok := cat.ResolveColumn(schema, rule.MarkerColumn)
		if !ok || len(rule.MarkerPatterns) == 0 {
			return false, nil
		}
		quoted := r.dialect.QuoteIdentifier(marker)
		or := make(sq.Or, 0, len(rule.MarkerPatterns))
		for _, p := range rule.MarkerPatterns {
			or = append(or, r.dialect.Matches(quoted, p))
		}
		cond, args, err := or.ToSql()
		if err != nil {
			return false, fmt.Errorf("failed to build group marker predicate: %w", err)
		}
		b = b.Column(sq.Expr("COALESCE(SUM(CASE WHEN "+cond+" THEN 1 ELSE 0 END), 0)", args...))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build group probe: %w", err)
	}
	var total, marked int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total, &marked); err != nil {
		return false, core.QueryFailed(schema.Name, err)
	}
	r.logger.Debug("group probe",
		slog.String("table", schema.Name),
		slog.Int64("rows", total),
		slog.Int64("marked", marked))
	return total >= 2 && marked >= 1, nil
}

// mergeGroup collapses every row carrying value into one contribution.
// Aggregate fields become their distinct sorted values joined by
// AggregateSeparator; every other column takes its first non-null value.
func (r *Resolver) mergeGroup(ctx context.Context, q adapter.Querier, schema *core.TableSchema, idCol, value string, m *merge) (bool, error) {
	b := r.selectRows(schema, idCol, value)
	if len(schema.PrimaryKey) > 0 {
		b = b.OrderBy(r.dialect.QuoteIdentifiers(schema.PrimaryKey)...)
	}
	rows, err := r.fetch(ctx, q, schema, b)
	if err != nil || len(rows) == 0 {
		return false, err
	}

	aggregate := make(map[string]bool, len(r.cfg.Group.AggregateFields))
	for _, f := range r.cfg.Group.AggregateFields {
		aggregate[strings.ToLower(f)] = true
	}

	columns := schema.ColumnNames()
	distinct := make(map[string]map[string]bool)
	for _, row := range rows {
		for _, col := range columns {
			if col == idCol {
				continue
			}
			v := Convert(row[col])
			if aggregate[strings.ToLower(col)] {
				if s, ok := v.(string); ok && s != "" && s != "null" {
					if distinct[col] == nil {
						distinct[col] = make(map[string]bool)
					}
					distinct[col][s] = true
				}
				continue
			}
			if v != nil {
				m.set(r.key(schema.Name, col), schema.Name, v)
			}
		}
	}

	for _, col := range columns {
		set := distinct[col]
		if len(set) == 0 {
			continue
		}
		values := make([]string, 0, len(set))
		for s := range set {
			values = append(values, s)
		}
		sort.Strings(values)
		key := r.key(schema.Name, col)
		m.record[key] = strings.Join(values, AggregateSeparator)
		m.sources[key] = schema.Name
	}
	return true, nil
}

func (r *Resolver) key(table, column string) string {
	return table + "_" + column
}

// Convert renders a scanned value for a merged record: nil and empty
// strings are nil, dates are ISO-8601, everything else is its string form.
func Convert(v any) any {
	s := adapter.StringValue(adapter.NormalizeValue(v))
	if s == "" {
		return nil
	}
	return s
}
