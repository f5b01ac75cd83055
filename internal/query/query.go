// Package query builds and runs paginated, filtered reads of a single table.
//
// A Plan is built from a catalog-validated TableSchema, so column names only
// reach SQL after they have been matched against the live schema, and always
// through the dialect's identifier quoting. Every caller value is a bound
// parameter.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// Params are the caller-supplied knobs of a table query.
type Params struct {
	Filters  map[string]any
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Builder turns Params into a Plan for one dialect.
type Builder struct {
	dialect     *dialect.Dialect
	maxPageSize int
}

// NewBuilder creates a builder. Page sizes above maxPageSize are clamped;
// a non-positive maxPageSize disables clamping.
func NewBuilder(d *dialect.Dialect, maxPageSize int) *Builder {
	return &Builder{dialect: d, maxPageSize: maxPageSize}
}

// Plan is a validated query ready to run. It renders a count statement and
// a data statement sharing one WHERE predicate.
type Plan struct {
	Table    string
	Columns  []string
	Page     int
	PageSize int
	Info     core.QueryInfo

	where   []sq.Sqlizer
	orderBy string
	stmt    sq.StatementBuilderType
	from    string
	quoted  []string
}

// Build validates p against schema and returns the plan.
func (b *Builder) Build(schema *core.TableSchema, p Params) (*Plan, error) {
	if p.Page < 1 {
		return nil, core.InvalidArgument("page must be >= 1, got %d", p.Page)
	}
	if p.PageSize < 1 {
		return nil, core.InvalidArgument("page_size must be >= 1, got %d", p.PageSize)
	}
	pageSize := p.PageSize
	if b.maxPageSize > 0 && pageSize > b.maxPageSize {
		pageSize = b.maxPageSize
	}

	plan := &Plan{
		Table:    schema.Name,
		Columns:  schema.ColumnNames(),
		Page:     p.Page,
		PageSize: pageSize,
		stmt:     b.dialect.Statements(),
		from:     b.dialect.QuoteIdentifier(schema.Name),
		Info: core.QueryInfo{
			Table:          schema.Name,
			FiltersApplied: map[string]any{},
			OrderDir:       Asc,
		},
	}
	plan.quoted = b.dialect.QuoteIdentifiers(plan.Columns)

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !schema.HasColumn(k) {
			return nil, core.InvalidColumn(schema.Name, k)
		}
		v, ok, err := scalar(p.Filters[k])
		if err != nil {
			return nil, core.InvalidArgument("filter %q: %v", k, err)
		}
		if !ok {
			continue
		}
		plan.where = append(plan.where, sq.Eq{b.dialect.QuoteIdentifier(k): v})
		plan.Info.FiltersApplied[k] = v
	}

	if term := strings.TrimSpace(p.Search); term != "" {
		if cols := schema.TextColumns(); len(cols) > 0 {
			or := make(sq.Or, 0, len(cols))
			pattern := dialect.Contains(term)
			for _, c := range cols {
				or = append(or, b.dialect.Like(b.dialect.QuoteIdentifier(c), pattern))
			}
			plan.where = append(plan.where, or)
			plan.Info.SearchApplied = term
		}
	}

	if p.OrderBy != "" {
		if !schema.HasColumn(p.OrderBy) {
			return nil, core.InvalidColumn(schema.Name, p.OrderBy)
		}
		dir := Asc
		if strings.EqualFold(p.OrderDir, "desc") {
			dir = Desc
		}
		plan.orderBy = b.dialect.QuoteIdentifier(p.OrderBy) + " " + dir
		plan.Info.OrderBy = p.OrderBy
		plan.Info.OrderDir = dir
	}

	return plan, nil
}

// Offset is the number of rows skipped before the page.
func (p *Plan) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p *Plan) filtered(b sq.SelectBuilder) sq.SelectBuilder {
	for _, w := range p.where {
		b = b.Where(w)
	}
	return b
}

// CountSQL renders the COUNT(*) statement.
func (p *Plan) CountSQL() (string, []any, error) {
	return p.filtered(p.stmt.Select("COUNT(*)").From(p.from)).ToSql()
}

// DataSQL renders the page statement.
func (p *Plan) DataSQL() (string, []any, error) {
	b := p.filtered(p.stmt.Select(p.quoted...).From(p.from))
	if p.orderBy != "" {
		b = b.OrderBy(p.orderBy)
	}
	return b.Limit(uint64(p.PageSize)).Offset(uint64(p.Offset())).ToSql()
}

// Run executes the count and then the data statement on q.
func Run(ctx context.Context, q adapter.Querier, plan *Plan) (*core.PageResult, error) {
	countSQL, countArgs, err := plan.CountSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build count statement: %w", err)
	}
	var total int64
	if err := q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, core.QueryFailed(plan.Table, err)
	}

	dataSQL, dataArgs, err := plan.DataSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build data statement: %w", err)
	}
	rows, err := q.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, core.QueryFailed(plan.Table, err)
	}
	defer func() { _ = rows.Close() }()

	data, err := adapter.ScanInto(rows, plan.Columns)
	if err != nil {
		return nil, core.QueryFailed(plan.Table, err)
	}

	return &core.PageResult{
		Columns:    plan.Columns,
		Rows:       data,
		Pagination: core.NewPagination(plan.Page, plan.PageSize, total),
		QueryInfo:  plan.Info,
	}, nil
}

// scalar accepts the values a filter may compare against. ok is false for
// nil, which means the filter is ignored.
func scalar(v any) (value any, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return nil, false, nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, true, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, false, fmt.Errorf("invalid number %q", x.String())
		}
		return f, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported value of type %T", v)
	}
}
