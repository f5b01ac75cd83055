package engine

import (
	"context"

	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/internal/query"
	"github.com/dbsee/dbsee/internal/search"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
)

// ListTables returns every table name in alphabetical order.
func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := e.withConn(ctx, func(cat *catalog.Catalog, _ adapter.Querier) error {
		var err error
		tables, err = cat.ListTables(ctx)
		return err
	})
	return tables, err
}

// DescribeTable returns the columns, keys and indexes of table.
func (e *Engine) DescribeTable(ctx context.Context, table string) (*core.TableSchema, error) {
	var schema *core.TableSchema
	err := e.withConn(ctx, func(cat *catalog.Catalog, _ adapter.Querier) error {
		var err error
		schema, err = cat.DescribeTable(ctx, table)
		return err
	})
	return schema, err
}

// DefaultParams returns the first page at the configured default size.
func (e *Engine) DefaultParams() query.Params {
	return query.Params{Page: 1, PageSize: e.search.DefaultPageSize, OrderDir: "asc"}
}

// QueryTable returns one filtered, searched and sorted page of table.
func (e *Engine) QueryTable(ctx context.Context, table string, p query.Params) (*core.PageResult, error) {
	var res *core.PageResult
	err := e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		schema, err := cat.DescribeTable(ctx, table)
		if err != nil {
			return err
		}
		plan, err := e.builder.Build(schema, p)
		if err != nil {
			return err
		}
		res, err = query.Run(ctx, q, plan)
		return err
	})
	return res, err
}

// FindIdentifierTables returns the tables exposing the identifier column.
func (e *Engine) FindIdentifierTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := e.withConn(ctx, func(cat *catalog.Catalog, _ adapter.Querier) error {
		var err error
		tables, err = e.resolver.Tables(ctx, cat)
		return err
	})
	if tables == nil && err == nil {
		tables = []string{}
	}
	return tables, err
}

// ResolveIdentifier merges every row carrying value across tables.
func (e *Engine) ResolveIdentifier(ctx context.Context, value string) (*core.Resolution, error) {
	var res *core.Resolution
	err := e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		var err error
		res, err = e.resolver.Resolve(ctx, cat, q, value)
		return err
	})
	return res, err
}

// ValidateName checks name search input without touching the database.
func (e *Engine) ValidateName(name string, year *int) error {
	return e.scanner.Validate(name, year)
}

// ScanByName searches every table for name.
func (e *Engine) ScanByName(ctx context.Context, name string, year *int) (*core.ScanResult, error) {
	var res *core.ScanResult
	err := e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		var err error
		res, err = e.scanner.Scan(ctx, cat, q, name, year)
		return err
	})
	return res, err
}

// ScanByNameStream searches every table for name, emitting events as
// tables complete.
func (e *Engine) ScanByNameStream(ctx context.Context, name string, year *int, emit search.EmitFunc) error {
	if err := e.scanner.Validate(name, year); err != nil {
		return err
	}
	return e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		return e.scanner.ScanStream(ctx, cat, q, name, year, emit)
	})
}

// ResolveDirect looks name up in the primary table and resolves every
// identifier found.
func (e *Engine) ResolveDirect(ctx context.Context, name string, year *int) (*core.DirectResult, error) {
	var res *core.DirectResult
	err := e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		var err error
		res, err = e.scanner.Direct(ctx, cat, q, name, year)
		return err
	})
	return res, err
}

// ResolveDirectStream is ResolveDirect emitting events as it goes.
func (e *Engine) ResolveDirectStream(ctx context.Context, name string, year *int, emit search.EmitFunc) error {
	if err := e.scanner.Validate(name, year); err != nil {
		return err
	}
	return e.withConn(ctx, func(cat *catalog.Catalog, q adapter.Querier) error {
		return e.scanner.DirectStream(ctx, cat, q, name, year, emit)
	})
}
