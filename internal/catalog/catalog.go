// Package catalog exposes live schema introspection for one request.
//
// A Catalog is bound to the connection checked out for the request and
// memoizes what it has read. It is discarded with the connection, so every
// request sees the schema as it is now.
package catalog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"golang.org/x/text/cases"
)

// Catalog lists and describes tables through an adapter.Introspector.
// It is not safe for concurrent use.
type Catalog struct {
	intro  adapter.Introspector
	q      adapter.Querier
	logger *slog.Logger
	fold   cases.Caser

	tables  []string
	known   map[string]bool
	schemas map[string]*core.TableSchema
}

// New creates a catalog reading through q.
// If logger is nil, a discard logger is used.
func New(intro adapter.Introspector, q adapter.Querier, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		intro:   intro,
		q:       q,
		logger:  logger,
		fold:    cases.Fold(),
		schemas: make(map[string]*core.TableSchema),
	}
}

// ListTables returns every table name in alphabetical order.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	if c.known == nil {
		tables, err := c.intro.ListTables(ctx, c.q)
		if err != nil {
			return nil, core.CatalogUnavailable(err)
		}
		sort.Strings(tables)
		c.tables = tables
		c.known = make(map[string]bool, len(tables))
		for _, t := range tables {
			c.known[t] = true
		}
	}
	out := make([]string, len(c.tables))
	copy(out, c.tables)
	return out, nil
}

// HasTable reports whether name is a listed table.
func (c *Catalog) HasTable(ctx context.Context, name string) (bool, error) {
	if _, err := c.ListTables(ctx); err != nil {
		return false, err
	}
	return c.known[name], nil
}

// DescribeTable returns the schema of a listed table. Names outside the
// listing fail with a NotFound error before any introspection query runs.
func (c *Catalog) DescribeTable(ctx context.Context, name string) (*core.TableSchema, error) {
	ok, err := c.HasTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NotFound(name)
	}
	if s, ok := c.schemas[name]; ok {
		return s, nil
	}

	s, err := c.intro.DescribeTable(ctx, c.q, name)
	if err != nil {
		return nil, core.CatalogUnavailable(err)
	}
	for i := range s.Columns {
		if s.Columns[i].Type == "" {
			s.Columns[i].Type = core.ClassifyType(s.Columns[i].DeclaredType)
		}
	}
	c.schemas[name] = s
	return s, nil
}

// FindTablesWithColumn returns the tables having a column named column, in
// alphabetical order. With caseInsensitive the names are compared after
// Unicode case folding. Tables that fail to describe are logged and skipped.
func (c *Catalog) FindTablesWithColumn(ctx context.Context, column string, caseInsensitive bool) ([]string, error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	want := column
	if caseInsensitive {
		want = c.fold.String(column)
	}

	var found []string
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := c.DescribeTable(ctx, t)
		if err != nil {
			c.logger.Warn("skipping table during column lookup",
				slog.String("table", t), slog.String("error", err.Error()))
			continue
		}
		if name, ok := c.matchColumn(s, want, caseInsensitive); ok {
			c.logger.Debug("column found", slog.String("table", t), slog.String("column", name))
			found = append(found, t)
		}
	}
	return found, nil
}

// ResolveColumn returns the actual spelling of column in table, matching
// case-insensitively.
func (c *Catalog) ResolveColumn(s *core.TableSchema, column string) (string, bool) {
	return c.matchColumn(s, c.fold.String(column), true)
}

func (c *Catalog) matchColumn(s *core.TableSchema, want string, caseInsensitive bool) (string, bool) {
	for _, col := range s.Columns {
		name := col.Name
		if caseInsensitive {
			name = c.fold.String(name)
		}
		if name == want {
			return col.Name, true
		}
	}
	return "", false
}
