package search

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// dateKind tells how a date-like column stores its year.
type dateKind int

const (
	notDate dateKind = iota
	yearColumn
	dateColumn
)

type dateCol struct {
	name string
	kind dateKind
}

// classifier decides which columns a name scan looks at.
type classifier struct {
	cfg config.SearchConfig
}

// nameColumns returns the name-like columns of schema in ordinal order. On
// the primary table the primary name column comes first.
func (c classifier) nameColumns(schema *core.TableSchema) []string {
	var out []string
	primary := schema.Name == c.cfg.PrimaryTable && schema.HasColumn(c.cfg.PrimaryNameColumn)
	if primary {
		out = append(out, c.cfg.PrimaryNameColumn)
	}
	for _, col := range schema.Columns {
		if primary && col.Name == c.cfg.PrimaryNameColumn {
			continue
		}
		lower := strings.ToLower(col.Name)
		for _, term := range c.cfg.NameTerms {
			if strings.Contains(lower, term) {
				out = append(out, col.Name)
				break
			}
		}
	}
	return out
}

func (c classifier) dateKind(column string) dateKind {
	tokens := strings.Split(strings.ToLower(column), "_")
	for _, t := range tokens {
		if contains(c.cfg.YearTokens, t) {
			return yearColumn
		}
	}
	for _, t := range tokens {
		if contains(c.cfg.DateTokens, t) {
			return dateColumn
		}
	}
	return notDate
}

// dateColumns returns the date-like columns of schema in ordinal order.
func (c classifier) dateColumns(schema *core.TableSchema) []dateCol {
	var out []dateCol
	for _, col := range schema.Columns {
		if k := c.dateKind(col.Name); k != notDate {
			out = append(out, dateCol{name: col.Name, kind: k})
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func names(cols []dateCol) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// yearPredicate ORs a year comparison over every date-like column.
func yearPredicate(d *dialect.Dialect, cols []dateCol, year int) sq.Or {
	or := make(sq.Or, 0, len(cols))
	for _, c := range cols {
		quoted := d.QuoteIdentifier(c.name)
		if c.kind == yearColumn {
			or = append(or, sq.Expr(quoted+" = ?", year))
		} else {
			or = append(or, sq.Expr(d.YearOf(quoted)+" = ?", year))
		}
	}
	return or
}

// namePatterns matches an already quoted column exactly, by prefix, by
// substring and by suffix.
func namePatterns(d *dialect.Dialect, quoted, name string) sq.Or {
	return sq.Or{
		d.Like(quoted, dialect.EscapeLike(name)),
		d.Like(quoted, dialect.Prefix(name)),
		d.Like(quoted, dialect.Contains(name)),
		d.Like(quoted, dialect.Suffix(name)),
	}
}
