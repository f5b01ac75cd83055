// Package dialect provides per-database SQL dialect configuration.
//
// A Dialect knows how to quote identifiers, which placeholder style its
// driver expects, how to spell a case-insensitive LIKE and how to extract
// the year from a date column. Concrete dialects are registered from the
// pkg/adapters/*/dialect packages so tools can use them without loading a
// database driver.
package dialect

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/core"
)

// likeEscape is the escape character used in every generated LIKE predicate.
// It is not special in any supported string literal syntax.
const likeEscape = "!"

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	core.DialectConfig
}

// Config returns the static configuration of the dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &d.DialectConfig
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., " -> "")
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifiers quotes every name in order.
func (d *Dialect) QuoteIdentifiers(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.QuoteIdentifier(n)
	}
	return out
}

// PlaceholderFormat returns the squirrel placeholder format for the driver.
func (d *Dialect) PlaceholderFormat() sq.PlaceholderFormat {
	if d.Placeholder == core.PlaceholderDollar {
		return sq.Dollar
	}
	return sq.Question
}

// Statements returns a squirrel statement builder bound to the dialect's
// placeholder format.
func (d *Dialect) Statements() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.PlaceholderFormat())
}

// likeOperator is the operator used for user-facing text matching.
func (d *Dialect) likeOperator() string {
	if d.CaseInsensitiveLike != "" {
		return d.CaseInsensitiveLike
	}
	return "LIKE"
}

// Like matches an already quoted column against a pattern built by
// Contains, Prefix or Suffix. Matching ignores case on every dialect.
func (d *Dialect) Like(quotedColumn, pattern string) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf("%s %s ? ESCAPE '%s'", quotedColumn, d.likeOperator(), likeEscape), pattern)
}

// Matches tests an already quoted column against a raw LIKE pattern taken
// from configuration, so its wildcards are kept.
func (d *Dialect) Matches(quotedColumn, rawPattern string) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf("%s %s ?", quotedColumn, d.likeOperator()), rawPattern)
}

// YearOf returns an integer-valued expression extracting the year from an
// already quoted date column.
func (d *Dialect) YearOf(quotedColumn string) string {
	if d.YearExpr == "" {
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", quotedColumn)
	}
	return fmt.Sprintf(d.YearExpr, quotedColumn)
}

// EscapeLike escapes LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// Contains returns a pattern matching values that contain s.
func Contains(s string) string { return "%" + EscapeLike(s) + "%" }

// Prefix returns a pattern matching values that start with s.
func Prefix(s string) string { return EscapeLike(s) + "%" }

// Suffix returns a pattern matching values that end with s.
func Suffix(s string) string { return "%" + EscapeLike(s) }

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with ANSI quoting and ? placeholders.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			DialectConfig: core.DialectConfig{
				Name: name,
				Identifiers: core.IdentifierConfig{
					Quote:    `"`,
					QuoteEnd: `"`,
					Escape:   `""`,
				},
				Placeholder: core.PlaceholderQuestion,
			},
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// CaseInsensitiveLike sets the operator used for text search.
func (b *Builder) CaseInsensitiveLike(op string) *Builder {
	b.dialect.CaseInsensitiveLike = op
	return b
}

// YearExpr sets the format string used by YearOf.
func (b *Builder) YearExpr(format string) *Builder {
	b.dialect.YearExpr = format
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
