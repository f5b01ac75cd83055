package dialect

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDialects() (*Dialect, *Dialect) {
	pg := NewDialect("pgtest").
		PlaceholderStyle(core.PlaceholderDollar).
		CaseInsensitiveLike("ILIKE").
		Build()
	my := NewDialect("mytest").
		Identifiers("`", "`", "``").
		YearExpr("YEAR(%s)").
		Build()
	return pg, my
}

func TestQuoteIdentifier(t *testing.T) {
	pg, my := testDialects()

	tests := []struct {
		name    string
		dialect *Dialect
		input   string
		want    string
	}{
		{"ansi simple", pg, "orders", `"orders"`},
		{"ansi reserved", pg, "order", `"order"`},
		{"ansi embedded quote", pg, `we"ird`, `"we""ird"`},
		{"backtick simple", my, "orders", "`orders`"},
		{"backtick embedded", my, "we`ird", "`we``ird`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdentifier(tt.input))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Acme", "Acme"},
		{"100%", "100!%"},
		{"a_b", "a!_b"},
		{"wow!", "wow!!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeLike(tt.input))
		})
	}

	assert.Equal(t, "%Acme%", Contains("Acme"))
	assert.Equal(t, "Acme%", Prefix("Acme"))
	assert.Equal(t, "%Acme", Suffix("Acme"))
}

func TestLikeRendersPerDialect(t *testing.T) {
	pg, my := testDialects()

	sqlStr, args, err := pg.Statements().
		Select("*").
		From(`"t"`).
		Where(sq.Or{pg.Like(`"a"`, Contains("x")), pg.Like(`"b"`, Prefix("y"))}).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t" WHERE ("a" ILIKE $1 ESCAPE '!' OR "b" ILIKE $2 ESCAPE '!')`, sqlStr)
	assert.Equal(t, []any{"%x%", "y%"}, args)

	sqlStr, args, err = my.Statements().
		Select("*").
		From("`t`").
		Where(my.Matches("`kind`", "%ATI%")).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `t` WHERE `kind` LIKE ?", sqlStr)
	assert.Equal(t, []any{"%ATI%"}, args)
}

func TestYearOf(t *testing.T) {
	pg, my := testDialects()
	assert.Equal(t, `EXTRACT(YEAR FROM "d")`, pg.YearOf(`"d"`))
	assert.Equal(t, "YEAR(`d`)", my.YearOf("`d`"))
}

func TestRegistry(t *testing.T) {
	d := NewDialect("RegistryTest").Build()
	Register(d)

	got, ok := Get("registrytest")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Contains(t, List(), "registrytest")

	_, ok = Get("missing")
	assert.False(t, ok)
}
