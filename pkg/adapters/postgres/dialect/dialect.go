// Package dialect provides the PostgreSQL SQL dialect definition.
// This package has no database driver dependencies, so tools that only
// render SQL can import it without opening connections.
package dialect

import (
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	CaseInsensitiveLike("ILIKE").
	YearExpr("EXTRACT(YEAR FROM %s)").
	Build()
