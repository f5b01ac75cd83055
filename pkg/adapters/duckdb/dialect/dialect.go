// Package dialect provides the DuckDB SQL dialect definition.
// This package has no database driver dependencies.
package dialect

import (
	"github.com/dbsee/dbsee/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	CaseInsensitiveLike("ILIKE").
	YearExpr("EXTRACT(YEAR FROM %s)").
	Build()
