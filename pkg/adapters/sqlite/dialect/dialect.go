// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/dbsee/dbsee/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect configuration. LIKE is already
// case-insensitive for ASCII text.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	YearExpr("CAST(strftime('%%Y', %s) AS INTEGER)").
	Build()
