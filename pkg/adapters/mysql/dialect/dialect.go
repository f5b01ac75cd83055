// Package dialect provides the MySQL SQL dialect definition.
package dialect

import (
	"github.com/dbsee/dbsee/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the MySQL dialect configuration. Text comparison follows the
// column collation, which is case-insensitive by default.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", "``").
	YearExpr("YEAR(%s)").
	Build()
