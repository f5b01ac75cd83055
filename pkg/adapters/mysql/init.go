// Package mysql provides a MySQL database adapter for DBSee.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/dbsee/dbsee/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/dbsee/dbsee/pkg/adapter"

	// Import dialect to ensure it's registered
	_ "github.com/dbsee/dbsee/pkg/adapters/mysql/dialect"
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
