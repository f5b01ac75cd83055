// Package sqlite provides a SQLite database adapter for DBSee, backed by
// the pure-Go modernc.org/sqlite driver.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/dbsee/dbsee/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/dbsee/dbsee/pkg/adapter"

	// Import dialect to ensure it's registered
	_ "github.com/dbsee/dbsee/pkg/adapters/sqlite/dialect"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
