// Package duckdb provides a DuckDB database adapter for DBSee.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/dbsee/dbsee/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/dbsee/dbsee/pkg/adapter"

	// Import dialect to ensure it's registered
	_ "github.com/dbsee/dbsee/pkg/adapters/duckdb/dialect"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
