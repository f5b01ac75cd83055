// Package main provides the DBSee command-line entrypoint.
package main

import (
	"os"

	"github.com/dbsee/dbsee/internal/cli"

	// Register the database adapters.
	_ "github.com/dbsee/dbsee/pkg/adapters/duckdb"
	_ "github.com/dbsee/dbsee/pkg/adapters/mysql"
	_ "github.com/dbsee/dbsee/pkg/adapters/postgres"
	_ "github.com/dbsee/dbsee/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
