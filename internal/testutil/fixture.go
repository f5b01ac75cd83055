package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dbsee/dbsee/internal/fixtures"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/adapters/sqlite"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/stretchr/testify/require"
)

// OpenFixtureDB creates a migrated demo database in t.TempDir() and returns
// its pool together with the adapter that introspects it. Both are closed
// when the test ends.
func OpenFixtureDB(t testing.TB) (*sql.DB, adapter.Adapter) {
	t.Helper()
	ctx := context.Background()

	adp := sqlite.New(NewTestLogger(t))
	path := filepath.Join(t.TempDir(), "fixture.db")
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Type: "sqlite", Path: path}))
	t.Cleanup(func() { _ = adp.Close() })

	_, err := fixtures.Migrate(ctx, adp.DB)
	require.NoError(t, err)
	return adp.DB, adp
}

// FixtureConfig returns the target config of a migrated demo database.
func FixtureConfig(t testing.TB) core.TargetConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	require.NoError(t, fixtures.CreateDemo(context.Background(), path, NewTestLogger(t)))
	return core.TargetConfig{Type: "sqlite", Database: path}
}
