package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/internal/query"
	"github.com/dbsee/dbsee/internal/testutil"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dbsee/dbsee/pkg/adapters/sqlite" // register sqlite
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{
		Target: testutil.FixtureConfig(t),
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing target type",
			cfg:     Config{},
			wantErr: "target type is required",
		},
		{
			name:    "unknown adapter",
			cfg:     Config{Target: core.TargetConfig{Type: "oracle"}},
			wantErr: "unknown adapter type",
		},
		{
			name: "bad search config",
			cfg: Config{
				Target: core.TargetConfig{Type: "sqlite"},
				Search: config.SearchConfig{MinYear: 2000, MaxYear: 1990},
			},
			wantErr: "invalid search config",
		},
		{
			name: "type is case-insensitive",
			cfg:  Config{Target: core.TargetConfig{Type: "SQLite", Database: ":memory:"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "sqlite", e.Dialect().Name)
			assert.Equal(t, config.DefaultPageSize, e.SearchConfig().DefaultPageSize)
			assert.False(t, e.dbConnected, "connection is lazy")
			require.NoError(t, e.Close())
		})
	}
}

func TestEngine_Catalog(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	tables, err := e.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"aggiudicatari_data", "centri_di_costo_data", "cig_data", "orders",
		"partecipanti_data", "stazioni_appaltanti_data",
	}, tables)

	schema, err := e.DescribeTable(ctx, "cig_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, schema.PrimaryKey)
	require.Len(t, schema.ForeignKeys, 1)
	assert.Equal(t, "stazioni_appaltanti_data", schema.ForeignKeys[0].ReferencedTable)

	_, err = e.DescribeTable(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)

	cig, err := e.FindIdentifierTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aggiudicatari_data", "cig_data", "partecipanti_data"}, cig)
}

func TestEngine_QueryTable(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	p := e.DefaultParams()
	p.Search = "acme"
	res, err := e.QueryTable(ctx, "orders", p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.TotalItems)
	assert.Equal(t, 20, res.Pagination.PageSize)

	_, err = e.QueryTable(ctx, "orders", query.Params{Page: 1, PageSize: 10, Filters: map[string]any{"bogus": 1}})
	assert.ErrorIs(t, err, core.ErrInvalidColumn)

	_, err = e.QueryTable(ctx, "missing", e.DefaultParams())
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = e.QueryTable(ctx, "orders", query.Params{Page: 1, PageSize: 0})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestEngine_TotalIndependentOfPaging(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	var totals []int64
	for _, size := range []int{1, 3, 8, 100} {
		for page := 1; page <= 3; page++ {
			res, err := e.QueryTable(ctx, "aggiudicatari_data", query.Params{Page: page, PageSize: size})
			require.NoError(t, err)
			totals = append(totals, res.Pagination.TotalItems)
		}
	}
	for _, total := range totals {
		assert.Equal(t, int64(8), total)
	}
}

func TestEngine_Resolution(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	res, err := e.ResolveIdentifier(ctx, "Z1A0000001")
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = e.ResolveIdentifier(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, 3, res.TablesSearched)

	_, err = e.ResolveIdentifier(ctx, " ")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestEngine_Search(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	year := 2022

	scan, err := e.ScanByName(ctx, "Acme", &year)
	require.NoError(t, err)
	assert.Equal(t, 2, scan.TotalMatches)

	var events []core.ScanEvent
	err = e.ScanByNameStream(ctx, "Acme", &year, func(ev core.ScanEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.EventFinalSummary, events[len(events)-1].Type)

	direct, err := e.ResolveDirect(ctx, "Alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z1A0000001"}, direct.Identifiers)

	events = nil
	err = e.ResolveDirectStream(ctx, "Alpha", nil, func(ev core.ScanEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.EventSearchStarted, events[0].Type)

	assert.ErrorIs(t, e.ScanByNameStream(ctx, "A", nil, nil), core.ErrInvalidArgument)
	assert.ErrorIs(t, e.ResolveDirectStream(ctx, "Acme", &[]int{1800}[0], nil), core.ErrInvalidArgument)
}

func TestEngine_SchemaChangesVisibleNextCall(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.ListTables(ctx)
	require.NoError(t, err)

	conn, err := e.db.Conn(ctx)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "CREATE TABLE fornitori (id INTEGER PRIMARY KEY, cig TEXT, ditta TEXT)")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	tables, err := e.FindIdentifierTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "fornitori")
}

func TestEngine_Health(t *testing.T) {
	ctx := context.Background()

	h := newTestEngine(t).Health(ctx)
	assert.Equal(t, Health{Status: "healthy", Connected: true}, h)

	bad, err := New(Config{Target: core.TargetConfig{
		Type:     "sqlite",
		Database: filepath.Join(t.TempDir(), "missing", "nested", "db.sqlite"),
	}})
	require.NoError(t, err)
	h = bad.Health(ctx)
	assert.False(t, h.Connected)
	assert.Equal(t, "unhealthy", h.Status)
	assert.NotEmpty(t, h.Error)
}
