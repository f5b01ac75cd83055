package search

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/internal/resolve"
	"github.com/dbsee/dbsee/internal/testutil"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	t   *testing.T
	ctx context.Context
	db  *sql.DB
	adp adapter.Adapter
	cfg config.SearchConfig
}

func newEnv(t *testing.T) *env {
	db, adp := testutil.OpenFixtureDB(t)
	return &env{t: t, ctx: context.Background(), db: db, adp: adp, cfg: config.DefaultSearchConfig()}
}

func (e *env) catalog() *catalog.Catalog {
	return catalog.New(e.adp, e.db, testutil.NewTestLogger(e.t))
}

func (e *env) scanner() *Scanner {
	logger := testutil.NewTestLogger(e.t)
	return New(e.adp.Dialect(), e.cfg, resolve.New(e.adp.Dialect(), e.cfg, logger), logger)
}

func (e *env) exec(query string) {
	e.t.Helper()
	_, err := e.db.ExecContext(e.ctx, query)
	require.NoError(e.t, err)
}

// collect records every event of a stream.
func collect(events *[]core.ScanEvent) EmitFunc {
	return func(ev core.ScanEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func types(events []core.ScanEvent) []core.EventType {
	out := make([]core.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func resultFor(t *testing.T, res *core.ScanResult, table string) core.TableMatches {
	t.Helper()
	for _, m := range res.Results {
		if m.Table == table {
			return m
		}
	}
	t.Fatalf("no results for table %s", table)
	return core.TableMatches{}
}

func intPtr(v int) *int { return &v }

func TestScan_OrdersYearScenario(t *testing.T) {
	e := newEnv(t)
	res, err := e.scanner().Scan(e.ctx, e.catalog(), e.db, "Acme", intPtr(2022))
	require.NoError(t, err)

	orders := resultFor(t, res, "orders")
	require.Equal(t, 1, orders.Matches)
	assert.Equal(t, "1", orders.Rows[0]["id"])
	assert.Equal(t, "Acme Corp", orders.Rows[0]["name"])
	assert.Equal(t, []string{"name"}, orders.NameColumns)
	assert.Equal(t, []string{"year"}, orders.DateColumns)
	assert.True(t, orders.YearFilterApplied)
	assert.False(t, orders.IsPriority)

	// No date-like columns: the name predicate alone applies.
	part := resultFor(t, res, "partecipanti_data")
	assert.Equal(t, 1, part.Matches)
	assert.False(t, part.YearFilterApplied)

	assert.Equal(t, 2, res.TotalMatches)
	assert.Equal(t, 2, res.TablesWithResults)
	assert.Equal(t, 6, res.TablesSearched)
	assert.Equal(t, 5, res.PriorityTablesSearched)
	assert.True(t, res.Found)
	assert.Equal(t, "Acme", res.Name)
}

func TestScanStream_EventOrder(t *testing.T) {
	e := newEnv(t)
	e.exec("CREATE TABLE metrics (id INTEGER PRIMARY KEY, value REAL)")

	var events []core.ScanEvent
	err := e.scanner().ScanStream(e.ctx, e.catalog(), e.db, "  Alpha ", nil, collect(&events))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, core.EventStatus, events[0].Type)
	assert.Equal(t, core.EventTablesCount, events[1].Type)
	assert.Equal(t, core.EventFinalSummary, events[len(events)-1].Type)

	var progressed []string
	sum := 0
	body := events[2 : len(events)-1]
	require.Len(t, body, 14, "one progress and one outcome per table")
	for i := 0; i < len(body); i += 2 {
		require.Equal(t, core.EventProgress, body[i].Type)
		progressed = append(progressed, body[i].Data.(core.ProgressData).CurrentTable)

		switch d := body[i+1].Data.(type) {
		case core.TableMatches:
			sum += d.Matches
		case core.TableNoResultsData, core.TableSkippedData:
		default:
			t.Fatalf("unexpected outcome %s", body[i+1].Type)
		}
	}
	assert.Equal(t, []string{
		"aggiudicatari_data", "cig_data", "stazioni_appaltanti_data", "centri_di_costo_data",
		"partecipanti_data", "metrics", "orders",
	}, progressed)

	summary := events[len(events)-1].Data.(core.ScanSummaryData)
	assert.Equal(t, sum, summary.TotalMatches)
	assert.Equal(t, 3, summary.TotalMatches)
	assert.Equal(t, 2, summary.TablesWithResults)
	assert.Equal(t, "Alpha", summary.Name)
	assert.False(t, summary.Timestamp.IsZero())

	skipped := body[11]
	assert.Equal(t, core.EventTableSkipped, skipped.Type)
	assert.Equal(t, core.TableSkippedData{Table: "metrics", Reason: ReasonNoNameColumns}, skipped.Data)
}

func TestScan_PrimaryTablePatterns(t *testing.T) {
	e := newEnv(t)
	res, err := e.scanner().Scan(e.ctx, e.catalog(), e.db, "alpha costruzioni s.r.l.", nil)
	require.NoError(t, err)

	primary := resultFor(t, res, "aggiudicatari_data")
	assert.True(t, primary.IsPrimaryTable)
	assert.Equal(t, 2, primary.Matches)
	assert.Equal(t, "denominazione", primary.NameColumns[0])
	assert.Equal(t, []string{"data_aggiudicazione"}, primary.DateColumns)
}

func TestScan_RowCaps(t *testing.T) {
	e := newEnv(t)
	e.cfg.OtherRowCap = 1
	e.cfg.PrimaryRowCap = 1

	res, err := e.scanner().Scan(e.ctx, e.catalog(), e.db, "Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resultFor(t, res, "orders").Matches)
	assert.Equal(t, 1, resultFor(t, res, "aggiudicatari_data").Matches)
}

func TestScan_Validation(t *testing.T) {
	tests := []struct {
		name string
		text string
		year *int
	}{
		{name: "too short", text: "A"},
		{name: "blank", text: "   "},
		{name: "short after trim", text: " x "},
		{name: "year too old", text: "Acme", year: intPtr(1899)},
		{name: "year too far", text: "Acme", year: intPtr(2101)},
	}

	e := newEnv(t)
	s := e.scanner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []core.ScanEvent
			err := s.ScanStream(e.ctx, e.catalog(), e.db, tt.text, tt.year, collect(&events))
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
			assert.Empty(t, events)

			_, err = s.Direct(e.ctx, e.catalog(), e.db, tt.text, tt.year)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func TestScanStream_EmitErrorStops(t *testing.T) {
	e := newEnv(t)
	stop := errors.New("client gone")

	var events []core.ScanEvent
	err := e.scanner().ScanStream(e.ctx, e.catalog(), e.db, "Acme", nil, func(ev core.ScanEvent) error {
		events = append(events, ev)
		if ev.Type == core.EventTableResult {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []core.EventType{
		core.EventStatus, core.EventTablesCount, core.EventProgress, core.EventTableResult,
	}, types(events))
}

func TestScanStream_ContextCancelled(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(e.ctx)
	cat := e.catalog()
	_, err := cat.ListTables(ctx)
	require.NoError(t, err)

	var events []core.ScanEvent
	err = e.scanner().ScanStream(ctx, cat, e.db, "Acme", nil, func(ev core.ScanEvent) error {
		events = append(events, ev)
		if ev.Type == core.EventTableResult {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.EventTableResult, events[len(events)-1].Type, "no table is queried after cancellation")
}

func TestScanStream_TableError(t *testing.T) {
	e := newEnv(t)
	cat := e.catalog()
	_, err := cat.DescribeTable(e.ctx, "orders")
	require.NoError(t, err)
	e.exec("DROP TABLE orders")

	var events []core.ScanEvent
	require.NoError(t, e.scanner().ScanStream(e.ctx, cat, e.db, "Acme", nil, collect(&events)))

	var failed bool
	for _, ev := range events {
		if d, ok := ev.Data.(core.TableErrorData); ok {
			assert.Equal(t, "orders", d.Table)
			failed = true
		}
	}
	assert.True(t, failed)
	assert.Equal(t, core.EventFinalSummary, events[len(events)-1].Type)
}

// brokenIntrospector cannot list tables.
type brokenIntrospector struct{}

func (brokenIntrospector) ListTables(context.Context, adapter.Querier) ([]string, error) {
	return nil, errors.New("connection refused")
}

func (brokenIntrospector) DescribeTable(context.Context, adapter.Querier, string) (*core.TableSchema, error) {
	return nil, errors.New("connection refused")
}

func TestScanStream_CatalogUnavailable(t *testing.T) {
	e := newEnv(t)
	cat := catalog.New(brokenIntrospector{}, e.db, nil)

	var events []core.ScanEvent
	err := e.scanner().ScanStream(e.ctx, cat, e.db, "Acme", nil, collect(&events))
	assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
	assert.Equal(t, []core.EventType{core.EventStatus, core.EventError}, types(events))
}

func TestDirectStream_GroupIdentifier(t *testing.T) {
	e := newEnv(t)

	var events []core.ScanEvent
	require.NoError(t, e.scanner().DirectStream(e.ctx, e.catalog(), e.db, "Alpha", nil, collect(&events)))

	assert.Equal(t, []core.EventType{
		core.EventSearchStarted,
		core.EventProgress,
		core.EventPrimaryResults,
		core.EventProgress,
		core.EventIdentifierProgress,
		core.EventIdentifierDetail,
		core.EventFinalSummary,
	}, types(events))

	primary := events[2].Data.(core.PrimaryResultsData)
	assert.Equal(t, 2, primary.MatchesFound)

	step := events[3].Data.(core.StepData)
	assert.Equal(t, 2, step.Step)
	assert.Equal(t, 1, step.TotalIdentifiers)

	detail := events[5].Data.(core.IdentifierDetailData)
	assert.Equal(t, "Z1A0000001", detail.Identifier)
	assert.Equal(t, "Alpha Costruzioni S.r.l. + Beta Impianti S.p.A.",
		detail.Resolution.Record["aggiudicatari_data_denominazione"])

	summary := events[6].Data.(core.DirectSummaryData)
	assert.Equal(t, core.DirectSummaryData{
		Name: "Alpha", PrimaryMatches: 2, UniqueIdentifiers: 1, TotalDetails: 1, SearchMethod: SearchMethodDirect,
	}, summary)
}

func TestDirect_MergedShapeMatchesResolver(t *testing.T) {
	e := newEnv(t)
	res, err := e.scanner().Direct(e.ctx, e.catalog(), e.db, "Acme Servizi", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"cig", "denominazione", "codice_fiscale", "tipo_soggetto", "ruolo", "id_aggiudicazione"}, res.Columns)
	assert.ElementsMatch(t, []string{"Z2B0000002", "Z3C0000003"}, res.Identifiers)
	require.Len(t, res.Details, 2)

	r := resolve.New(e.adp.Dialect(), e.cfg, nil)
	for _, d := range res.Details {
		want, err := r.Resolve(e.ctx, e.catalog(), e.db, d.Identifier)
		require.NoError(t, err)
		assert.Equal(t, want, d)
	}
}

func TestDirect_Ranking(t *testing.T) {
	e := newEnv(t)
	res, err := e.scanner().Direct(e.ctx, e.catalog(), e.db, "delta ristorazione", nil)
	require.NoError(t, err)

	require.Len(t, res.PrimaryMatches, 2)
	assert.Equal(t, "Delta Ristorazione", res.PrimaryMatches[0]["denominazione"], "exact match ranks first")
	assert.Equal(t, "Delta Ristorazione Sud", res.PrimaryMatches[1]["denominazione"])
	assert.Equal(t, []string{"Z5E0000005"}, res.Identifiers)
}

func TestDirect_YearFilter(t *testing.T) {
	e := newEnv(t)
	res, err := e.scanner().Direct(e.ctx, e.catalog(), e.db, "Acme", intPtr(2021))
	require.NoError(t, err)
	assert.Equal(t, []string{"Z3C0000003"}, res.Identifiers)
	assert.Equal(t, intPtr(2021), res.YearFilter)
}

func TestDirect_IdentifierCap(t *testing.T) {
	e := newEnv(t)
	e.cfg.DirectIdentifierCap = 1
	res, err := e.scanner().Direct(e.ctx, e.catalog(), e.db, "Acme", nil)
	require.NoError(t, err)
	assert.Len(t, res.PrimaryMatches, 2)
	assert.Len(t, res.Identifiers, 1)
}

func TestDirect_MissingPrimaryTable(t *testing.T) {
	e := newEnv(t)
	e.cfg.PrimaryTable = "aggiudicatari"

	var events []core.ScanEvent
	err := e.scanner().DirectStream(e.ctx, e.catalog(), e.db, "Acme", nil, collect(&events))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, events)
}

func TestDirect_StatementShape(t *testing.T) {
	e := newEnv(t)
	plan, err := e.scanner().planDirect(e.ctx, e.catalog(), "Acme", intPtr(2022))
	require.NoError(t, err)

	query, args, err := plan.query.ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "aggiudicatari_data" WHERE (`)
	assert.Contains(t, query, `CAST(strftime('%Y', "data_aggiudicazione") AS INTEGER) = ?`)
	assert.Contains(t, query, `ORDER BY CASE WHEN "denominazione" LIKE ? ESCAPE '!' THEN 1`)
	assert.Contains(t, query, `ELSE 4 END, "denominazione" LIMIT 50`)
	assert.Equal(t, []any{"Acme", "Acme%", "%Acme%", "%Acme", 2022, "Acme", "Acme%", "%Acme"}, args)
}

func TestIdentifiers(t *testing.T) {
	rows := []core.Row{
		{"cig": "B"},
		{"cig": nil},
		{"cig": "A"},
		{"cig": "B"},
		{"cig": ""},
		{"cig": "C"},
	}
	assert.Equal(t, []string{"B", "A", "C"}, identifiers(rows, "cig", 20))
	assert.Equal(t, []string{"B", "A"}, identifiers(rows, "cig", 2))
	assert.Equal(t, []string{}, identifiers(nil, "cig", 20))
}

func TestClassifier(t *testing.T) {
	c := classifier{cfg: config.DefaultSearchConfig()}

	primary := &core.TableSchema{Name: "aggiudicatari_data", Columns: []core.Column{
		{Name: "id"}, {Name: "ragione_sociale"}, {Name: "denominazione"}, {Name: "Company_Name"},
	}}
	assert.Equal(t, []string{"denominazione", "ragione_sociale", "Company_Name"}, c.nameColumns(primary))

	other := &core.TableSchema{Name: "x", Columns: []core.Column{{Name: "denominazione"}, {Name: "importo"}}}
	assert.Equal(t, []string{"denominazione"}, c.nameColumns(other))

	tests := []struct {
		column string
		want   dateKind
	}{
		{column: "anno_pubblicazione", want: yearColumn},
		{column: "YEAR", want: yearColumn},
		{column: "data_aggiudicazione", want: dateColumn},
		{column: "order_date", want: dateColumn},
		{column: "anno_data", want: yearColumn},
		{column: "metadata", want: notDate},
		{column: "database_id", want: notDate},
		{column: "annotazione", want: notDate},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, c.dateKind(tt.column))
		})
	}
}
