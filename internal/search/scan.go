// Package search finds company names across tables.
//
// The scanner walks every table in priority order and reports matches table
// by table. The direct resolver looks names up in the primary table only and
// resolves each identifier it finds. Both have a streaming form that hands
// events to an EmitFunc as soon as they are known, and a collecting form
// built on top of it.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/internal/config"
	"github.com/dbsee/dbsee/internal/resolve"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// EmitFunc receives stream events in order. Returning an error stops the
// stream; the error is returned to the caller of the stream.
type EmitFunc func(core.ScanEvent) error

// Skip reasons reported in table_skipped events.
const (
	ReasonNoNameColumns = "no name-like columns"
)

// Scanner runs name scans and direct resolutions.
type Scanner struct {
	dialect  *dialect.Dialect
	cfg      config.SearchConfig
	resolver *resolve.Resolver
	classify classifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a scanner. If logger is nil, a discard logger is used.
func New(d *dialect.Dialect, cfg config.SearchConfig, resolver *resolve.Resolver, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		dialect:  d,
		cfg:      cfg,
		resolver: resolver,
		classify: classifier{cfg: cfg},
		logger:   logger,
		now:      time.Now,
	}
}

// validate trims name and checks it and year against the configured limits.
func (s *Scanner) validate(name string, year *int) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < s.cfg.MinNameLength {
		return "", core.InvalidArgument("company name must be at least %d characters long", s.cfg.MinNameLength)
	}
	if year != nil && (*year < s.cfg.MinYear || *year > s.cfg.MaxYear) {
		return "", core.InvalidArgument("year must be between %d and %d", s.cfg.MinYear, s.cfg.MaxYear)
	}
	return name, nil
}

// Validate reports whether name and year would be accepted by a scan.
func (s *Scanner) Validate(name string, year *int) error {
	_, err := s.validate(name, year)
	return err
}

// order puts the configured priority tables that exist first, then the
// remaining tables in catalog order.
func (s *Scanner) order(tables []string) (ordered []string, priority int) {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}
	seen := make(map[string]bool)
	for _, t := range s.cfg.PriorityTables {
		if present[t] && !seen[t] {
			ordered = append(ordered, t)
			seen[t] = true
		}
	}
	priority = len(ordered)
	for _, t := range tables {
		if !seen[t] {
			ordered = append(ordered, t)
		}
	}
	return ordered, priority
}

func (s *Scanner) rowCap(table string) int {
	switch {
	case table == s.cfg.PrimaryTable:
		return s.cfg.PrimaryRowCap
	case s.cfg.IsPriority(table):
		return s.cfg.PriorityRowCap
	default:
		return s.cfg.OtherRowCap
	}
}

func yearMessage(year *int) string {
	if year == nil {
		return "Starting search..."
	}
	return fmt.Sprintf("Starting search... (anno: %d)", *year)
}

// ScanStream scans every table for name and emits the outcome table by
// table. The stream ends with a final_summary event, or with an error event
// when the table list cannot be read. Validation failures return before any
// event is emitted. The context is checked before each table.
func (s *Scanner) ScanStream(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, name string, year *int, emit EmitFunc) error {
	name, err := s.validate(name, year)
	if err != nil {
		return err
	}

	if err := emit(core.ScanEvent{Type: core.EventStatus, Data: core.StatusData{
		Message: yearMessage(year), Name: name, YearFilter: year,
	}}); err != nil {
		return err
	}

	tables, err := cat.ListTables(ctx)
	if err != nil {
		s.logger.Error("failed to list tables for scan", slog.String("error", err.Error()))
		if emitErr := emit(core.ScanEvent{Type: core.EventError, Data: core.ErrorData{Message: err.Error()}}); emitErr != nil {
			return emitErr
		}
		return err
	}
	ordered, priority := s.order(tables)

	if err := emit(core.ScanEvent{Type: core.EventTablesCount, Data: core.TablesCountData{
		TotalTables: len(ordered), PriorityTables: priority, YearFilter: year,
	}}); err != nil {
		return err
	}

	var totalMatches, withResults int
	for i, table := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		isPriority := s.cfg.IsPriority(table)
		if err := emit(core.ScanEvent{Type: core.EventProgress, Data: core.ProgressData{
			CurrentTable: table, TableIndex: i + 1, TotalTables: len(ordered), IsPriority: isPriority,
		}}); err != nil {
			return err
		}

		ev := s.scanTable(ctx, cat, q, table, isPriority, name, year)
		if m, ok := ev.Data.(core.TableMatches); ok {
			totalMatches += m.Matches
			withResults++
		}
		if err := emit(ev); err != nil {
			return err
		}
	}

	s.logger.Info("scan completed",
		slog.String("name", name),
		slog.Int("tables", len(ordered)),
		slog.Int("matches", totalMatches))

	return emit(core.ScanEvent{Type: core.EventFinalSummary, Data: core.ScanSummaryData{
		Name:                   name,
		YearFilter:             year,
		Found:                  totalMatches > 0,
		TotalMatches:           totalMatches,
		TablesSearched:         len(ordered),
		TablesWithResults:      withResults,
		PriorityTablesSearched: priority,
		Timestamp:              s.now(),
	}})
}

// scanTable queries one table and returns the event describing the outcome.
func (s *Scanner) scanTable(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, table string, isPriority bool, name string, year *int) core.ScanEvent {
	fail := func(err error) core.ScanEvent {
		s.logger.Warn("table scan failed", slog.String("table", table), slog.String("error", err.Error()))
		return core.ScanEvent{Type: core.EventTableError, Data: core.TableErrorData{Table: table, Error: err.Error()}}
	}

	schema, err := cat.DescribeTable(ctx, table)
	if err != nil {
		return fail(err)
	}
	nameCols := s.classify.nameColumns(schema)
	if len(nameCols) == 0 {
		return core.ScanEvent{Type: core.EventTableSkipped, Data: core.TableSkippedData{
			Table: table, Reason: ReasonNoNameColumns,
		}}
	}
	dateCols := s.classify.dateColumns(schema)
	isPrimary := table == s.cfg.PrimaryTable

	match := make(sq.Or, 0, len(nameCols)+4)
	pattern := dialect.Contains(name)
	for _, col := range nameCols {
		quoted := s.dialect.QuoteIdentifier(col)
		if isPrimary && col == s.cfg.PrimaryNameColumn {
			match = append(match, namePatterns(s.dialect, quoted, name)...)
			continue
		}
		match = append(match, s.dialect.Like(quoted, pattern))
	}

	b := s.dialect.Statements().
		Select(s.dialect.QuoteIdentifiers(schema.ColumnNames())...).
		From(s.dialect.QuoteIdentifier(table)).
		Where(match)
	yearApplied := year != nil && len(dateCols) > 0
	if yearApplied {
		b = b.Where(yearPredicate(s.dialect, dateCols, *year))
	}
	b = b.Limit(uint64(s.rowCap(table)))

	start := time.Now()
	rows, err := s.fetch(ctx, q, table, schema.ColumnNames(), b)
	if err != nil {
		return fail(err)
	}
	elapsed := roundSeconds(time.Since(start))

	if len(rows) == 0 {
		return core.ScanEvent{Type: core.EventTableNoResults, Data: core.TableNoResultsData{
			Table: table, IsPriority: isPriority, SearchTime: elapsed,
		}}
	}
	if isPrimary {
		s.logger.Info("primary table matches", slog.String("table", table), slog.Int("matches", len(rows)))
	}
	return core.ScanEvent{Type: core.EventTableResult, Data: core.TableMatches{
		Table:             table,
		Matches:           len(rows),
		Rows:              rows,
		NameColumns:       nameCols,
		DateColumns:       names(dateCols),
		SearchTime:        elapsed,
		IsPriority:        isPriority,
		YearFilterApplied: yearApplied,
		IsPrimaryTable:    isPrimary,
	}}
}

// fetch runs b, which selects columns from table, and converts every value
// the way merged records do.
func (s *Scanner) fetch(ctx context.Context, q adapter.Querier, table string, columns []string, b sq.SelectBuilder) ([]core.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.QueryFailed(table, err)
	}
	defer func() { _ = rows.Close() }()

	out, err := adapter.ScanInto(rows, columns)
	if err != nil {
		return nil, core.QueryFailed(table, err)
	}
	for _, row := range out {
		for k, v := range row {
			row[k] = resolve.Convert(v)
		}
	}
	return out, nil
}

// Scan collects ScanStream into one result.
func (s *Scanner) Scan(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, name string, year *int) (*core.ScanResult, error) {
	res := &core.ScanResult{YearFilter: year, Results: []core.TableMatches{}}
	err := s.ScanStream(ctx, cat, q, name, year, func(ev core.ScanEvent) error {
		switch d := ev.Data.(type) {
		case core.StatusData:
			res.Name = d.Name
		case core.TableMatches:
			res.Results = append(res.Results, d)
		case core.TableSkippedData:
			res.Skipped = append(res.Skipped, d.Table)
		case core.TableErrorData:
			res.Failed = append(res.Failed, d.Table)
		case core.ScanSummaryData:
			res.Found = d.Found
			res.TotalMatches = d.TotalMatches
			res.TablesSearched = d.TablesSearched
			res.TablesWithResults = d.TablesWithResults
			res.PriorityTablesSearched = d.PriorityTablesSearched
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(time.Millisecond).Milliseconds()) / 1000
}
