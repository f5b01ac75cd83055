package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/dbsee/dbsee/internal/catalog"
	"github.com/dbsee/dbsee/pkg/adapter"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/dbsee/dbsee/pkg/dialect"
)

// SearchMethodDirect tags direct resolution summaries.
const SearchMethodDirect = "direct"

// directPlan is the primary-table lookup of a direct resolution.
type directPlan struct {
	columns []string
	idCol   string
	query   sq.SelectBuilder
}

func (s *Scanner) planDirect(ctx context.Context, cat *catalog.Catalog, name string, year *int) (*directPlan, error) {
	table := s.cfg.PrimaryTable
	ok, err := cat.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NotFound(table)
	}
	schema, err := cat.DescribeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	nameCol, ok := cat.ResolveColumn(schema, s.cfg.PrimaryNameColumn)
	if !ok {
		return nil, core.InvalidColumn(table, s.cfg.PrimaryNameColumn)
	}
	idCol, ok := cat.ResolveColumn(schema, s.cfg.IdentifierColumn)
	if !ok {
		return nil, core.InvalidColumn(table, s.cfg.IdentifierColumn)
	}

	columns := []string{idCol}
	for _, c := range s.cfg.DirectColumns {
		if actual, ok := cat.ResolveColumn(schema, c); ok && !containsExact(columns, actual) {
			columns = append(columns, actual)
		}
	}

	quotedName := s.dialect.QuoteIdentifier(nameCol)
	rank, rankArgs, err := sq.Expr(
		"CASE WHEN ? THEN 1 WHEN ? THEN 2 WHEN ? THEN 3 ELSE 4 END",
		s.dialect.Like(quotedName, dialect.EscapeLike(name)),
		s.dialect.Like(quotedName, dialect.Prefix(name)),
		s.dialect.Like(quotedName, dialect.Suffix(name)),
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rank expression: %w", err)
	}

	b := s.dialect.Statements().
		Select(s.dialect.QuoteIdentifiers(columns)...).
		From(s.dialect.QuoteIdentifier(table)).
		Where(namePatterns(s.dialect, quotedName, name))
	if year != nil {
		if dates := s.classify.dateColumns(schema); len(dates) > 0 {
			b = b.Where(yearPredicate(s.dialect, dates, *year))
		}
	}
	b = b.OrderByClause(rank, rankArgs...).
		OrderBy(quotedName).
		Limit(uint64(s.cfg.DirectMatchCap))

	return &directPlan{columns: columns, idCol: idCol, query: b}, nil
}

// identifiers returns the distinct non-empty identifiers of rows in first
// appearance order, at most limit of them.
func identifiers(rows []core.Row, column string, limit int) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, row := range rows {
		id := adapter.StringValue(row[column])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// DirectStream looks name up in the primary table and resolves every
// identifier found there, emitting one event per step. A failing identifier
// is reported and the loop continues.
func (s *Scanner) DirectStream(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, name string, year *int, emit EmitFunc) error {
	_, err := s.direct(ctx, cat, q, name, year, emit)
	return err
}

func (s *Scanner) direct(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, name string, year *int, emit EmitFunc) (*directPlan, error) {
	name, err := s.validate(name, year)
	if err != nil {
		return nil, err
	}
	plan, err := s.planDirect(ctx, cat, name, year)
	if err != nil {
		return nil, err
	}
	if err := s.runDirect(ctx, cat, q, plan, name, year, emit); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Scanner) runDirect(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, plan *directPlan, name string, year *int, emit EmitFunc) error {
	if err := emit(core.ScanEvent{Type: core.EventSearchStarted, Data: core.StatusData{
		Message: yearMessage(year), Name: name, YearFilter: year,
	}}); err != nil {
		return err
	}
	if err := emit(core.ScanEvent{Type: core.EventProgress, Data: core.StepData{
		Step: 1, Message: "Searching primary table...",
	}}); err != nil {
		return err
	}

	start := time.Now()
	matches, err := s.fetch(ctx, q, s.cfg.PrimaryTable, plan.columns, plan.query)
	if err != nil {
		s.logger.Error("primary table lookup failed", slog.String("error", err.Error()))
		if emitErr := emit(core.ScanEvent{Type: core.EventError, Data: core.ErrorData{Message: err.Error()}}); emitErr != nil {
			return emitErr
		}
		return err
	}
	if err := emit(core.ScanEvent{Type: core.EventPrimaryResults, Data: core.PrimaryResultsData{
		MatchesFound: len(matches), Rows: matches, SearchTime: roundSeconds(time.Since(start)),
	}}); err != nil {
		return err
	}

	ids := identifiers(matches, plan.idCol, s.cfg.DirectIdentifierCap)
	if err := emit(core.ScanEvent{Type: core.EventProgress, Data: core.StepData{
		Step: 2, Message: fmt.Sprintf("Assembling details for %d identifiers...", len(ids)), TotalIdentifiers: len(ids),
	}}); err != nil {
		return err
	}

	details := 0
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(core.ScanEvent{Type: core.EventIdentifierProgress, Data: core.IdentifierProgressData{
			Identifier: id, Index: i + 1, Total: len(ids),
		}}); err != nil {
			return err
		}

		began := time.Now()
		res, err := s.resolver.Resolve(ctx, cat, q, id)
		var ev core.ScanEvent
		switch {
		case err != nil:
			s.logger.Warn("identifier resolution failed", slog.String("identifier", id), slog.String("error", err.Error()))
			ev = core.ScanEvent{Type: core.EventIdentifierError, Data: core.IdentifierErrorData{Identifier: id, Error: err.Error()}}
		case !res.Found:
			ev = core.ScanEvent{Type: core.EventIdentifierNoData, Data: core.IdentifierNoDataData{
				Identifier: id, TablesSearched: res.TablesSearched, Index: i + 1, Total: len(ids),
			}}
		default:
			details++
			ev = core.ScanEvent{Type: core.EventIdentifierDetail, Data: core.IdentifierDetailData{
				Identifier: id, Resolution: res, SearchTime: roundSeconds(time.Since(began)), Index: i + 1, Total: len(ids),
			}}
		}
		if err := emit(ev); err != nil {
			return err
		}
	}

	s.logger.Info("direct resolution completed",
		slog.String("name", name),
		slog.Int("matches", len(matches)),
		slog.Int("identifiers", len(ids)),
		slog.Int("details", details))

	return emit(core.ScanEvent{Type: core.EventFinalSummary, Data: core.DirectSummaryData{
		Name:              name,
		YearFilter:        year,
		PrimaryMatches:    len(matches),
		UniqueIdentifiers: len(ids),
		TotalDetails:      details,
		SearchMethod:      SearchMethodDirect,
	}})
}

// Direct collects DirectStream into one result.
func (s *Scanner) Direct(ctx context.Context, cat *catalog.Catalog, q adapter.Querier, name string, year *int) (*core.DirectResult, error) {
	res := &core.DirectResult{
		YearFilter:     year,
		PrimaryMatches: []core.Row{},
		Identifiers:    []string{},
		Details:        []*core.Resolution{},
		SearchMethod:   SearchMethodDirect,
	}
	var ids []string
	plan, err := s.direct(ctx, cat, q, name, year, func(ev core.ScanEvent) error {
		switch d := ev.Data.(type) {
		case core.StatusData:
			res.Name = d.Name
		case core.PrimaryResultsData:
			res.PrimaryMatches = d.Rows
		case core.IdentifierProgressData:
			ids = append(ids, d.Identifier)
		case core.IdentifierDetailData:
			res.Details = append(res.Details, d.Resolution)
		case core.IdentifierErrorData:
			res.Failed = append(res.Failed, d.Identifier)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ids != nil {
		res.Identifiers = ids
	}
	res.Columns = plan.columns
	return res, nil
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
