package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dbsee/dbsee/internal/cli/output"
	"github.com/dbsee/dbsee/internal/search"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/spf13/cobra"
)

// SearchOptions holds options for the scan and direct commands.
type SearchOptions struct {
	Year   int
	Stream bool
}

func (o *SearchOptions) year(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("year") {
		return nil
	}
	y := o.Year
	return &y
}

func addSearchFlags(cmd *cobra.Command, opts *SearchOptions) {
	cmd.Flags().IntVarP(&opts.Year, "year", "y", 0, "Only match rows dated in this year")
	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "Print progress events as they happen")
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "scan <name>",
		Short: "Search every table for a company name",
		Long: `Scan every table of the target database for rows whose name columns
contain the given company name. Priority tables are searched first and tables
without name columns are skipped. With --year, tables without date columns are
still searched, only without the year filter.

With --stream, each progress event is printed as it happens: one JSON object
per line in json mode, one YAML document per event in yaml mode.`,
		Example: `  dbsee scan "Acme"
  dbsee scan "Acme" --year 2022 --stream
  dbsee scan "Acme" --stream --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			year := opts.year(cmd)
			if opts.Stream {
				return streamEvents(ctx, cc.Renderer, args[0], year, cc.Engine.ScanByNameStream)
			}
			res, err := cc.Engine.ScanByName(ctx, args[0], year)
			if err != nil {
				return err
			}
			return renderScan(cc.Renderer, res)
		},
	}
	addSearchFlags(cmd, opts)
	return cmd
}

// NewDirectCommand creates the direct command.
func NewDirectCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "direct <name>",
		Short: "Resolve every identifier a company was awarded",
		Long: `Search the primary table for a company name, collect the distinct
identifiers of the matching rows and resolve each of them across all tables.
--stream prints events the same way scan does.`,
		Example: `  dbsee direct "Acme"
  dbsee direct "Acme" --year 2023 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			year := opts.year(cmd)
			if opts.Stream {
				return streamEvents(ctx, cc.Renderer, args[0], year, cc.Engine.ResolveDirectStream)
			}
			res, err := cc.Engine.ResolveDirect(ctx, args[0], year)
			if err != nil {
				return err
			}
			return renderDirect(cc.Renderer, res)
		},
	}
	addSearchFlags(cmd, opts)
	return cmd
}

type streamFunc func(ctx context.Context, name string, year *int, emit search.EmitFunc) error

// streamEvents prints events as NDJSON in JSON mode, as a stream of YAML
// documents in YAML mode and as one line per event otherwise.
func streamEvents(ctx context.Context, r *output.Renderer, name string, year *int, run streamFunc) error {
	mode := r.EffectiveMode()
	enc := json.NewEncoder(r.Writer())
	return run(ctx, name, year, func(ev core.ScanEvent) error {
		switch mode {
		case output.ModeJSON:
			return enc.Encode(ev)
		case output.ModeYAML:
			r.Println("---")
			return r.YAML(ev)
		}
		if line := eventLine(r, ev); line != "" {
			r.Println(line)
		}
		return nil
	})
}

func eventLine(r *output.Renderer, ev core.ScanEvent) string {
	switch d := ev.Data.(type) {
	case core.StatusData:
		return r.Header(d.Message)
	case core.TablesCountData:
		return fmt.Sprintf("%d tables to search, %d priority", d.TotalTables, d.PriorityTables)
	case core.ProgressData:
		return r.Muted(fmt.Sprintf("[%d/%d] %s", d.TableIndex, d.TotalTables, d.CurrentTable))
	case core.TableMatches:
		return r.Success(fmt.Sprintf("%s: %d matches (%.3fs)", d.Table, d.Matches, d.SearchTime))
	case core.TableNoResultsData:
		return r.Muted(fmt.Sprintf("%s: no matches", d.Table))
	case core.TableSkippedData:
		return r.Muted(fmt.Sprintf("%s: skipped, %s", d.Table, d.Reason))
	case core.TableErrorData:
		return r.Error(fmt.Sprintf("%s: %s", d.Table, d.Error))
	case core.ScanSummaryData:
		return r.Header(fmt.Sprintf("%d matches in %d of %d tables", d.TotalMatches, d.TablesWithResults, d.TablesSearched))
	case core.StepData:
		return r.Header(fmt.Sprintf("Step %d: %s", d.Step, d.Message))
	case core.PrimaryResultsData:
		return fmt.Sprintf("%d primary rows (%.3fs)", d.MatchesFound, d.SearchTime)
	case core.IdentifierProgressData:
		return r.Muted(fmt.Sprintf("[%d/%d] %s", d.Index, d.Total, d.Identifier))
	case core.IdentifierDetailData:
		return r.Success(fmt.Sprintf("%s: %d fields from %d tables", d.Identifier, d.Resolution.TotalFields, len(d.Resolution.SourceTables)))
	case core.IdentifierNoDataData:
		return r.Muted(fmt.Sprintf("%s: no data", d.Identifier))
	case core.IdentifierErrorData:
		return r.Error(fmt.Sprintf("%s: %s", d.Identifier, d.Error))
	case core.DirectSummaryData:
		return r.Header(fmt.Sprintf("%d identifiers, %d resolved", d.UniqueIdentifiers, d.TotalDetails))
	case core.ErrorData:
		return r.Error(d.Message)
	default:
		return string(ev.Type)
	}
}

func renderScan(r *output.Renderer, res *core.ScanResult) error {
	if done, err := r.Structured(res); done {
		return err
	}

	title := "Scan: " + res.Name
	if res.YearFilter != nil {
		title += fmt.Sprintf(" (%d)", *res.YearFilter)
	}
	r.Section(1, title)

	if !res.Found {
		r.Println(r.Warning("No matches"))
	}
	for _, tm := range res.Results {
		label := tm.Table
		if tm.IsPriority {
			label += " (priority)"
		}
		r.Println("")
		r.Section(2, fmt.Sprintf("%s: %d matches", label, tm.Matches))
		r.Table(rowColumns(tm.Rows), tm.Rows)
	}
	r.Println("")
	r.KeyValues(
		[]string{"total_matches", "tables_searched", "tables_with_results", "tables_skipped", "tables_failed"},
		map[string]any{
			"total_matches":       res.TotalMatches,
			"tables_searched":     res.TablesSearched,
			"tables_with_results": res.TablesWithResults,
			"tables_skipped":      len(res.Skipped),
			"tables_failed":       len(res.Failed),
		},
	)
	return nil
}

func renderDirect(r *output.Renderer, res *core.DirectResult) error {
	if done, err := r.Structured(res); done {
		return err
	}

	title := "Direct: " + res.Name
	if res.YearFilter != nil {
		title += fmt.Sprintf(" (%d)", *res.YearFilter)
	}
	r.Section(1, title)
	r.Section(2, fmt.Sprintf("Primary matches: %d", len(res.PrimaryMatches)))
	r.Table(res.Columns, res.PrimaryMatches)

	for _, d := range res.Details {
		r.Println("")
		r.Section(2, "CIG "+d.Identifier)
		writeRecord(r, d)
	}
	if len(res.Failed) > 0 {
		r.Println("")
		r.Println(r.Error(fmt.Sprintf("%d identifiers failed to resolve", len(res.Failed))))
	}
	r.Println("")
	r.Println(r.Muted(fmt.Sprintf("%d identifiers, %d resolved, method %s", len(res.Identifiers), len(res.Details), res.SearchMethod)))
	return nil
}

// rowColumns returns the sorted union of keys across rows.
func rowColumns(rows []core.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
