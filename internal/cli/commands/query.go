package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbsee/dbsee/internal/cli/output"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Filters  []string
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Filter, search, sort and page through a table",
		Long: `Query any table of the target database.

Filters are exact matches on named columns. Values that parse as numbers or
booleans are sent typed; wrap a value in double quotes to force a string.
The search term is matched case-insensitively against every text column.`,
		Example: `  # First page of a table
  dbsee query orders

  # Exact filter plus free-text search
  dbsee query orders --filter year=2022 --search acme

  # Sorted, second page of 10
  dbsee query aggiudicatari_data --order-by denominazione --order-dir desc --page 2 --page-size 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "Exact filter as column=value (repeatable)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Case-insensitive search across text columns")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page (default from search.default_page_size)")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "Column to sort by")
	cmd.Flags().StringVar(&opts.OrderDir, "order-dir", "asc", "Sort direction (asc|desc)")

	_ = cmd.RegisterFlagCompletionFunc("order-dir", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"asc", "desc"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, table string, opts *QueryOptions) error {
	filters, err := parseFilters(opts.Filters)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	p := cc.Engine.DefaultParams()
	p.Filters = filters
	p.Search = opts.Search
	p.Page = opts.Page
	p.OrderBy = opts.OrderBy
	p.OrderDir = opts.OrderDir
	if cmd.Flags().Changed("page-size") {
		p.PageSize = opts.PageSize
	}

	res, err := cc.Engine.QueryTable(cmd.Context(), table, p)
	if err != nil {
		return err
	}
	return renderPage(cc.Renderer, table, res)
}

func renderPage(r *output.Renderer, table string, res *core.PageResult) error {
	if done, err := r.Structured(res); done {
		return err
	}
	r.Section(1, table)
	r.Table(res.Columns, res.Rows)
	pg := res.Pagination
	r.Println(r.Muted(fmt.Sprintf("page %d of %d, %d rows total", pg.Page, pg.TotalPages, pg.TotalItems)))
	return nil
}

// parseFilters turns column=value pairs into typed filter values.
func parseFilters(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(raw))
	for _, f := range raw {
		col, val, ok := strings.Cut(f, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid filter %q: want column=value", f)
		}
		filters[col] = filterValue(val)
	}
	return filters, nil
}

func filterValue(s string) any {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}
