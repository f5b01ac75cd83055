package core

// Row is one result row keyed by column name.
type Row = map[string]any

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination derives the page counters from the total row count.
func NewPagination(page, pageSize int, total int64) Pagination {
	var pages int64
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    int64(page) < pages,
		HasPrev:    page > 1,
	}
}

// QueryInfo echoes the effective query parameters back to the caller.
type QueryInfo struct {
	Table          string         `json:"table_name"`
	FiltersApplied map[string]any `json:"filters_applied"`
	SearchApplied  string         `json:"search_applied,omitempty"`
	OrderBy        string         `json:"order_by,omitempty"`
	OrderDir       string         `json:"order_dir"`
}

// PageResult is one page of a table query.
type PageResult struct {
	Columns    []string   `json:"columns"`
	Rows       []Row      `json:"data"`
	Pagination Pagination `json:"pagination"`
	QueryInfo  QueryInfo  `json:"query_info"`
}

// MergedRecord is the cross-table view of one identifier. Keys are the
// identifier column itself plus "table_column" for every contributed value.
type MergedRecord = map[string]any

// FieldSource maps a merged-record key to the table that supplied it.
type FieldSource = map[string]string

// Resolution is the outcome of resolving one identifier. Found is false when
// no table contributed a row; in that case only Identifier and
// TablesSearched are meaningful.
type Resolution struct {
	Identifier     string       `json:"cig"`
	Found          bool         `json:"found"`
	Record         MergedRecord `json:"merged_data,omitempty"`
	SourceTables   []string     `json:"source_tables,omitempty"`
	FieldSources   FieldSource  `json:"field_sources,omitempty"`
	TotalFields    int          `json:"total_fields"`
	TablesSearched int          `json:"tables_searched"`
}

// TableMatches holds the rows a name scan found in one table.
type TableMatches struct {
	Table             string   `json:"table_name"`
	Matches           int      `json:"matches"`
	Rows              []Row    `json:"data"`
	NameColumns       []string `json:"company_columns"`
	DateColumns       []string `json:"date_columns"`
	SearchTime        float64  `json:"search_time"`
	IsPriority        bool     `json:"is_priority"`
	YearFilterApplied bool     `json:"year_filter_applied"`
	IsPrimaryTable    bool     `json:"is_main_company_table"`
}

// ScanResult is the consolidated answer of a name scan.
type ScanResult struct {
	Name                   string         `json:"company_name"`
	YearFilter             *int           `json:"year_filter"`
	Found                  bool           `json:"found"`
	TotalMatches           int            `json:"total_matches"`
	TablesSearched         int            `json:"tables_searched"`
	TablesWithResults      int            `json:"tables_with_results"`
	PriorityTablesSearched int            `json:"priority_tables_searched"`
	Results                []TableMatches `json:"results"`
	Skipped                []string       `json:"tables_skipped,omitempty"`
	Failed                 []string       `json:"tables_failed,omitempty"`
}

// DirectResult is the answer of a direct primary-table resolution.
type DirectResult struct {
	Name           string        `json:"company_name"`
	YearFilter     *int          `json:"year_filter"`
	Columns        []string      `json:"columns"`
	PrimaryMatches []Row         `json:"primary_results"`
	Identifiers    []string      `json:"unique_cigs"`
	Details        []*Resolution `json:"cig_details"`
	Failed         []string      `json:"failed_cigs,omitempty"`
	SearchMethod   string        `json:"search_method"`
}
