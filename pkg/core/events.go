package core

import "time"

// EventType tags a streamed ScanEvent.
type EventType string

// Name scan events.
const (
	EventStatus         EventType = "status"
	EventTablesCount    EventType = "tables_count"
	EventProgress       EventType = "progress"
	EventTableResult    EventType = "table_result"
	EventTableNoResults EventType = "table_no_results"
	EventTableSkipped   EventType = "table_skipped"
	EventTableError     EventType = "table_error"
	EventFinalSummary   EventType = "final_summary"
	EventError          EventType = "error"
)

// Direct resolution events. EventProgress, EventFinalSummary and EventError
// are shared with the scan.
const (
	EventSearchStarted      EventType = "search_started"
	EventPrimaryResults     EventType = "primary_results"
	EventIdentifierProgress EventType = "cig_progress"
	EventIdentifierDetail   EventType = "cig_detail"
	EventIdentifierNoData   EventType = "cig_no_data"
	EventIdentifierError    EventType = "cig_error"
)

// ScanEvent is one message of a streaming scan. Data holds the payload
// struct matching Type.
type ScanEvent struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// StatusData announces the start of a scan.
type StatusData struct {
	Message    string `json:"message"`
	Name       string `json:"company_name"`
	YearFilter *int   `json:"year_filter"`
}

// TablesCountData reports the size of the scan.
type TablesCountData struct {
	TotalTables    int  `json:"total_tables"`
	PriorityTables int  `json:"priority_tables"`
	YearFilter     *int `json:"year_filter"`
}

// ProgressData precedes the query against one table.
type ProgressData struct {
	CurrentTable string `json:"current_table"`
	TableIndex   int    `json:"table_index"`
	TotalTables  int    `json:"total_tables"`
	IsPriority   bool   `json:"is_priority"`
}

// TableNoResultsData reports a queried table with zero matches.
type TableNoResultsData struct {
	Table      string  `json:"table_name"`
	IsPriority bool    `json:"is_priority"`
	SearchTime float64 `json:"search_time"`
}

// TableSkippedData reports a table that was not queried.
type TableSkippedData struct {
	Table  string `json:"table_name"`
	Reason string `json:"reason"`
}

// TableErrorData reports a table whose query failed.
type TableErrorData struct {
	Table string `json:"table_name"`
	Error string `json:"error"`
}

// ScanSummaryData closes a scan stream.
type ScanSummaryData struct {
	Name                   string    `json:"company_name"`
	YearFilter             *int      `json:"year_filter"`
	Found                  bool      `json:"found"`
	TotalMatches           int       `json:"total_matches"`
	TablesSearched         int       `json:"tables_searched"`
	TablesWithResults      int       `json:"tables_with_results"`
	PriorityTablesSearched int       `json:"priority_tables_searched"`
	Timestamp              time.Time `json:"search_timestamp"`
}

// ErrorData terminates a stream early.
type ErrorData struct {
	Message string `json:"message"`
}

// StepData marks a phase of a direct resolution.
type StepData struct {
	Step             int    `json:"step"`
	Message          string `json:"message"`
	TotalIdentifiers int    `json:"total_cigs,omitempty"`
}

// PrimaryResultsData carries the raw primary-table matches.
type PrimaryResultsData struct {
	MatchesFound int     `json:"matches_found"`
	Rows         []Row   `json:"data"`
	SearchTime   float64 `json:"search_time"`
}

// IdentifierProgressData precedes the resolution of one identifier.
type IdentifierProgressData struct {
	Identifier string `json:"cig"`
	Index      int    `json:"progress"`
	Total      int    `json:"total"`
}

// IdentifierDetailData carries one resolved identifier.
type IdentifierDetailData struct {
	Identifier string      `json:"cig"`
	Resolution *Resolution `json:"data"`
	SearchTime float64     `json:"search_time"`
	Index      int         `json:"progress"`
	Total      int         `json:"total"`
}

// IdentifierNoDataData reports an identifier no table contributed to.
type IdentifierNoDataData struct {
	Identifier     string `json:"cig"`
	TablesSearched int    `json:"tables_searched"`
	Index          int    `json:"progress"`
	Total          int    `json:"total"`
}

// IdentifierErrorData reports an identifier whose resolution failed.
type IdentifierErrorData struct {
	Identifier string `json:"cig"`
	Error      string `json:"error"`
}

// DirectSummaryData closes a direct resolution stream.
type DirectSummaryData struct {
	Name              string `json:"company_name"`
	YearFilter        *int   `json:"year_filter"`
	PrimaryMatches    int    `json:"primary_matches"`
	UniqueIdentifiers int    `json:"unique_cigs"`
	TotalDetails      int    `json:"total_cig_details"`
	SearchMethod      string `json:"search_method"`
}
