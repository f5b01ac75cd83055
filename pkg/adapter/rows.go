package adapter

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dbsee/dbsee/pkg/core"
)

// ScanRows drains rows into column-keyed maps. Values are normalized for
// JSON: byte slices become strings and dates at midnight render as
// YYYY-MM-DD. Empty strings are kept as-is.
func ScanRows(rows *sql.Rows) ([]string, []core.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	out, err := ScanInto(rows, columns)
	if err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

// ScanInto drains rows keying each value by the column list fixed when the
// statement was built. The result set must have exactly that many columns.
func ScanInto(rows *sql.Rows, columns []string) ([]core.Row, error) {
	out := []core.Row{}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(columns))
		for i, c := range columns {
			row[c] = NormalizeValue(values[i])
			values[i] = nil
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// NormalizeValue converts a driver value into its JSON-friendly form.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return x
	}
}

// StringValue renders a normalized value as text. Nil yields "".
func StringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
