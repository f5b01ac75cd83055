package adapter

import (
	"context"
	"fmt"

	"github.com/dbsee/dbsee/pkg/core"
)

// QueryForeignKeys runs a catalog query returning one row per constrained
// column as (constraint, column, referenced table, referenced column),
// ordered by constraint and key position, and groups the rows by constraint.
func QueryForeignKeys(ctx context.Context, q Querier, query string, args ...any) ([]core.ForeignKey, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fks := []core.ForeignKey{}
	index := map[string]int{}
	for rows.Next() {
		var name, col, refTable, refCol string
		if err := rows.Scan(&name, &col, &refTable, &refCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		i, ok := index[name]
		if !ok {
			i = len(fks)
			index[name] = i
			fks = append(fks, core.ForeignKey{Name: name, ReferencedTable: refTable})
		}
		fks[i].Columns = append(fks[i].Columns, col)
		fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return fks, nil
}

// QueryIndexes runs a catalog query returning one row per indexed column as
// (index, column, unique), ordered by index and column position.
func QueryIndexes(ctx context.Context, q Querier, query string, args ...any) ([]core.Index, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	indexes := []core.Index{}
	pos := map[string]int{}
	for rows.Next() {
		var (
			name, col string
			unique    bool
		)
		if err := rows.Scan(&name, &col, &unique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		i, ok := pos[name]
		if !ok {
			i = len(indexes)
			pos[name] = i
			indexes = append(indexes, core.Index{Name: name, Unique: unique})
		}
		indexes[i].Columns = append(indexes[i].Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return indexes, nil
}
