package core

import "strings"

// SemanticType is the coarse category of a column's declared type.
type SemanticType string

// Semantic type categories.
const (
	TypeText    SemanticType = "text"
	TypeNumeric SemanticType = "numeric"
	TypeDate    SemanticType = "date"
	TypeBoolean SemanticType = "boolean"
	TypeOther   SemanticType = "other"
)

// Column describes one column of a table as reported by introspection.
type Column struct {
	Name          string       `json:"name"`
	DeclaredType  string       `json:"type"`
	Type          SemanticType `json:"semantic_type"`
	Nullable      bool         `json:"nullable"`
	Default       *string      `json:"default"`
	AutoIncrement bool         `json:"autoincrement"`
	Position      int          `json:"position"`
}

// ForeignKey references columns of another table.
type ForeignKey struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"constrained_columns"`
	ReferencedTable   string   `json:"referred_table"`
	ReferencedColumns []string `json:"referred_columns"`
}

// Index is a named, ordered set of columns.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableSchema is an immutable snapshot of one table's metadata.
type TableSchema struct {
	Name        string       `json:"table_name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes"`
}

// Column returns the column with exactly the given name.
func (t *TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has a column with exactly the given name.
func (t *TableSchema) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns column names in ordinal order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TextColumns returns the names of columns whose semantic type is text.
func (t *TableSchema) TextColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == TypeText {
			names = append(names, c.Name)
		}
	}
	return names
}

// ClassifyType maps a driver-reported declared type to a SemanticType.
func ClassifyType(declared string) SemanticType {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexAny(t, "(["); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case t == "":
		return TypeOther
	case strings.HasPrefix(t, "BOOL") || t == "BIT":
		return TypeBoolean
	case strings.Contains(t, "INTERVAL") || strings.Contains(t, "POINT"):
		return TypeOther
	case t == "YEAR":
		return TypeNumeric
	case strings.Contains(t, "DATE") || strings.Contains(t, "TIME"):
		return TypeDate
	case strings.Contains(t, "CHAR") || strings.Contains(t, "TEXT") ||
		strings.Contains(t, "CLOB") || strings.Contains(t, "STRING") ||
		t == "ENUM" || t == "CITEXT" || t == "NAME":
		return TypeText
	case strings.Contains(t, "INT") || strings.Contains(t, "NUM") ||
		strings.Contains(t, "DEC") || strings.Contains(t, "REAL") ||
		strings.Contains(t, "FLOAT") || strings.Contains(t, "DOUBLE") ||
		strings.Contains(t, "SERIAL") || strings.Contains(t, "MONEY"):
		return TypeNumeric
	default:
		return TypeOther
	}
}
