package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so transports can map them to statuses.
type ErrorKind int

// Error kinds.
const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidArgument
	KindInvalidColumn
	KindCatalogUnavailable
	KindQueryExecution
)

// String returns the stable code used in API error bodies.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidColumn:
		return "invalid_column"
	case KindCatalogUnavailable:
		return "catalog_unavailable"
	case KindQueryExecution:
		return "query_execution"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by every engine component.
type Error struct {
	Kind    ErrorKind
	Table   string
	Column  string
	Message string
	Err     error
}

// Sentinel errors for errors.Is checks. Matching is by kind only.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrInvalidColumn      = &Error{Kind: KindInvalidColumn}
	ErrCatalogUnavailable = &Error{Kind: KindCatalogUnavailable}
	ErrQueryExecution     = &Error{Kind: KindQueryExecution}
)

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Message != "":
		msg = e.Message
	case e.Kind == KindNotFound:
		msg = fmt.Sprintf("table %q not found", e.Table)
	case e.Kind == KindInvalidColumn:
		msg = fmt.Sprintf("column %q not found in table %q", e.Column, e.Table)
	case e.Kind == KindCatalogUnavailable:
		msg = "catalog unavailable"
	case e.Kind == KindQueryExecution && e.Table != "":
		msg = fmt.Sprintf("query on table %q failed", e.Table)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports an unknown table.
func NotFound(table string) error {
	return &Error{Kind: KindNotFound, Table: table}
}

// NotFoundf reports a missing entity other than a table.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports caller input that fails validation.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// InvalidColumn reports a filter or sort column that the table does not have.
func InvalidColumn(table, column string) error {
	return &Error{Kind: KindInvalidColumn, Table: table, Column: column}
}

// CatalogUnavailable wraps a schema introspection failure.
func CatalogUnavailable(err error) error {
	return &Error{Kind: KindCatalogUnavailable, Err: err}
}

// QueryFailed wraps a statement failure against table.
func QueryFailed(table string, err error) error {
	return &Error{Kind: KindQueryExecution, Table: table, Err: err}
}

// KindOf extracts the ErrorKind from err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
