package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{"not found", NotFound("orders"), ErrNotFound, KindNotFound},
		{"invalid argument", InvalidArgument("name too short"), ErrInvalidArgument, KindInvalidArgument},
		{"invalid column", InvalidColumn("orders", "nope"), ErrInvalidColumn, KindInvalidColumn},
		{"catalog", CatalogUnavailable(errors.New("boom")), ErrCatalogUnavailable, KindCatalogUnavailable},
		{"query", QueryFailed("orders", errors.New("boom")), ErrQueryExecution, KindQueryExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to serve request: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)

			kind, ok := KindOf(wrapped)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)

			for _, other := range []error{ErrNotFound, ErrInvalidArgument, ErrInvalidColumn, ErrCatalogUnavailable, ErrQueryExecution} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestError_Messages(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, `table "orders" not found`, NotFound("orders").Error())
	assert.Equal(t, `column "x" not found in table "orders"`, InvalidColumn("orders", "x").Error())
	assert.Equal(t, "catalog unavailable: connection refused", CatalogUnavailable(cause).Error())
	assert.Equal(t, `query on table "orders" failed: connection refused`, QueryFailed("orders", cause).Error())
	assert.Equal(t, "year 1800 out of range", InvalidArgument("year %d out of range", 1800).Error())

	assert.ErrorIs(t, QueryFailed("orders", cause), cause)
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
