package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"nil", nil, nil},
		{"empty string", "", ""},
		{"string", "ACME", "ACME"},
		{"bytes", []byte("ACME"), "ACME"},
		{"empty bytes", []byte{}, ""},
		{"int", int64(42), int64(42)},
		{"midnight date", time.Date(2023, 5, 4, 0, 0, 0, 0, time.UTC), "2023-05-04"},
		{"timestamp", time.Date(2023, 5, 4, 10, 30, 0, 0, time.UTC), "2023-05-04T10:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeValue(tt.input))
		})
	}
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "", StringValue(nil))
	assert.Equal(t, "abc", StringValue("abc"))
	assert.Equal(t, "12", StringValue(int64(12)))
}

func TestScanRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"cig", "oggetto"}).
			AddRow("Z1A2B3C4D5", []byte("Servizi")).
			AddRow("Z9", ""),
	)

	rows, err := db.QueryContext(context.Background(), "SELECT cig, oggetto FROM bandi")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	cols, out, err := ScanRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"cig", "oggetto"}, cols)
	require.Len(t, out, 2)
	assert.Equal(t, "Servizi", out[0]["oggetto"])
	assert.Equal(t, "", out[1]["oggetto"])
}

func TestScanRows_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"cig"}))

	rows, err := db.QueryContext(context.Background(), "SELECT cig FROM bandi")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	_, out, err := ScanRows(rows)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
