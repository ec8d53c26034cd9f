package dataset

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestPruneRemovesInternalColumns(t *testing.T) {
	ds := New(
		[]string{"id", "businessId", "amount", "sku", "region"},
		[][]any{
			{"r1", "b1", 100.0, "SKU-1", "north"},
			{"r2", "b1", 250.0, "SKU-2", "south"},
		},
	)

	pruned := ds.Prune()

	assert.Equal(t, []string{"amount", "region"}, pruned.Columns)
	require.Len(t, pruned.Rows, 2)
	assert.Equal(t, []any{100.0, "north"}, pruned.Rows[0])
	assert.Equal(t, []any{250.0, "south"}, pruned.Rows[1])

	// Original dataset untouched
	assert.Equal(t, []string{"id", "businessId", "amount", "sku", "region"}, ds.Columns)
}

func TestPrunePreservesOrder(t *testing.T) {
	ds := New(
		[]string{"region", "taxId", "amount", "month"},
		[][]any{{"north", "t1", 10.0, "Jan"}},
	)

	pruned := ds.Prune()
	assert.Equal(t, []string{"region", "amount", "month"}, pruned.Columns)
}

func TestPruneNoInternalColumns(t *testing.T) {
	ds := New([]string{"amount", "region"}, [][]any{{1.0, "x"}})
	pruned := ds.Prune()
	assert.Equal(t, ds.Columns, pruned.Columns)
	assert.Equal(t, ds.Rows, pruned.Rows)
}

func TestSample(t *testing.T) {
	ds := New([]string{"n"}, [][]any{{1}, {2}, {3}, {4}})

	assert.Len(t, ds.Sample(2).Rows, 2)
	assert.Len(t, ds.Sample(10).Rows, 4)
	assert.Len(t, ds.Sample(-1).Rows, 4)
}

func TestEmpty(t *testing.T) {
	assert.True(t, New([]string{"a"}, nil).Empty())
	assert.False(t, New([]string{"a"}, [][]any{{1}}).Empty())
}

func TestProfile(t *testing.T) {
	ds := New(
		[]string{"amount", "region"},
		[][]any{
			{100.0, "north"},
			{nil, "south"},
			{50.0, nil},
		},
	)

	profile := ds.Profile()
	assert.Contains(t, profile, "3 rows, 2 columns")
	assert.Contains(t, profile, "amount: float64, 2 non-null")
	assert.Contains(t, profile, "region: string, 2 non-null")
}

func TestProfileAllNullColumn(t *testing.T) {
	ds := New([]string{"ghost"}, [][]any{{nil}, {nil}})
	assert.Contains(t, ds.Profile(), "ghost: unknown, 0 non-null")
}

func TestNewProviderRejectsBadTableName(t *testing.T) {
	_, err := NewClickHouseProviderWithConn(nil, "bad-table; DROP", testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dataset table name")
}
