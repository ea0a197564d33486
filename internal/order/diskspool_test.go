package order_test

import (
	"testing"

	"github.com/csvdiff/csvdiff/internal/match"
	"github.com/csvdiff/csvdiff/internal/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DiskSpool_SpillAndReadBack(t *testing.T) {
	spool, err := order.NewDiskSpool(t.TempDir())
	require.NoError(t, err)
	defer spool.Close()

	events := []match.Event{
		{Kind: match.Added, Key: []string{"2"}, RowIndexB: 3, RowB: []string{"2", "Bob"}},
		{Kind: match.Changed, Key: []string{"3"}, RowIndexA: 2, RowIndexB: 4, RowA: []string{"3", "Carol"}, RowB: []string{"3", "Caroline"}, ChangedColumns: []string{"name"}},
	}
	src, err := spool.Spill(0, events)
	require.NoError(t, err)

	var got []match.Event
	for {
		e, ok, err := src.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, e)
	}
	assert.Equal(t, events, got)
}

func Test_DiskSpool_EmptyPartitionReadsBackEmpty(t *testing.T) {
	spool, err := order.NewDiskSpool(t.TempDir())
	require.NoError(t, err)
	defer spool.Close()

	src, err := spool.Spill(1, nil)
	require.NoError(t, err)
	_, ok, err := src.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
