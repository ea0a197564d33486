package partition_test

import (
	"context"
	"strings"
	"testing"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/partition"
	"github.com/csvdiff/csvdiff/internal/progress"
	"github.com/csvdiff/csvdiff/internal/schema"
	"github.com/csvdiff/csvdiff/internal/spill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, b spill.Backend, side spill.Side, partitionCount uint32) []spill.Record {
	t.Helper()
	var all []spill.Record
	for p := uint32(0); p < partitionCount; p++ {
		it, err := b.Iterate(context.Background(), side, p)
		require.NoError(t, err)
		for {
			rec, ok := it.Next()
			if !ok {
				break
			}
			all = append(all, rec)
		}
		require.NoError(t, it.Err())
		require.NoError(t, it.Close())
	}
	return all
}

func Test_Run_RoutesRowsByKeyHash(t *testing.T) {
	a := "id,name\n1,Alice\n2,Bob\n3,Carol\n"
	b := "id,name\n1,Alice\n2,Robert\n4,Dave\n"

	backend := spill.NewMemoryBackend()
	bus := progress.NewBus(false, nil)

	res, err := partition.Run(context.Background(), strings.NewReader(a), strings.NewReader(b), backend, bus, uint64(len(a)+len(b)), partition.Options{
		KeyColumns:     []string{"id"},
		HeaderMode:     schema.Strict,
		PartitionCount: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, res.ColumnsA)
	assert.Equal(t, []string{"id", "name"}, res.ComparisonColumns)

	sideA := drain(t, backend, spill.SideA, 4)
	sideB := drain(t, backend, spill.SideB, 4)
	assert.Len(t, sideA, 3)
	assert.Len(t, sideB, 3)
}

func Test_Run_RowWidthMismatchIsFatal(t *testing.T) {
	a := "id,name\n1,Alice\n2\n"
	b := "id,name\n1,Alice\n"

	backend := spill.NewMemoryBackend()
	bus := progress.NewBus(false, nil)

	_, err := partition.Run(context.Background(), strings.NewReader(a), strings.NewReader(b), backend, bus, uint64(len(a)+len(b)), partition.Options{
		KeyColumns:     []string{"id"},
		HeaderMode:     schema.Strict,
		PartitionCount: 2,
	})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeRowWidthMismatch))
}

func Test_Run_MissingKeyValueIsFatal(t *testing.T) {
	a := "id,name\n,Alice\n"
	b := "id,name\n1,Alice\n"

	backend := spill.NewMemoryBackend()
	bus := progress.NewBus(false, nil)

	_, err := partition.Run(context.Background(), strings.NewReader(a), strings.NewReader(b), backend, bus, uint64(len(a)+len(b)), partition.Options{
		KeyColumns:     []string{"id"},
		HeaderMode:     schema.Strict,
		PartitionCount: 2,
	})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeMissingKeyValue))
}

func Test_Run_EmptySideIsFatal(t *testing.T) {
	backend := spill.NewMemoryBackend()
	bus := progress.NewBus(false, nil)

	_, err := partition.Run(context.Background(), strings.NewReader(""), strings.NewReader("id\n1\n"), backend, bus, 0, partition.Options{
		KeyColumns:     []string{"id"},
		HeaderMode:     schema.Strict,
		PartitionCount: 2,
	})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeEmptyFile))
}

func Test_Run_HeaderMismatchIsFatal(t *testing.T) {
	backend := spill.NewMemoryBackend()
	bus := progress.NewBus(false, nil)

	_, err := partition.Run(context.Background(),
		strings.NewReader("id,name\n1,Alice\n"),
		strings.NewReader("id,email\n1,a@example.com\n"),
		backend, bus, 0, partition.Options{
			KeyColumns:     []string{"id"},
			HeaderMode:     schema.Strict,
			PartitionCount: 2,
		})
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeHeaderMismatch))
}
