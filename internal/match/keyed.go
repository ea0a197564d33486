package match

import (
	"context"
	"sort"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/spill"
)

// ColumnLayout maps a comparison column name to its field index in each
// side's header, letting keyed comparison tolerate a reordered (Sorted
// mode) header.
type ColumnLayout struct {
	ComparisonColumns []string
	IndexA            map[string]int
	IndexB            map[string]int
}

// NewColumnLayout builds the index maps for columnsA and columnsB.
func NewColumnLayout(columnsA, columnsB, comparisonColumns []string) ColumnLayout {
	return ColumnLayout{
		ComparisonColumns: comparisonColumns,
		IndexA:            indexOf(columnsA),
		IndexB:            indexOf(columnsB),
	}
}

func indexOf(columns []string) map[string]int {
	m := make(map[string]int, len(columns))
	for i, c := range columns {
		m[c] = i
	}
	return m
}

// DiffPartition loads one partition's side-A rows into memory, streams its
// side-B rows against them, and returns every Added/Removed/Changed/
// Unchanged event for that partition, sorted by key.
func DiffPartition(ctx context.Context, backend spill.Backend, partitionID uint32, layout ColumnLayout) ([]Event, error) {
	itA, err := backend.Iterate(ctx, spill.SideA, partitionID)
	if err != nil {
		return nil, err
	}
	defer itA.Close()

	sideA := make(map[string]spill.Record)
	for {
		rec, ok := itA.Next()
		if !ok {
			break
		}
		k := joinKey(rec.Key)
		if prior, dup := sideA[k]; dup {
			return nil, csverr.New(csverr.CodeDuplicateKey, "key %v appears more than once in side a: rows %d and %d", rec.Key, prior.RowIndex, rec.RowIndex)
		}
		sideA[k] = rec
	}
	if err := itA.Err(); err != nil {
		return nil, err
	}

	itB, err := backend.Iterate(ctx, spill.SideB, partitionID)
	if err != nil {
		return nil, err
	}
	defer itB.Close()

	matched := make(map[string]struct{}, len(sideA))
	seenB := make(map[string]uint64, len(sideA))
	var events []Event
	for {
		recB, ok := itB.Next()
		if !ok {
			break
		}
		k := joinKey(recB.Key)
		if prior, dup := seenB[k]; dup {
			return nil, csverr.New(csverr.CodeDuplicateKey, "key %v appears more than once in side b: rows %d and %d", recB.Key, prior, recB.RowIndex)
		}
		seenB[k] = recB.RowIndex

		recA, present := sideA[k]
		if !present {
			events = append(events, Event{Kind: Added, Key: recB.Key, RowIndexB: recB.RowIndex, RowB: recB.Row})
			matched[k] = struct{}{}
			continue
		}
		matched[k] = struct{}{}

		changed := diffColumns(layout, recA.Row, recB.Row)
		if len(changed) == 0 {
			events = append(events, Event{Kind: Unchanged, Key: recB.Key, RowIndexA: recA.RowIndex, RowIndexB: recB.RowIndex, RowA: recA.Row, RowB: recB.Row})
		} else {
			events = append(events, Event{Kind: Changed, Key: recB.Key, RowIndexA: recA.RowIndex, RowIndexB: recB.RowIndex, RowA: recA.Row, RowB: recB.Row, ChangedColumns: changed})
		}
	}
	if err := itB.Err(); err != nil {
		return nil, err
	}

	for k, recA := range sideA {
		if _, ok := matched[k]; ok {
			continue
		}
		events = append(events, Event{Kind: Removed, Key: recA.Key, RowIndexA: recA.RowIndex, RowA: recA.Row})
	}

	sort.Slice(events, func(i, j int) bool {
		return CompareKeys(events[i].Key, events[j].Key) < 0
	})

	return events, nil
}

// diffColumns returns the comparison columns, in layout order, whose values
// differ between rowA and rowB.
func diffColumns(layout ColumnLayout, rowA, rowB []string) []string {
	var changed []string
	for _, col := range layout.ComparisonColumns {
		ai, bi := layout.IndexA[col], layout.IndexB[col]
		if rowA[ai] != rowB[bi] {
			changed = append(changed, col)
		}
	}
	return changed
}
