package match

import (
	"context"
	"sort"
	"strings"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/csvreader"
	"github.com/csvdiff/csvdiff/internal/progress"
)

// multisetRow is one occurrence of a row under a content signature, kept in
// the order it was read so output is stable despite the mode ignoring row
// order for matching purposes.
type multisetRow struct {
	rowIndex uint64
	fields   []string
}

// DiffMultiset groups each side's rows by a content signature over
// comparisonColumns and diffs the two sides' occurrence counts per
// signature, visiting signatures in ascending sorted order so output is
// deterministic: the smaller of the two counts becomes Unchanged
// instances, any surplus on A becomes Removed, any surplus on B becomes
// Added. It bypasses partitioning and spilling; the whole side must fit
// in memory.
func DiffMultiset(ctx context.Context, readerA, readerB *csvreader.Reader, layout ColumnLayout, bus *progress.Bus) ([]Event, error) {
	groupsA, err := collect(ctx, readerA, layout.IndexA, layout.ComparisonColumns, bus)
	if err != nil {
		return nil, err
	}
	groupsB, err := collect(ctx, readerB, layout.IndexB, layout.ComparisonColumns, bus)
	if err != nil {
		return nil, err
	}

	signatures := make(map[string]struct{}, len(groupsA)+len(groupsB))
	for sig := range groupsA {
		signatures[sig] = struct{}{}
	}
	for sig := range groupsB {
		signatures[sig] = struct{}{}
	}
	ordered := make([]string, 0, len(signatures))
	for sig := range signatures {
		ordered = append(ordered, sig)
	}
	sort.Strings(ordered)

	var events []Event
	for _, sig := range ordered {
		rowsA := groupsA[sig]
		rowsB := groupsB[sig]
		n := len(rowsA)
		if len(rowsB) < n {
			n = len(rowsB)
		}
		for i := 0; i < n; i++ {
			events = append(events, Event{Kind: Unchanged, RowIndexA: rowsA[i].rowIndex, RowIndexB: rowsB[i].rowIndex, RowA: rowsA[i].fields, RowB: rowsB[i].fields})
		}
		for i := n; i < len(rowsA); i++ {
			events = append(events, Event{Kind: Removed, RowIndexA: rowsA[i].rowIndex, RowA: rowsA[i].fields})
		}
		for i := n; i < len(rowsB); i++ {
			events = append(events, Event{Kind: Added, RowIndexB: rowsB[i].rowIndex, RowB: rowsB[i].fields})
		}
	}

	return events, nil
}

func collect(ctx context.Context, r *csvreader.Reader, index map[string]int, comparisonColumns []string, bus *progress.Bus) (map[string][]multisetRow, error) {
	groups := make(map[string][]multisetRow)
	rows := 0
	for {
		rowIndex, fields, ok := r.Next()
		if !ok {
			break
		}
		rows++
		if rows%512 == 0 {
			if err := progress.CheckCancelled(ctx); err != nil {
				return nil, err
			}
			bus.Report(progress.Update{Phase: progress.PhaseDiffPartitions, Message: "multiset collect"}, false)
		}
		if len(fields) != len(index) {
			return nil, csverr.New(csverr.CodeRowWidthMismatch, "row %d has %d fields, want %d", rowIndex, len(fields), len(index))
		}
		sig := signature(fields, index, comparisonColumns)
		groups[sig] = append(groups[sig], multisetRow{rowIndex: rowIndex, fields: fields})
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func signature(fields []string, index map[string]int, comparisonColumns []string) string {
	var b strings.Builder
	for i, col := range comparisonColumns {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(fields[index[col]])
	}
	return b.String()
}
