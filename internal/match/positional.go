package match

import (
	"context"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/csvreader"
	"github.com/csvdiff/csvdiff/internal/progress"
)

// DiffPositional zips readerA and readerB row-for-row by position: data row
// N of A is compared against data row N of B regardless of content. It
// bypasses partitioning and spilling entirely, since position, not a key,
// is the only identity a row has in this mode.
func DiffPositional(ctx context.Context, readerA, readerB *csvreader.Reader, layout ColumnLayout, bus *progress.Bus) ([]Event, error) {
	var events []Event
	rows := 0
	for {
		rowA, fieldsA, okA := readerA.Next()
		rowB, fieldsB, okB := readerB.Next()

		rows++
		if rows%512 == 0 {
			if err := progress.CheckCancelled(ctx); err != nil {
				return nil, err
			}
			bus.Report(progress.Update{Phase: progress.PhaseDiffPartitions, Message: "positional diff"}, false)
		}

		switch {
		case !okA && !okB:
			if err := readerA.Err(); err != nil {
				return nil, err
			}
			if err := readerB.Err(); err != nil {
				return nil, err
			}
			return events, nil
		case okA && !okB:
			if err := readerB.Err(); err != nil {
				return nil, err
			}
			if err := checkWidth(len(layout.IndexA), fieldsA); err != nil {
				return nil, err
			}
			events = append(events, Event{Kind: Removed, RowIndexA: rowA, RowA: fieldsA})
		case !okA && okB:
			if err := readerA.Err(); err != nil {
				return nil, err
			}
			if err := checkWidth(len(layout.IndexB), fieldsB); err != nil {
				return nil, err
			}
			events = append(events, Event{Kind: Added, RowIndexB: rowB, RowB: fieldsB})
		default:
			if err := checkWidth(len(layout.IndexA), fieldsA); err != nil {
				return nil, err
			}
			if err := checkWidth(len(layout.IndexB), fieldsB); err != nil {
				return nil, err
			}
			changed := diffColumns(layout, fieldsA, fieldsB)
			if len(changed) == 0 {
				events = append(events, Event{Kind: Unchanged, RowIndexA: rowA, RowIndexB: rowB, RowA: fieldsA, RowB: fieldsB})
			} else {
				events = append(events, Event{Kind: Changed, RowIndexA: rowA, RowIndexB: rowB, RowA: fieldsA, RowB: fieldsB, ChangedColumns: changed})
			}
		}
	}
}

func checkWidth(want int, fields []string) error {
	if len(fields) != want {
		return csverr.New(csverr.CodeRowWidthMismatch, "row has %d fields, want %d", len(fields), want)
	}
	return nil
}
