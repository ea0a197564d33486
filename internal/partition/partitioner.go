// Package partition implements pass 1 of the keyed diff algorithm: it
// streams both input tables once, validates their headers against each
// other and against the configured key columns, and routes every data row
// to a partition by hashing its key tuple, spilling each row through a
// spill.Backend for pass 2 to consume.
package partition

import (
	"context"
	"io"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/csvreader"
	"github.com/csvdiff/csvdiff/internal/keyhash"
	"github.com/csvdiff/csvdiff/internal/progress"
	"github.com/csvdiff/csvdiff/internal/schema"
	"github.com/csvdiff/csvdiff/internal/spill"
)

// cancelCheckInterval bounds how often cancellation is polled mid-stream;
// checking on every row would be wasted work on wide, fast files.
const cancelCheckInterval = 512

// Options configures a partitioning run.
type Options struct {
	KeyColumns     []string
	HeaderMode     schema.HeaderMode
	PartitionCount uint32
}

// Result is the header-level outcome of a successful partitioning pass,
// carried forward into pass 2.
type Result struct {
	ColumnsA          []string
	ColumnsB          []string
	ComparisonColumns []string
	KeyColumns        []string
}

// Run streams sourceA and sourceB to completion, validating headers and
// spilling every data row into backend keyed by partition. backend must
// already be openable; Run calls Open(ctx, opts.PartitionCount) itself.
// totalBytes is the combined byte size of both inputs, used to report
// Progress{phase="partitioning"}'s total; 0 if unknown.
func Run(ctx context.Context, sourceA, sourceB io.Reader, backend spill.Backend, bus *progress.Bus, totalBytes uint64, opts Options) (Result, error) {
	if err := progress.CheckCancelled(ctx); err != nil {
		return Result{}, err
	}
	bus.Report(progress.Update{Phase: progress.PhasePartitioning, Message: "reading headers"}, true)

	readerA := csvreader.NewReader(sourceA)
	columnsA, err := readHeader(readerA, "a")
	if err != nil {
		return Result{}, err
	}
	readerB := csvreader.NewReader(sourceB)
	columnsB, err := readHeader(readerB, "b")
	if err != nil {
		return Result{}, err
	}

	validated, err := schema.Validate(columnsA, columnsB, opts.KeyColumns, opts.HeaderMode)
	if err != nil {
		return Result{}, err
	}

	keyIdxA, err := columnIndices(columnsA, opts.KeyColumns, "a")
	if err != nil {
		return Result{}, err
	}
	keyIdxB, err := columnIndices(columnsB, opts.KeyColumns, "b")
	if err != nil {
		return Result{}, err
	}

	if err := backend.Open(ctx, opts.PartitionCount); err != nil {
		return Result{}, err
	}

	if err := streamSide(ctx, readerA, spill.SideA, len(columnsA), keyIdxA, opts.PartitionCount, backend, bus, 0, totalBytes); err != nil {
		return Result{}, err
	}
	if err := streamSide(ctx, readerB, spill.SideB, len(columnsB), keyIdxB, opts.PartitionCount, backend, bus, readerA.BytesRead(), totalBytes); err != nil {
		return Result{}, err
	}

	bus.Report(progress.Update{Phase: progress.PhasePartitioning, Done: totalBytes, Total: totalBytes, Message: "partitioning complete"}, true)

	return Result{
		ColumnsA:          columnsA,
		ColumnsB:          columnsB,
		ComparisonColumns: validated.ComparisonColumns,
		KeyColumns:        opts.KeyColumns,
	}, nil
}

func readHeader(r *csvreader.Reader, side string) ([]string, error) {
	_, fields, ok := r.Next()
	if !ok {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, csverr.New(csverr.CodeEmptyFile, "side %s has no header row", side)
	}
	return fields, nil
}

func columnIndices(columns, keyColumns []string, side string) ([]int, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	idx := make([]int, len(keyColumns))
	for i, k := range keyColumns {
		p, ok := pos[k]
		if !ok {
			return nil, csverr.New(csverr.CodeMissingKeyColumn, "key column %q not present in side %s header", k, side)
		}
		idx[i] = p
	}
	return idx, nil
}

// baseDone is the number of input bytes already accounted for by sides
// streamed before this one, so Done accumulates across both inputs
// instead of resetting to each side's own byte count.
func streamSide(ctx context.Context, r *csvreader.Reader, side spill.Side, width int, keyIdx []int, partitionCount uint32, backend spill.Backend, bus *progress.Bus, baseDone, totalBytes uint64) error {
	rows := 0
	for {
		rowIndex, fields, ok := r.Next()
		if !ok {
			break
		}

		rows++
		if rows%cancelCheckInterval == 0 {
			if err := progress.CheckCancelled(ctx); err != nil {
				return err
			}
			bus.Report(progress.Update{Phase: progress.PhasePartitioning, Done: baseDone + r.BytesRead(), Total: totalBytes, Message: "partitioning " + side.String()}, false)
		}

		if len(fields) != width {
			return csverr.New(csverr.CodeRowWidthMismatch, "side %s row %d has %d fields, want %d", side, rowIndex, len(fields), width)
		}

		key := make([]string, len(keyIdx))
		for i, idx := range keyIdx {
			v := fields[idx]
			if v == "" {
				return csverr.New(csverr.CodeMissingKeyValue, "side %s row %d has an empty key value", side, rowIndex)
			}
			key[i] = v
		}

		partitionID := keyhash.PartitionOf(key, partitionCount)
		if err := backend.Append(ctx, side, partitionID, spill.Record{Key: key, RowIndex: rowIndex, Row: fields}); err != nil {
			return err
		}
	}
	if err := r.Err(); err != nil {
		return err
	}
	return nil
}
