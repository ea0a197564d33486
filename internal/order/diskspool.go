package order

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/match"
	"github.com/google/uuid"
)

// wireEvent is the on-disk JSONL shape a DiskSpool writes and reads back;
// it is an internal scratch format, distinct from the engine's public
// event wire format.
type wireEvent struct {
	Kind           string   `json:"kind"`
	Key            []string `json:"key,omitempty"`
	RowIndexA      uint64   `json:"row_index_a,omitempty"`
	RowIndexB      uint64   `json:"row_index_b,omitempty"`
	RowA           []string `json:"row_a,omitempty"`
	RowB           []string `json:"row_b,omitempty"`
	ChangedColumns []string `json:"changed_columns,omitempty"`
}

// DiskSpool externalizes one partition's sorted event batch to a scratch
// file and hands back a Source that reads it lazily, so the k-way merge
// over many partitions holds at most one buffered record per partition
// instead of every partition's full event batch at once.
type DiskSpool struct {
	dir string
}

// NewDiskSpool creates a fresh scratch directory under baseDir (the OS
// default temp directory if baseDir is empty).
func NewDiskSpool(baseDir string) (*DiskSpool, error) {
	base := baseDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "csvdiff-order-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	return &DiskSpool{dir: dir}, nil
}

// Spill writes events for partitionID to a scratch file and returns a
// Source reading it back. The caller's events slice can be released
// immediately after Spill returns.
func (s *DiskSpool) Spill(partitionID uint32, events []match.Event) (Source, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("partition-%d.jsonl", partitionID))
	f, err := os.Create(path)
	if err != nil {
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	w := bufio.NewWriter(f)
	for _, e := range events {
		line, err := json.Marshal(wireEvent{
			Kind:           string(e.Kind),
			Key:            e.Key,
			RowIndexA:      e.RowIndexA,
			RowIndexB:      e.RowIndexB,
			RowA:           e.RowA,
			RowB:           e.RowB,
			ChangedColumns: e.ChangedColumns,
		})
		if err != nil {
			f.Close()
			return nil, csverr.Wrap(csverr.CodeStorageError, err)
		}
		if _, err := w.Write(line); err != nil {
			f.Close()
			return nil, csverr.Wrap(csverr.CodeStorageError, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return nil, csverr.Wrap(csverr.CodeStorageError, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	if err := f.Close(); err != nil {
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}

	rf, err := os.Open(path)
	if err != nil {
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	scanner := bufio.NewScanner(rf)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &fileSource{file: rf, scanner: scanner}, nil
}

// Close removes the scratch directory and every file spilled into it.
func (s *DiskSpool) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	return nil
}

type fileSource struct {
	file    *os.File
	scanner *bufio.Scanner
}

func (s *fileSource) Next() (match.Event, bool, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return match.Event{}, false, csverr.Wrap(csverr.CodeStorageError, err)
		}
		s.file.Close()
		return match.Event{}, false, nil
	}
	var we wireEvent
	if err := json.Unmarshal(s.scanner.Bytes(), &we); err != nil {
		return match.Event{}, false, csverr.Wrap(csverr.CodeStorageError, err)
	}
	return match.Event{
		Kind:           match.Kind(we.Kind),
		Key:            we.Key,
		RowIndexA:      we.RowIndexA,
		RowIndexB:      we.RowIndexB,
		RowA:           we.RowA,
		RowB:           we.RowB,
		ChangedColumns: we.ChangedColumns,
	}, true, nil
}
