package spill

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/google/uuid"
)

// wireRecord is the on-disk JSONL shape for one spilled record, per the
// spill file layout: {key, row_index, row}.
type wireRecord struct {
	Key      []string `json:"key,omitempty"`
	RowIndex uint64   `json:"row_index"`
	Row      []string `json:"row"`
}

// TempDirBackend is a Backend that spills one newline-delimited JSON file
// per (side, partition) under a unique per-run temporary directory,
// removed entirely on Close.
type TempDirBackend struct {
	mu         sync.Mutex
	baseDir    string
	runDir     string
	partitions uint32
	writers    map[Side][]*bufio.Writer
	files      map[Side][]*os.File
}

// NewTempDirBackend returns a TempDirBackend that spills under baseDir (the
// OS default temp directory if baseDir is empty).
func NewTempDirBackend(baseDir string) *TempDirBackend {
	return &TempDirBackend{baseDir: baseDir}
}

// Open implements Backend.
func (b *TempDirBackend) Open(ctx context.Context, partitionCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	base := b.baseDir
	if base == "" {
		base = os.TempDir()
	}
	runDir := filepath.Join(base, "csvdiff-"+uuid.NewString())
	if err := os.MkdirAll(runDir, 0o700); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}

	b.runDir = runDir
	b.partitions = partitionCount
	b.writers = map[Side][]*bufio.Writer{
		SideA: make([]*bufio.Writer, partitionCount),
		SideB: make([]*bufio.Writer, partitionCount),
	}
	b.files = map[Side][]*os.File{
		SideA: make([]*os.File, partitionCount),
		SideB: make([]*os.File, partitionCount),
	}
	return nil
}

func (b *TempDirBackend) path(side Side, partitionID uint32) string {
	return filepath.Join(b.runDir, fmt.Sprintf("%s-%d.jsonl", side, partitionID))
}

func (b *TempDirBackend) writer(side Side, partitionID uint32) (*bufio.Writer, error) {
	if w := b.writers[side][partitionID]; w != nil {
		return w, nil
	}
	f, err := os.Create(b.path(side, partitionID))
	if err != nil {
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	w := bufio.NewWriter(f)
	b.files[side][partitionID] = f
	b.writers[side][partitionID] = w
	return w, nil
}

// Append implements Backend.
func (b *TempDirBackend) Append(ctx context.Context, side Side, partitionID uint32, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, err := b.writer(side, partitionID)
	if err != nil {
		return err
	}
	line, err := json.Marshal(wireRecord{Key: rec.Key, RowIndex: rec.RowIndex, Row: rec.Row})
	if err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	if _, err := w.Write(line); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	return nil
}

// Iterate implements Backend.
func (b *TempDirBackend) Iterate(ctx context.Context, side Side, partitionID uint32) (Iterator, error) {
	b.mu.Lock()
	if w := b.writers[side][partitionID]; w != nil {
		if err := w.Flush(); err != nil {
			b.mu.Unlock()
			return nil, csverr.Wrap(csverr.CodeStorageError, err)
		}
	}
	path := b.path(side, partitionID)
	b.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &emptyIterator{}, nil
		}
		return nil, csverr.Wrap(csverr.CodeStorageError, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &tempDirIterator{file: f, scanner: scanner}, nil
}

// Close implements Backend.
func (b *TempDirBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, side := range []Side{SideA, SideB} {
		for _, f := range b.files[side] {
			if f != nil {
				f.Close()
			}
		}
	}
	if b.runDir != "" {
		if err := os.RemoveAll(b.runDir); err != nil {
			return csverr.Wrap(csverr.CodeStorageError, err)
		}
	}
	return nil
}

type tempDirIterator struct {
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

func (it *tempDirIterator) Next() (Record, bool) {
	if !it.scanner.Scan() {
		it.err = it.scanner.Err()
		return Record{}, false
	}
	var wr wireRecord
	if err := json.Unmarshal(it.scanner.Bytes(), &wr); err != nil {
		it.err = csverr.Wrap(csverr.CodeStorageError, err)
		return Record{}, false
	}
	return Record{Key: wr.Key, RowIndex: wr.RowIndex, Row: wr.Row}, true
}

func (it *tempDirIterator) Err() error   { return it.err }
func (it *tempDirIterator) Close() error { return it.file.Close() }

type emptyIterator struct{}

func (emptyIterator) Next() (Record, bool) { return Record{}, false }
func (emptyIterator) Err() error           { return nil }
func (emptyIterator) Close() error         { return nil }
