package spill

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend, holding every partition's
// records in memory. It is the default for small inputs and for tests.
type MemoryBackend struct {
	mu         sync.Mutex
	partitions uint32
	data       map[Side][][]Record
}

// NewMemoryBackend returns an unopened MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Open implements Backend.
func (m *MemoryBackend) Open(ctx context.Context, partitionCount uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitions = partitionCount
	m.data = map[Side][][]Record{
		SideA: make([][]Record, partitionCount),
		SideB: make([][]Record, partitionCount),
	}
	return nil
}

// Append implements Backend.
func (m *MemoryBackend) Append(ctx context.Context, side Side, partitionID uint32, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[side][partitionID] = append(m.data[side][partitionID], rec)
	return nil
}

// Iterate implements Backend.
func (m *MemoryBackend) Iterate(ctx context.Context, side Side, partitionID uint32) (Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.data[side][partitionID]
	return &memoryIterator{records: records}, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

type memoryIterator struct {
	records []Record
	pos     int
}

func (it *memoryIterator) Next() (Record, bool) {
	if it.pos >= len(it.records) {
		return Record{}, false
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, true
}

func (it *memoryIterator) Err() error   { return nil }
func (it *memoryIterator) Close() error { return nil }
