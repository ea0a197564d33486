// Package order implements the global Event Orderer: a k-way merge that
// turns N independently key-sorted per-partition event streams into one
// globally key-ordered stream, holding at most one buffered record per
// partition at a time.
package order

import (
	"container/heap"
	"context"

	"github.com/csvdiff/csvdiff/internal/match"
	"github.com/csvdiff/csvdiff/internal/progress"
)

// Source yields one partition's events in ascending key order.
type Source interface {
	Next() (match.Event, bool, error)
}

// SliceSource adapts an already key-sorted slice (as produced by
// match.DiffPartition) to Source.
type SliceSource struct {
	events []match.Event
	pos    int
}

// NewSliceSource returns a Source over events, which must already be
// sorted by key.
func NewSliceSource(events []match.Event) *SliceSource {
	return &SliceSource{events: events}
}

func (s *SliceSource) Next() (match.Event, bool, error) {
	if s.pos >= len(s.events) {
		return match.Event{}, false, nil
	}
	e := s.events[s.pos]
	s.pos++
	return e, true, nil
}

// heapItem is one partition's current lookahead record.
type heapItem struct {
	event       match.Event
	sourceIndex int
}

type itemHeap []heapItem

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	return match.CompareKeys(h[i].event.Key, h[j].event.Key) < 0
}
func (h itemHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(heapItem))
}
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Merge drains sources in global key order, calling emit once per event.
// It holds exactly one record per still-active source at a time. emit
// errors and ctx cancellation both abort the merge immediately.
func Merge(ctx context.Context, sources []Source, emit func(match.Event) error) error {
	h := make(itemHeap, 0, len(sources))
	for i, s := range sources {
		e, ok, err := s.Next()
		if err != nil {
			return err
		}
		if ok {
			heap.Push(&h, heapItem{event: e, sourceIndex: i})
		}
	}
	heap.Init(&h)

	emitted := 0
	for h.Len() > 0 {
		if emitted%512 == 0 {
			if err := progress.CheckCancelled(ctx); err != nil {
				return err
			}
		}
		top := heap.Pop(&h).(heapItem)
		if err := emit(top.event); err != nil {
			return err
		}
		emitted++

		next, ok, err := sources[top.sourceIndex].Next()
		if err != nil {
			return err
		}
		if ok {
			heap.Push(&h, heapItem{event: next, sourceIndex: top.sourceIndex})
		}
	}
	return nil
}
