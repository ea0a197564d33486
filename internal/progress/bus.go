// Package progress implements the engine's coarse phase-progress reporting
// and cooperative cancellation checks.
package progress

import (
	"context"
	"time"

	"github.com/csvdiff/csvdiff/internal/csverr"
)

// Phase is one of the engine's coarse execution phases, reported in order
// and never skipped when cancellation is absent.
type Phase string

const (
	PhasePrepare        Phase = "prepare"
	PhasePartitioning   Phase = "partitioning"
	PhaseDiffPartitions Phase = "diff_partitions"
	PhaseEmitEvents     Phase = "emit_events"
	PhaseDone           Phase = "done"
)

// Update is one progress observation.
type Update struct {
	Phase   Phase
	Done    uint64
	Total   uint64
	Message string
}

// minInterval bounds progress emission to at most ~8Hz per phase.
const minInterval = 125 * time.Millisecond

// Bus rate-limits progress reporting and is a no-op when disabled.
type Bus struct {
	enabled  bool
	emit     func(Update)
	lastSeen map[Phase]time.Time
}

// NewBus returns a Bus that calls emit for accepted updates when enabled is
// true. A nil emit makes Report a no-op regardless of enabled.
func NewBus(enabled bool, emit func(Update)) *Bus {
	return &Bus{enabled: enabled && emit != nil, emit: emit, lastSeen: map[Phase]time.Time{}}
}

// Report emits u, subject to rate limiting, unless force is set (phase
// boundaries and terminal updates must never be dropped).
func (b *Bus) Report(u Update, force bool) {
	if !b.enabled {
		return
	}
	now := time.Now()
	if !force {
		if last, ok := b.lastSeen[u.Phase]; ok && now.Sub(last) < minInterval {
			return
		}
	}
	b.lastSeen[u.Phase] = now
	b.emit(u)
}

// CheckCancelled polls ctx and, if it has been cancelled, returns a typed
// cancelled error.
func CheckCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return csverr.Wrap(csverr.CodeCancelled, err)
	}
	return nil
}
