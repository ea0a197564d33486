// Package csvdiff implements an out-of-core CSV diff engine: a streaming
// CSV reader, a deterministic hash partitioner, per-partition matchers,
// and a globally ordered event emitter, fused behind two entry points,
// DiffPaths and DiffBytes.
package csvdiff

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/csvreader"
	"github.com/csvdiff/csvdiff/internal/match"
	"github.com/csvdiff/csvdiff/internal/order"
	"github.com/csvdiff/csvdiff/internal/partition"
	"github.com/csvdiff/csvdiff/internal/progress"
	"github.com/csvdiff/csvdiff/internal/schema"
	"github.com/csvdiff/csvdiff/internal/spill"
	"go.uber.org/zap"
)

// state is the engine's run state, per spec.md §4.12. It exists for
// logging and for the one-terminal-call invariant; callers never observe
// it directly.
type state int

const (
	stateInit state = iota
	stateHeadersRead
	statePartitioning
	stateDiffPartitions
	stateEmitEvents
	stateDone
	stateAborted
	stateFailed
)

// DiffPaths compares the CSV files at pathA and pathB and streams the
// result to sink.
func DiffPaths(ctx context.Context, pathA, pathB string, cfg Config, sink Sink) (Stats, error) {
	fa, err := os.Open(pathA)
	if err != nil {
		return Stats{}, csverr.Wrap(csverr.CodeStorageError, err)
	}
	defer fa.Close()
	fb, err := os.Open(pathB)
	if err != nil {
		return Stats{}, csverr.Wrap(csverr.CodeStorageError, err)
	}
	defer fb.Close()

	var totalBytes uint64
	if sa, err := fa.Stat(); err == nil {
		if sb, err := fb.Stat(); err == nil {
			totalBytes = uint64(sa.Size()) + uint64(sb.Size())
		}
	}

	return diff(ctx, fa, fb, cfg, sink, totalBytes)
}

// DiffBytes compares two in-memory CSV buffers and streams the result to
// sink.
func DiffBytes(ctx context.Context, a, b []byte, cfg Config, sink Sink) (Stats, error) {
	return diff(ctx, bytes.NewReader(a), bytes.NewReader(b), cfg, sink, uint64(len(a)+len(b)))
}

func diff(ctx context.Context, srcA, srcB io.Reader, cfg Config, sink Sink, totalBytes uint64) (Stats, error) {
	st := stateInit
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		st = stateFailed
		log.Error("invalid configuration", zap.Error(err), zap.String("state", logState(st)))
		return Stats{}, err
	}

	gated := &schemaGateSink{Sink: sink}

	bus := progress.NewBus(cfg.EmitProgress, func(u progress.Update) {
		p := progressFromInternal(u)
		if cfg.OnProgress != nil {
			cfg.OnProgress(p)
		}
		if err := gated.Progress(p); err != nil {
			log.Warn("progress sink rejected update", zap.Error(err))
		}
	})
	bus.Report(progress.Update{Phase: progress.PhasePrepare, Message: "starting run"}, true)

	var (
		stats Stats
		err   error
	)
	switch {
	case cfg.Mode == Keyed:
		stats, err = diffKeyed(ctx, srcA, srcB, cfg, gated, bus, log, &st, totalBytes)
	case cfg.IgnoreRowOrder:
		stats, err = diffMultiset(ctx, srcA, srcB, cfg, gated, bus, log, &st)
	default:
		stats, err = diffPositional(ctx, srcA, srcB, cfg, gated, bus, log, &st)
	}

	if err != nil {
		if csverr.Is(err, csverr.CodeCancelled) {
			st = stateAborted
		} else {
			st = stateFailed
		}
		log.Error("run terminated", zap.Error(err), zap.String("state", logState(st)))
		return Stats{}, err
	}

	st = stateDone
	bus.Report(progress.Update{Phase: progress.PhaseDone, Done: 1, Total: 1}, true)
	if err := gated.Stats(stats); err != nil {
		return Stats{}, err
	}
	log.Info("run complete", zap.Uint64("compared", stats.RowsTotalCompared),
		zap.Uint64("added", stats.RowsAdded), zap.Uint64("removed", stats.RowsRemoved),
		zap.Uint64("changed", stats.RowsChanged), zap.Uint64("unchanged", stats.RowsUnchanged))
	return stats, nil
}

func logState(s state) string {
	switch s {
	case stateInit:
		return "init"
	case stateHeadersRead:
		return "headers_read"
	case statePartitioning:
		return "partitioning"
	case stateDiffPartitions:
		return "diff_partitions"
	case stateEmitEvents:
		return "emit_events"
	case stateDone:
		return "done"
	case stateAborted:
		return "aborted"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func diffKeyed(ctx context.Context, srcA, srcB io.Reader, cfg Config, sink Sink, bus *progress.Bus, log *zap.Logger, st *state, totalBytes uint64) (Stats, error) {
	var backend spill.Backend
	switch cfg.SpillBackend {
	case SpillMemory:
		backend = spill.NewMemoryBackend()
	default:
		backend = spill.NewTempDirBackend(cfg.SpillDir)
	}
	defer backend.Close()

	*st = statePartitioning
	partResult, err := partition.Run(ctx, srcA, srcB, backend, bus, totalBytes, partition.Options{
		KeyColumns:     cfg.KeyColumns,
		HeaderMode:     cfg.internalHeaderMode(),
		PartitionCount: cfg.PartitionCount,
	})
	if err != nil {
		return Stats{}, err
	}
	*st = stateHeadersRead
	if err := sink.Schema(partResult.ColumnsA, partResult.ColumnsB); err != nil {
		return Stats{}, err
	}

	spool, err := order.NewDiskSpool(cfg.SpillDir)
	if err != nil {
		return Stats{}, err
	}
	defer spool.Close()

	layout := match.NewColumnLayout(partResult.ColumnsA, partResult.ColumnsB, partResult.ComparisonColumns)

	*st = stateDiffPartitions
	sources := make([]order.Source, 0, cfg.PartitionCount)
	for p := uint32(0); p < cfg.PartitionCount; p++ {
		if err := progress.CheckCancelled(ctx); err != nil {
			return Stats{}, err
		}
		events, err := match.DiffPartition(ctx, backend, p, layout)
		if err != nil {
			return Stats{}, err
		}
		src, err := spool.Spill(p, events)
		if err != nil {
			return Stats{}, err
		}
		sources = append(sources, src)
		bus.Report(progress.Update{Phase: progress.PhaseDiffPartitions, Done: uint64(p + 1), Total: uint64(cfg.PartitionCount)}, false)
	}
	bus.Report(progress.Update{Phase: progress.PhaseDiffPartitions, Done: uint64(cfg.PartitionCount), Total: uint64(cfg.PartitionCount)}, true)

	*st = stateEmitEvents
	var stats Stats
	err = order.Merge(ctx, sources, func(e match.Event) error {
		return emit(cfg, sink, &stats, partResult.ColumnsA, partResult.ColumnsB, e)
	})
	if err != nil {
		return Stats{}, err
	}

	log.Debug("keyed diff complete", zap.Uint32("partitions", cfg.PartitionCount))
	return stats, nil
}

func diffPositional(ctx context.Context, srcA, srcB io.Reader, cfg Config, sink Sink, bus *progress.Bus, log *zap.Logger, st *state) (Stats, error) {
	readerA := csvreader.NewReader(srcA)
	readerB := csvreader.NewReader(srcB)

	columnsA, columnsB, comparisonColumns, err := readAndValidateHeaders(readerA, readerB, cfg)
	if err != nil {
		return Stats{}, err
	}
	*st = stateHeadersRead
	if err := sink.Schema(columnsA, columnsB); err != nil {
		return Stats{}, err
	}

	layout := match.NewColumnLayout(columnsA, columnsB, comparisonColumns)

	*st = stateDiffPartitions
	events, err := match.DiffPositional(ctx, readerA, readerB, layout, bus)
	if err != nil {
		return Stats{}, err
	}

	*st = stateEmitEvents
	var stats Stats
	for _, e := range events {
		if err := emit(cfg, sink, &stats, columnsA, columnsB, e); err != nil {
			return Stats{}, err
		}
	}

	log.Debug("positional diff complete")
	return stats, nil
}

func diffMultiset(ctx context.Context, srcA, srcB io.Reader, cfg Config, sink Sink, bus *progress.Bus, log *zap.Logger, st *state) (Stats, error) {
	readerA := csvreader.NewReader(srcA)
	readerB := csvreader.NewReader(srcB)

	columnsA, columnsB, comparisonColumns, err := readAndValidateHeaders(readerA, readerB, cfg)
	if err != nil {
		return Stats{}, err
	}
	*st = stateHeadersRead
	if err := sink.Schema(columnsA, columnsB); err != nil {
		return Stats{}, err
	}

	layout := match.NewColumnLayout(columnsA, columnsB, comparisonColumns)

	*st = stateDiffPartitions
	events, err := match.DiffMultiset(ctx, readerA, readerB, layout, bus)
	if err != nil {
		return Stats{}, err
	}

	*st = stateEmitEvents
	var stats Stats
	for _, e := range events {
		if err := emit(cfg, sink, &stats, columnsA, columnsB, e); err != nil {
			return Stats{}, err
		}
	}

	log.Debug("multiset diff complete")
	return stats, nil
}

func readAndValidateHeaders(readerA, readerB *csvreader.Reader, cfg Config) (columnsA, columnsB, comparisonColumns []string, err error) {
	_, columnsA, ok := readerA.Next()
	if !ok {
		if err := readerA.Err(); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, csverr.New(csverr.CodeEmptyFile, "side a has no header row")
	}
	_, columnsB, ok = readerB.Next()
	if !ok {
		if err := readerB.Err(); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, csverr.New(csverr.CodeEmptyFile, "side b has no header row")
	}

	res, err := schema.Validate(columnsA, columnsB, cfg.KeyColumns, cfg.internalHeaderMode())
	if err != nil {
		return nil, nil, nil, err
	}
	return columnsA, columnsB, res.ComparisonColumns, nil
}

// emit builds and delivers one wire event, folding it into stats.
func emit(cfg Config, sink Sink, stats *Stats, columnsA, columnsB []string, e match.Event) error {
	switch e.Kind {
	case match.Added:
		stats.RowsAdded++
	case match.Removed:
		stats.RowsRemoved++
	case match.Changed:
		stats.RowsChanged++
		stats.RowsTotalCompared++
	case match.Unchanged:
		stats.RowsUnchanged++
		stats.RowsTotalCompared++
	}

	if e.Kind == match.Unchanged && !cfg.EmitUnchanged {
		return nil
	}
	return sink.Event(wireEvent(cfg, columnsA, columnsB, e))
}

// schemaGateSink holds back Progress events reported before Schema has
// been sent, so the wire stream never puts a progress line ahead of the
// schema line even though the engine may start reporting progress (e.g.
// "reading headers") before the keyed path's schema becomes known.
type schemaGateSink struct {
	Sink
	schemaSent bool
	pending    []Progress
}

func (g *schemaGateSink) Schema(columnsA, columnsB []string) error {
	if err := g.Sink.Schema(columnsA, columnsB); err != nil {
		return err
	}
	g.schemaSent = true
	pending := g.pending
	g.pending = nil
	for _, p := range pending {
		if err := g.Sink.Progress(p); err != nil {
			return err
		}
	}
	return nil
}

func (g *schemaGateSink) Progress(p Progress) error {
	if !g.schemaSent {
		g.pending = append(g.pending, p)
		return nil
	}
	return g.Sink.Progress(p)
}
