// Command csvdiff runs the diff engine against two CSV files and writes
// the JSONL event stream to stdout. Summary and array output formats,
// and interactive flag help beyond pflag's default, are out of scope
// here; this binary is a thin wire-format emitter over the engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/csvdiff/csvdiff"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("csvdiff", pflag.ContinueOnError)
	mode := flags.String("mode", string(csvdiff.Positional), "comparison mode: keyed|positional")
	keyColumns := flags.StringSlice("key", nil, "key column name(s), required for mode=keyed")
	headerMode := flags.String("header-mode", string(csvdiff.HeaderStrict), "header comparison mode: strict|sorted")
	emitUnchanged := flags.Bool("emit-unchanged", false, "emit unchanged-row events")
	ignoreRowOrder := flags.Bool("ignore-row-order", false, "multiset comparison, valid only with mode=positional")
	partitionCount := flags.Uint32("partition-count", 64, "number of hash partitions for keyed mode")
	spillBackend := flags.String("spill-backend", string(csvdiff.SpillTempDir), "spill backend: tempdir|memory")
	emitProgress := flags.Bool("progress", false, "emit progress events")
	verbose := flags.BoolP("verbose", "v", false, "enable diagnostic logging on stderr")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return fmt.Errorf("usage: csvdiff [flags] <a.csv> <b.csv>")
	}
	pathA, pathB := flags.Arg(0), flags.Arg(1)

	var logger *zap.Logger
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	} else {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	cfg := csvdiff.Config{
		Mode:           csvdiff.Mode(*mode),
		KeyColumns:     *keyColumns,
		HeaderMode:     csvdiff.HeaderMode(*headerMode),
		EmitUnchanged:  *emitUnchanged,
		IgnoreRowOrder: *ignoreRowOrder,
		PartitionCount: *partitionCount,
		SpillBackend:   csvdiff.SpillBackendKind(*spillBackend),
		EmitProgress:   *emitProgress,
		Logger:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink := csvdiff.NewJSONLSink(os.Stdout)
	_, err := csvdiff.DiffPaths(ctx, pathA, pathB, cfg, sink)
	if err != nil {
		return fmt.Errorf("csvdiff: %s", strings.TrimSpace(err.Error()))
	}
	return nil
}
