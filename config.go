package csvdiff

import (
	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/schema"
	"go.uber.org/zap"
)

// Mode selects how rows are matched between the two inputs.
type Mode string

const (
	Keyed      Mode = "keyed"
	Positional Mode = "positional"
)

// HeaderMode selects how the two headers are compared for equality.
type HeaderMode string

const (
	HeaderStrict HeaderMode = "strict"
	HeaderSorted HeaderMode = "sorted"
)

// SpillBackendKind selects the storage implementation records are routed
// through between the partitioning and matching passes.
type SpillBackendKind string

const (
	SpillTempDir   SpillBackendKind = "tempdir"
	SpillMemory    SpillBackendKind = "memory"
	SpillIndexedDB SpillBackendKind = "indexeddb"
)

// Config is the engine's single immutable set of run options.
type Config struct {
	Mode Mode

	// KeyColumns is required, non-empty, when Mode is Keyed.
	KeyColumns []string

	HeaderMode HeaderMode

	// EmitUnchanged controls whether matched-and-equal rows produce an
	// Unchanged event; they are always counted in Stats regardless.
	EmitUnchanged bool

	// IgnoreRowOrder selects multiset matching; valid only with
	// Mode == Positional.
	IgnoreRowOrder bool

	// PartitionCount bounds matcher memory in Keyed mode. 1 disables
	// external partitioning (a single partition holds everything).
	PartitionCount uint32

	SpillBackend SpillBackendKind

	// SpillDir is the base directory tempdir spill scratch files are
	// created under. Empty uses the OS default temp directory.
	SpillDir string

	EmitProgress bool

	// OnProgress receives Progress updates when EmitProgress is true. It
	// is never called when EmitProgress is false.
	OnProgress func(Progress)

	// Logger receives structured diagnostic logs for the run. A nil
	// Logger runs silently.
	Logger *zap.Logger
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		Mode:           Positional,
		HeaderMode:     HeaderStrict,
		PartitionCount: 64,
		SpillBackend:   SpillTempDir,
	}
}

// Validate checks cfg for internal consistency, returning
// invalid_option_combination on the first violation found.
func (cfg Config) Validate() error {
	switch cfg.Mode {
	case Keyed:
		if len(cfg.KeyColumns) == 0 {
			return csverr.New(csverr.CodeInvalidOptionCombination, "mode=keyed requires a non-empty key_columns list")
		}
		if cfg.IgnoreRowOrder {
			return csverr.New(csverr.CodeInvalidOptionCombination, "ignore_row_order is only valid with mode=positional")
		}
	case Positional:
		if len(cfg.KeyColumns) != 0 {
			return csverr.New(csverr.CodeInvalidOptionCombination, "key_columns is only valid with mode=keyed")
		}
	default:
		return csverr.New(csverr.CodeInvalidOptionCombination, "unknown mode %q", cfg.Mode)
	}

	switch cfg.HeaderMode {
	case HeaderStrict, HeaderSorted:
	default:
		return csverr.New(csverr.CodeInvalidOptionCombination, "unknown header_mode %q", cfg.HeaderMode)
	}

	switch cfg.SpillBackend {
	case SpillTempDir, SpillMemory:
	case SpillIndexedDB:
		return csverr.New(csverr.CodeInvalidOptionCombination, "spill_backend=indexeddb requires a browser runtime")
	default:
		return csverr.New(csverr.CodeInvalidOptionCombination, "unknown spill_backend %q", cfg.SpillBackend)
	}

	if cfg.PartitionCount == 0 {
		return csverr.New(csverr.CodeInvalidOptionCombination, "partition_count must be >= 1")
	}

	return nil
}

func (cfg Config) internalHeaderMode() schema.HeaderMode {
	if cfg.HeaderMode == HeaderSorted {
		return schema.Sorted
	}
	return schema.Strict
}
