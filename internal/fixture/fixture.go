// Package fixture loads and runs the on-disk scenario fixtures described
// by spec.md's fixture contract: a directory holding config.json, a.csv,
// b.csv, and either expected.jsonl or expected_error.json.
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/csvdiff/csvdiff"
)

// rawConfig mirrors config.json's on-disk shape.
type rawConfig struct {
	Mode           string   `json:"mode"`
	KeyColumns     []string `json:"key_columns"`
	HeaderMode     string   `json:"header_mode"`
	EmitUnchanged  bool     `json:"emit_unchanged"`
	IgnoreRowOrder bool     `json:"ignore_row_order"`
	PartitionCount uint32   `json:"partition_count"`
	SpillBackend   string   `json:"spill_backend"`
}

// ExpectedError is expected.json's on-disk shape for a fixture that must
// fail.
type ExpectedError struct {
	Code            string `json:"code"`
	MessageContains string `json:"message_contains"`
}

// Case is one loaded fixture directory.
type Case struct {
	Dir    string
	Config csvdiff.Config
	A, B   []byte

	// Exactly one of ExpectedLines or ExpectedErr is populated.
	ExpectedLines []map[string]interface{}
	ExpectedErr   *ExpectedError
}

// Load reads dir's config.json, a.csv, b.csv, and whichever expectation
// file is present.
func Load(dir string) (*Case, error) {
	rawCfg, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("reading config.json: %w", err)
	}
	var rc rawConfig
	if err := json.Unmarshal(rawCfg, &rc); err != nil {
		return nil, fmt.Errorf("parsing config.json: %w", err)
	}

	a, err := os.ReadFile(filepath.Join(dir, "a.csv"))
	if err != nil {
		return nil, fmt.Errorf("reading a.csv: %w", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "b.csv"))
	if err != nil {
		return nil, fmt.Errorf("reading b.csv: %w", err)
	}

	cfg := csvdiff.DefaultConfig()
	if rc.Mode != "" {
		cfg.Mode = csvdiff.Mode(rc.Mode)
	}
	cfg.KeyColumns = rc.KeyColumns
	if rc.HeaderMode != "" {
		cfg.HeaderMode = csvdiff.HeaderMode(rc.HeaderMode)
	}
	cfg.EmitUnchanged = rc.EmitUnchanged
	cfg.IgnoreRowOrder = rc.IgnoreRowOrder
	if rc.PartitionCount != 0 {
		cfg.PartitionCount = rc.PartitionCount
	}
	if rc.SpillBackend != "" {
		cfg.SpillBackend = csvdiff.SpillBackendKind(rc.SpillBackend)
	}

	c := &Case{Dir: dir, Config: cfg, A: a, B: b}

	if data, err := os.ReadFile(filepath.Join(dir, "expected.jsonl")); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if line == "" {
				continue
			}
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				return nil, fmt.Errorf("parsing expected.jsonl line %q: %w", line, err)
			}
			c.ExpectedLines = append(c.ExpectedLines, obj)
		}
		return c, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, "expected_error.json"))
	if err != nil {
		return nil, fmt.Errorf("fixture %s has neither expected.jsonl nor expected_error.json", dir)
	}
	var expErr ExpectedError
	if err := json.Unmarshal(data, &expErr); err != nil {
		return nil, fmt.Errorf("parsing expected_error.json: %w", err)
	}
	c.ExpectedErr = &expErr
	return c, nil
}

// memorySink collects events without formatting them as JSON, so a
// fixture's actual output can be compared structurally against
// ExpectedLines.
type memorySink struct {
	lines []map[string]interface{}
}

func (s *memorySink) Schema(columnsA, columnsB []string) error {
	s.lines = append(s.lines, map[string]interface{}{"type": "schema", "columns_a": toIface(columnsA), "columns_b": toIface(columnsB)})
	return nil
}

func (s *memorySink) Event(e map[string]interface{}) error {
	s.lines = append(s.lines, e)
	return nil
}

func (s *memorySink) Progress(p csvdiff.Progress) error {
	return nil
}

func (s *memorySink) Stats(st csvdiff.Stats) error {
	s.lines = append(s.lines, map[string]interface{}{
		"type":                "stats",
		"rows_total_compared": st.RowsTotalCompared,
		"rows_added":          st.RowsAdded,
		"rows_removed":        st.RowsRemoved,
		"rows_changed":        st.RowsChanged,
		"rows_unchanged":      st.RowsUnchanged,
	})
	return nil
}

func toIface(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Run executes the fixture through DiffBytes and returns the collected
// events and the run's terminal error, if any.
func (c *Case) Run(ctx context.Context) ([]map[string]interface{}, error) {
	sink := &memorySink{}
	_, err := csvdiff.DiffBytes(ctx, c.A, c.B, c.Config, sink)
	return sink.lines, err
}

// Normalize round-trips lines through JSON marshal/unmarshal so numeric
// types (uint64 vs float64) line up with values parsed out of
// expected.jsonl before comparison.
func Normalize(lines []map[string]interface{}) ([]map[string]interface{}, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, l := range lines {
		if err := enc.Encode(l); err != nil {
			return nil, err
		}
	}
	dec := json.NewDecoder(&buf)
	var out []map[string]interface{}
	for {
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err != nil {
			break
		}
		out = append(out, obj)
	}
	return out, nil
}
