package csvdiff

import (
	"github.com/csvdiff/csvdiff/internal/match"
	"github.com/csvdiff/csvdiff/internal/progress"
)

// Progress is one coarse phase-progress observation, forwarded to
// Config.OnProgress and encoded as a "progress" wire event.
type Progress struct {
	Phase   string
	Done    uint64
	Total   uint64
	Message string
}

func progressFromInternal(u progress.Update) Progress {
	return Progress{Phase: string(u.Phase), Done: u.Done, Total: u.Total, Message: u.Message}
}

// Stats summarizes one run's row counts. It is never emitted for a failed
// or cancelled run.
type Stats struct {
	RowsTotalCompared uint64
	RowsAdded         uint64
	RowsRemoved       uint64
	RowsChanged       uint64
	RowsUnchanged     uint64
}

func rowMap(columns, row []string) map[string]string {
	if columns == nil {
		return nil
	}
	m := make(map[string]string, len(row))
	for i, v := range row {
		if i < len(columns) {
			m[columns[i]] = v
		}
	}
	return m
}

func keyMap(keyColumns, key []string) map[string]string {
	if len(keyColumns) == 0 {
		return nil
	}
	m := make(map[string]string, len(keyColumns))
	for i, v := range key {
		if i < len(keyColumns) {
			m[keyColumns[i]] = v
		}
	}
	return m
}

// wireEvent builds the JSON-ready event object for e, keyed by the active
// mode: keyed events carry a key object, positional events carry
// row_index, multiset events carry neither.
func wireEvent(cfg Config, columnsA, columnsB []string, e match.Event) map[string]interface{} {
	obj := map[string]interface{}{"type": string(e.Kind)}

	switch {
	case cfg.Mode == Keyed:
		obj["key"] = keyMap(cfg.KeyColumns, e.Key)
	case cfg.Mode == Positional && !cfg.IgnoreRowOrder:
		if e.RowIndexB != 0 {
			obj["row_index"] = e.RowIndexB
		} else {
			obj["row_index"] = e.RowIndexA
		}
	}

	switch e.Kind {
	case match.Added:
		obj["row"] = rowMap(columnsB, e.RowB)
	case match.Removed:
		obj["row"] = rowMap(columnsA, e.RowA)
	case match.Unchanged:
		obj["row"] = rowMap(columnsA, e.RowA)
	case match.Changed:
		before := rowMap(columnsA, e.RowA)
		after := rowMap(columnsB, e.RowB)
		delta := make(map[string]interface{}, len(e.ChangedColumns))
		for _, col := range e.ChangedColumns {
			delta[col] = map[string]string{"from": before[col], "to": after[col]}
		}
		obj["changed"] = e.ChangedColumns
		obj["before"] = before
		obj["after"] = after
		obj["delta"] = delta
	}
	return obj
}

func schemaEvent(columnsA, columnsB []string) map[string]interface{} {
	return map[string]interface{}{"type": "schema", "columns_a": columnsA, "columns_b": columnsB}
}

func progressEvent(p Progress) map[string]interface{} {
	obj := map[string]interface{}{"type": "progress", "phase": p.Phase, "done": p.Done, "total": p.Total}
	if p.Message != "" {
		obj["message"] = p.Message
	}
	return obj
}

func statsEvent(s Stats) map[string]interface{} {
	return map[string]interface{}{
		"type":                "stats",
		"rows_total_compared": s.RowsTotalCompared,
		"rows_added":          s.RowsAdded,
		"rows_removed":        s.RowsRemoved,
		"rows_changed":        s.RowsChanged,
		"rows_unchanged":      s.RowsUnchanged,
	}
}
