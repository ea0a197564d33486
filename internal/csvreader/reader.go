// Package csvreader provides a streaming, RFC 4180 CSV row iterator with
// BOM stripping, CRLF/LF/quote-aware line splitting, and blank-spacer
// skipping.
package csvreader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/csvdiff/csvdiff/internal/csvreader/linesplit"
	"github.com/csvdiff/csvdiff/internal/csvreader/qscan"
)

// bom is the UTF-8 encoding of U+FEFF.
const bom = "﻿"

// ParseError is returned when a record cannot be parsed as CSV. RowIndex is
// the 1-based row that was being scanned when the error occurred.
type ParseError struct {
	RowIndex uint64
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv parse error at row %d: %v", e.RowIndex, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader is a lazy, finite, non-restartable CSV row iterator. Each call to
// Next advances to the next data row (blank spacer lines are skipped and do
// not consume a row index).
type Reader struct {
	scanner    *bufio.Scanner
	splitter   *linesplit.Splitter
	rowIndex   uint64
	bytesRead  uint64
	bomStrip   bool
	done       bool
	lastErr    error
}

// NewReader returns a Reader over r. The leading BOM, if present, is
// stripped from the first field of the first row.
func NewReader(r io.Reader) *Reader {
	splitter := new(linesplit.Splitter)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	scanner.Split(splitter.Split)
	return &Reader{
		scanner:  scanner,
		splitter: splitter,
		bomStrip: true,
	}
}

// BytesRead returns the number of input bytes consumed so far, including
// terminators. It is monotonically increasing and drives Progress.done for
// the partitioning phase.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}

// Next advances to the next data row. It returns false at EOF or once a
// fatal error has been recorded; call Err to distinguish the two.
func (r *Reader) Next() (rowIndex uint64, fields []string, ok bool) {
	for {
		if r.done {
			return 0, nil, false
		}
		more := r.scanner.Scan()
		if !more {
			r.done = true
			if err := r.scanner.Err(); err != nil {
				r.lastErr = err
			}
			return 0, nil, false
		}

		raw := r.scanner.Text()
		term := r.splitter.CurrentTerminator()
		trimmed := strings.TrimSuffix(raw, term)
		r.bytesRead += uint64(len(raw))

		if trimmed == "" {
			// A wholly empty line is a spacer: skipped, does not advance
			// the data row count.
			continue
		}

		r.rowIndex++
		rec, err := parseRecord(trimmed)
		if err != nil {
			r.done = true
			r.lastErr = &ParseError{RowIndex: r.rowIndex, Err: err}
			return 0, nil, false
		}

		if r.bomStrip {
			r.bomStrip = false
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], bom)
			}
		}

		return r.rowIndex, rec, true
	}
}

// Err returns the fatal error, if any, that caused Next to return false.
// Reaching a clean EOF returns nil.
func (r *Reader) Err() error {
	return r.lastErr
}

// parseRecord parses a single already-isolated CSV record (one logical
// record, including any embedded newlines captured verbatim inside quoted
// fields) using the stdlib csv field-splitting rules.
func parseRecord(raw string) ([]string, error) {
	tokenized := qscan.TokenizeTerminators(raw)
	cr := csv.NewReader(strings.NewReader(tokenized))
	cr.FieldsPerRecord = -1
	fields, err := cr.Read()
	if err != nil {
		return nil, err
	}
	return qscan.ResetTerminatorTokens(fields), nil
}
