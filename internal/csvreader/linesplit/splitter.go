// Package linesplit provides a quote-aware bufio.SplitFunc for CSV records.
package linesplit

import (
	"bufio"

	"github.com/csvdiff/csvdiff/internal/csvreader/qscan"
)

// Splitter splits a byte stream into CSV records on unix (\n), DOS (\r\n),
// inverted DOS (\n\r), or bare carriage return (\r) terminators, ignoring any
// terminator bytes that fall within a quoted field.
type Splitter struct {
	currentTerminator string
}

// CurrentTerminator returns the terminator most recently identified by the
// splitter.
func (l *Splitter) CurrentTerminator() string {
	return l.currentTerminator
}

// Split implements bufio.SplitFunc.
func (l *Splitter) Split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	const (
		nl     = "\n"
		cr     = "\r"
		dos    = "\r\n"
		invdos = "\n\r"
	)
	str := string(data)
	dosIndex := qscan.IndexNonQuoted(str, dos)
	invertedDOSIndex := qscan.IndexNonQuoted(str, invdos)
	newlineIndex := qscan.IndexNonQuoted(str, nl)
	carriageReturnIndex := qscan.IndexNonQuoted(str, cr)

	nearestTerminator := -1

	if invertedDOSIndex != -1 &&
		newlineIndex == invertedDOSIndex &&
		carriageReturnIndex > newlineIndex {
		nearestTerminator = invertedDOSIndex
	}

	if dosIndex != -1 &&
		carriageReturnIndex == dosIndex &&
		newlineIndex > carriageReturnIndex {
		if nearestTerminator == -1 || dosIndex < nearestTerminator {
			nearestTerminator = dosIndex
		}
	}

	if nearestTerminator != -1 {
		advance = nearestTerminator + 2
		token = data[:advance]
		l.currentTerminator = string(token[advance-2:])
		return advance, token, nil
	}

	if newlineIndex != -1 {
		nearestTerminator = newlineIndex
	}

	if carriageReturnIndex != -1 {
		if nearestTerminator == -1 || carriageReturnIndex < nearestTerminator {
			nearestTerminator = carriageReturnIndex
		}
	}

	if nearestTerminator != -1 {
		// A single-byte terminator sitting at the very end of the current
		// search space is ambiguous: the next byte (not yet read) could
		// turn it into a DOS or inverted-DOS pair. Ask for more data
		// rather than committing to a short match.
		if nearestTerminator == len(data)-1 && !atEOF {
			return 0, nil, nil
		}
		advance = nearestTerminator + 1
		token = data[:advance]
		l.currentTerminator = string(token[advance-1:])
		return advance, token, nil
	}

	if !atEOF {
		return 0, nil, nil
	}

	l.currentTerminator = ""
	token = data
	err = bufio.ErrFinalToken
	return 0, token, err
}
