// Package qscan provides quote-aware substring search and terminator
// tokenization helpers used to drive the CSV record splitter without
// disturbing stdlib encoding/csv's own newline handling inside quoted
// fields.
package qscan

import (
	"regexp"
	"strings"
)

// IndexNonQuoted returns the index of the first non-quoted occurrence of
// substr in s. An occurrence is "quoted" if it falls between a pair of
// double quotes.
func IndexNonQuoted(s, substr string) int {
	quoted := regexp.QuoteMeta(substr)

	re := regexp.MustCompile(quoted)
	matches := re.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return -1
	}

	reQuoted := regexp.MustCompile(`".*` + quoted + `.*"`)
	matchesQuoted := reQuoted.FindAllStringIndex(s, -1)
	if len(matchesQuoted) == 0 {
		return matches[0][0]
	}
	if len(matchesQuoted) == len(matches) {
		return -1
	}

	for i := range matchesQuoted {
		matchesQuoted[i][0]++
		matchesQuoted[i][1]--
	}

	for i := range matches {
		for q := range matchesQuoted {
			if matches[i][0] < matchesQuoted[q][0] && matches[i][1] < matchesQuoted[q][1] ||
				matches[i][0] > matchesQuoted[q][0] && matches[i][1] > matchesQuoted[q][1] {
				return matches[i][0]
			}
		}
	}

	return -1
}

const (
	tokenNL = "\x00LINEFEED\x00"
	tokenCR = "\x00CARRETURN\x00"
)

// TokenizeTerminators replaces newline and carriage-return bytes with
// placeholder tokens so stdlib encoding/csv's record-termination handling
// doesn't normalize or split on bytes that are only record terminators
// from the splitter's point of view (e.g. a bare terminator embedded
// inside a quoted field, already captured verbatim in the record token).
func TokenizeTerminators(s string) string {
	s = strings.Replace(s, "\n", tokenNL, -1)
	return strings.Replace(s, "\r", tokenCR, -1)
}

// ResetTerminatorTokens reverses TokenizeTerminators on each field of a
// parsed record.
func ResetTerminatorTokens(fields []string) []string {
	for i, f := range fields {
		f = strings.Replace(f, tokenNL, "\n", -1)
		fields[i] = strings.Replace(f, tokenCR, "\r", -1)
	}
	return fields
}

// IsExtraneousQuoteError reports whether err is csv.ErrQuote (an extraneous
// or missing closing quote in a quoted field).
func IsExtraneousQuoteError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "extraneous or missing \" in quoted-field")
}

// IsBareQuoteError reports whether err is csv.ErrBareQuote (a bare quote in
// a non-quoted field).
func IsBareQuoteError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "bare \" in non-quoted-field")
}
