// Package schema validates CSV headers against each other and against a
// configured key column list, and derives the comparison column order
// used by the matchers.
package schema

import (
	"sort"

	"github.com/csvdiff/csvdiff/internal/csverr"
)

// HeaderMode selects how two headers are compared for equality.
type HeaderMode string

const (
	// Strict requires the two headers to be identical, in order.
	Strict HeaderMode = "strict"
	// Sorted requires the two headers to contain the same set of names,
	// order notwithstanding.
	Sorted HeaderMode = "sorted"
)

// Result is the outcome of a successful Validate call.
type Result struct {
	// ComparisonColumns is the ordered column list used for field
	// equality and for ordering "changed" column names: columns_a under
	// Strict, the lexicographically sorted name list under Sorted.
	ComparisonColumns []string
}

// Validate checks columnsA and columnsB for duplicate names, compares them
// according to mode, and confirms every key column is present in both
// headers.
func Validate(columnsA, columnsB, keyColumns []string, mode HeaderMode) (Result, error) {
	if dup, ok := firstDuplicate(columnsA); ok {
		return Result{}, csverr.New(csverr.CodeDuplicateColumnName, "column %q appears more than once in side A header", dup)
	}
	if dup, ok := firstDuplicate(columnsB); ok {
		return Result{}, csverr.New(csverr.CodeDuplicateColumnName, "column %q appears more than once in side B header", dup)
	}

	switch mode {
	case Strict:
		if !equalOrdered(columnsA, columnsB) {
			return Result{}, csverr.New(csverr.CodeHeaderMismatch, "headers differ under strict mode: a=%v b=%v", columnsA, columnsB)
		}
	case Sorted:
		if !equalSorted(columnsA, columnsB) {
			return Result{}, csverr.New(csverr.CodeHeaderMismatch, "headers differ under sorted mode: a=%v b=%v", columnsA, columnsB)
		}
	default:
		return Result{}, csverr.New(csverr.CodeInvalidOptionCombination, "unknown header mode %q", mode)
	}

	aSet := toSet(columnsA)
	bSet := toSet(columnsB)
	for _, k := range keyColumns {
		if _, ok := aSet[k]; !ok {
			return Result{}, csverr.New(csverr.CodeMissingKeyColumn, "key column %q not present in side A header", k)
		}
		if _, ok := bSet[k]; !ok {
			return Result{}, csverr.New(csverr.CodeMissingKeyColumn, "key column %q not present in side B header", k)
		}
	}

	comparisonColumns := make([]string, len(columnsA))
	copy(comparisonColumns, columnsA)
	if mode == Sorted {
		sort.Strings(comparisonColumns)
	}

	return Result{ComparisonColumns: comparisonColumns}, nil
}

func firstDuplicate(columns []string) (string, bool) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			return c, true
		}
		seen[c] = struct{}{}
	}
	return "", false
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	return equalOrdered(sa, sb)
}

func toSet(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}
