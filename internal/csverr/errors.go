// Package csverr implements the fatal error taxonomy of the diff engine:
// a stable machine Code plus a human-readable Message, wrapping
// github.com/zeebo/errs classes the way the rest of the example pack wraps
// its own domain errors.
package csverr

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs"
)

// Code is a stable, machine-readable error identifier.
type Code string

// The fatal error codes of the engine's error envelope.
const (
	CodeDuplicateColumnName      Code = "duplicate_column_name"
	CodeHeaderMismatch           Code = "header_mismatch"
	CodeMissingKeyColumn         Code = "missing_key_column"
	CodeMissingKeyValue          Code = "missing_key_value"
	CodeDuplicateKey             Code = "duplicate_key"
	CodeRowWidthMismatch         Code = "row_width_mismatch"
	CodeCSVParseError            Code = "csv_parse_error"
	CodeEmptyFile                Code = "empty_file"
	CodeInvalidOptionCombination Code = "invalid_option_combination"
	CodeStorageError             Code = "storage_error"
	CodeCancelled                Code = "cancelled"
	CodeCompareFailed            Code = "compare_failed"
)

var classes = map[Code]errs.Class{
	CodeDuplicateColumnName:      errs.Class(CodeDuplicateColumnName),
	CodeHeaderMismatch:           errs.Class(CodeHeaderMismatch),
	CodeMissingKeyColumn:         errs.Class(CodeMissingKeyColumn),
	CodeMissingKeyValue:          errs.Class(CodeMissingKeyValue),
	CodeDuplicateKey:             errs.Class(CodeDuplicateKey),
	CodeRowWidthMismatch:         errs.Class(CodeRowWidthMismatch),
	CodeCSVParseError:            errs.Class(CodeCSVParseError),
	CodeEmptyFile:                errs.Class(CodeEmptyFile),
	CodeInvalidOptionCombination: errs.Class(CodeInvalidOptionCombination),
	CodeStorageError:             errs.Class(CodeStorageError),
	CodeCancelled:                errs.Class(CodeCancelled),
	CodeCompareFailed:            errs.Class(CodeCompareFailed),
}

// Error is the fatal error envelope: {code, message}.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a classed, formatted Error for code.
func New(code Code, format string, args ...interface{}) *Error {
	class, ok := classes[code]
	if !ok {
		class = errs.Class(code)
	}
	wrapped := class.New(format, args...)
	return &Error{Code: code, Message: wrapped.Error()}
}

// Wrap wraps an existing error under code, preserving its message.
func Wrap(code Code, err error) *Error {
	class, ok := classes[code]
	if !ok {
		class = errs.Class(code)
	}
	wrapped := class.Wrap(err)
	return &Error{Code: code, Message: wrapped.Error()}
}

// Is reports whether err is a *Error carrying code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
