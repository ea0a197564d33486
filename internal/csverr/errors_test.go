package csverr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/stretchr/testify/assert"
)

func Test_New_CarriesCodeAndFormattedMessage(t *testing.T) {
	err := csverr.New(csverr.CodeMissingKeyValue, "row %d has an empty key value", 7)
	assert.True(t, csverr.Is(err, csverr.CodeMissingKeyValue))
	assert.Contains(t, err.Error(), "row 7 has an empty key value")
}

func Test_Wrap_PreservesUnderlyingMessage(t *testing.T) {
	underlying := errors.New("unexpected EOF")
	err := csverr.Wrap(csverr.CodeCSVParseError, underlying)
	assert.True(t, csverr.Is(err, csverr.CodeCSVParseError))
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func Test_Is_FalseForDifferentCode(t *testing.T) {
	err := csverr.New(csverr.CodeDuplicateKey, "key %v seen twice", []string{"1"})
	assert.False(t, csverr.Is(err, csverr.CodeCancelled))
}

func Test_Is_FalseForUnrelatedError(t *testing.T) {
	assert.False(t, csverr.Is(fmt.Errorf("plain error"), csverr.CodeStorageError))
}

func Test_Error_UnwrapsViaErrorsAs(t *testing.T) {
	err := fmt.Errorf("diffing side b: %w", csverr.New(csverr.CodeRowWidthMismatch, "row 3 has 2 fields, want 3"))
	assert.True(t, csverr.Is(err, csverr.CodeRowWidthMismatch))
}
