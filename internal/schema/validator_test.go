package schema_test

import (
	"testing"

	"github.com/csvdiff/csvdiff/internal/csverr"
	"github.com/csvdiff/csvdiff/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Validate_StrictMatch(t *testing.T) {
	res, err := schema.Validate(
		[]string{"id", "name", "email"},
		[]string{"id", "name", "email"},
		[]string{"id"},
		schema.Strict,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "email"}, res.ComparisonColumns)
}

func Test_Validate_StrictRejectsReorderedHeader(t *testing.T) {
	_, err := schema.Validate(
		[]string{"id", "name", "email"},
		[]string{"name", "id", "email"},
		[]string{"id"},
		schema.Strict,
	)
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeHeaderMismatch))
}

func Test_Validate_SortedAcceptsReorderedHeaderAndSortsComparisonColumns(t *testing.T) {
	res, err := schema.Validate(
		[]string{"id", "name", "email"},
		[]string{"name", "id", "email"},
		[]string{"id"},
		schema.Sorted,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "id", "name"}, res.ComparisonColumns)
}

func Test_Validate_DuplicateColumnName(t *testing.T) {
	_, err := schema.Validate(
		[]string{"id", "id", "email"},
		[]string{"id", "name", "email"},
		[]string{"id"},
		schema.Strict,
	)
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeDuplicateColumnName))
}

func Test_Validate_MissingKeyColumn(t *testing.T) {
	_, err := schema.Validate(
		[]string{"id", "name"},
		[]string{"id", "name"},
		[]string{"uuid"},
		schema.Strict,
	)
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeMissingKeyColumn))
}

func Test_Validate_UnknownModeIsInvalidOptionCombination(t *testing.T) {
	_, err := schema.Validate(
		[]string{"id"},
		[]string{"id"},
		nil,
		schema.HeaderMode("bogus"),
	)
	require.Error(t, err)
	assert.True(t, csverr.Is(err, csverr.CodeInvalidOptionCombination))
}
