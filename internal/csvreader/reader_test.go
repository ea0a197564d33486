package csvreader_test

import (
	"strings"
	"testing"

	"github.com/csvdiff/csvdiff/internal/csvreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string) ([][]string, error) {
	t.Helper()
	r := csvreader.NewReader(strings.NewReader(input))
	var rows [][]string
	for {
		_, fields, ok := r.Next()
		if !ok {
			break
		}
		rows = append(rows, fields)
	}
	return rows, r.Err()
}

func Test_Reader_BasicRows(t *testing.T) {
	rows, err := readAll(t, "id,name\n1,Alice\n2,Bob\n")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name"},
		{"1", "Alice"},
		{"2", "Bob"},
	}, rows)
}

func Test_Reader_StripsBOMFromFirstFieldOnly(t *testing.T) {
	rows, err := readAll(t, "﻿id,name\n1,Alice\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
}

func Test_Reader_CRLFAndBareCR(t *testing.T) {
	rows, err := readAll(t, "id,name\r\n1,Alice\r\n2,Bob\r")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name"},
		{"1", "Alice"},
		{"2", "Bob"},
	}, rows)
}

func Test_Reader_QuotedEmbeddedNewline(t *testing.T) {
	rows, err := readAll(t, "id,note\n1,\"line one\nline two\"\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "line one\nline two"}, rows[1])
}

func Test_Reader_BlankSpacerSkipped(t *testing.T) {
	rows, err := readAll(t, "id,name\n1,Alice\n\n2,Bob\n")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name"},
		{"1", "Alice"},
		{"2", "Bob"},
	}, rows)
}

func Test_Reader_EmptyInputYieldsNoRows(t *testing.T) {
	rows, err := readAll(t, "")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func Test_Reader_MalformedQuotingIsFatal(t *testing.T) {
	r := csvreader.NewReader(strings.NewReader("id,name\n1,\"unterminated\n2,Bob\n"))
	_, _, ok := r.Next()
	assert.True(t, ok, "header row should still scan")
	_, _, ok = r.Next()
	assert.False(t, ok)
	var parseErr *csvreader.ParseError
	require.ErrorAs(t, r.Err(), &parseErr)
	assert.Equal(t, uint64(2), parseErr.RowIndex)
}

func Test_Reader_RowIndexIsOneBasedIncludingHeader(t *testing.T) {
	r := csvreader.NewReader(strings.NewReader("id,name\n1,Alice\n2,Bob\n"))
	idx, _, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx)
	idx, _, ok = r.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(2), idx)
}
