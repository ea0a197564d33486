package linesplit_test

import (
	"bufio"
	"testing"

	"github.com/csvdiff/csvdiff/internal/csvreader/linesplit"
	"github.com/stretchr/testify/assert"
)

func Test_Split(t *testing.T) {
	tests := []struct {
		name                 string
		data                 []byte
		atEOF                bool
		expAdvance           int
		expToken             []byte
		expErr               error
		expCurrentTerminator string
	}{
		{
			name:                 "no data",
			data:                 nil,
			atEOF:                true,
			expAdvance:           0,
			expToken:             nil,
			expErr:               bufio.ErrFinalToken,
			expCurrentTerminator: "",
		},
		{
			name:                 "no terminator and not EOF",
			data:                 []byte("a,b,c"),
			atEOF:                false,
			expAdvance:           0,
			expToken:             nil,
			expErr:               nil,
			expCurrentTerminator: "",
		},
		{
			name:                 "no terminator, at EOF",
			data:                 []byte("a,b,c"),
			atEOF:                true,
			expAdvance:           0,
			expToken:             []byte("a,b,c"),
			expErr:               bufio.ErrFinalToken,
			expCurrentTerminator: "",
		},
		{
			name:                 "unix",
			data:                 []byte("a,b,c\nd,e,f"),
			atEOF:                false,
			expAdvance:           6,
			expToken:             []byte("a,b,c\n"),
			expErr:               nil,
			expCurrentTerminator: "\n",
		},
		{
			name:                 "dos",
			data:                 []byte("a,b,c\r\nd,e,f"),
			atEOF:                false,
			expAdvance:           7,
			expToken:             []byte("a,b,c\r\n"),
			expErr:               nil,
			expCurrentTerminator: "\r\n",
		},
		{
			name:                 "carriage return",
			data:                 []byte("a,b,c\rd,e,f"),
			atEOF:                false,
			expAdvance:           6,
			expToken:             []byte("a,b,c\r"),
			expErr:               nil,
			expCurrentTerminator: "\r",
		},
		{
			name:                 "inverted dos",
			data:                 []byte("a,b,c\n\rd,e,f"),
			atEOF:                false,
			expAdvance:           7,
			expToken:             []byte("a,b,c\n\r"),
			expErr:               nil,
			expCurrentTerminator: "\n\r",
		},
		{
			name:                 "quoted newline is not a terminator",
			data:                 []byte("\"a\nb\",c\nd,e"),
			atEOF:                false,
			expAdvance:           8,
			expToken:             []byte("\"a\nb\",c\n"),
			expErr:               nil,
			expCurrentTerminator: "\n",
		},
		{
			name:                 "partial dos terminator closing search space",
			data:                 []byte("a,b,c\r"),
			atEOF:                false,
			expAdvance:           0,
			expToken:             nil,
			expErr:               nil,
			expCurrentTerminator: "",
		},
	}

	for _, test := range tests {
		testFn := func(t *testing.T) {
			splitter := new(linesplit.Splitter)
			actAdvance, actToken, actErr := splitter.Split(test.data, test.atEOF)
			assert.Equal(t, test.expAdvance, actAdvance, "advance")
			assert.Equal(t, test.expToken, actToken, "token")
			assert.Equal(t, test.expErr, actErr, "err")
			assert.Equal(t, test.expCurrentTerminator, splitter.CurrentTerminator(), "terminator")
		}
		t.Run(test.name, testFn)
	}
}
