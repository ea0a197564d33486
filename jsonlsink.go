package csvdiff

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/csvdiff/csvdiff/internal/csverr"
)

// JSONLSink writes the wire format of §6 to w: one JSON object per line,
// flushed after every event so a streaming consumer sees rows as they are
// produced.
type JSONLSink struct {
	w *bufio.Writer
}

// NewJSONLSink wraps w. Callers needing explicit flush control may pass an
// *os.File or any io.Writer that is safe to write to incrementally.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: bufio.NewWriter(w)}
}

func (s *JSONLSink) writeLine(obj map[string]interface{}) error {
	line, err := json.Marshal(obj)
	if err != nil {
		return csverr.Wrap(csverr.CodeCompareFailed, err)
	}
	if _, err := s.w.Write(line); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return csverr.Wrap(csverr.CodeStorageError, err)
	}
	return s.w.Flush()
}

func (s *JSONLSink) Schema(columnsA, columnsB []string) error {
	return s.writeLine(schemaEvent(columnsA, columnsB))
}

func (s *JSONLSink) Event(e map[string]interface{}) error {
	return s.writeLine(e)
}

func (s *JSONLSink) Progress(p Progress) error {
	return s.writeLine(progressEvent(p))
}

func (s *JSONLSink) Stats(st Stats) error {
	return s.writeLine(statsEvent(st))
}
