// Package stream defines the byte source/sink contracts the version
// codecs are written against (spec: read_byte/read_exact/seek/
// current_position for reads, write_byte/write_all/current_position for
// writes), plus in-memory implementations. Decode always materializes the
// full tree (no partial/streaming decode), so the whole input is buffered
// up front; this also gives every version, not just v2, cheap random
// access without threading io.Seeker through the public API.
package stream

import (
	"bytes"
	"io"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
)

// Source is the byte-source contract used by all three version readers.
// v1 and v3 only ever call ReadByte/ReadExact; v2 additionally seeks to
// resolve pool offsets.
type Source interface {
	ReadByte() (byte, error)
	ReadExact(n int) ([]byte, error)
	Seek(pos int64) error
	Position() int64
}

// Sink is the byte-sink contract used by all three version writers. None
// of them need to seek: v2's pool offsets are computed during analysis,
// before any byte is written.
type Sink interface {
	WriteByte(b byte) error
	WriteAll(p []byte) error
	Position() int64
}

// memSource is a Source backed by an in-memory buffer.
type memSource struct {
	buf []byte
	pos int64
}

// NewSource buffers all of r into memory and returns a seekable Source.
func NewSource(r io.Reader) (Source, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading input", err)
	}
	return &memSource{buf: buf}, nil
}

func (s *memSource) ReadByte() (byte, error) {
	if s.pos >= int64(len(s.buf)) {
		return 0, fluxionerr.EndOfStream("unexpected end of stream reading one byte")
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func (s *memSource) ReadExact(n int) ([]byte, error) {
	if n < 0 || s.pos+int64(n) > int64(len(s.buf)) {
		return nil, fluxionerr.EndOfStream("unexpected end of stream reading exact bytes")
	}
	out := s.buf[s.pos : s.pos+int64(n)]
	s.pos += int64(n)
	return out, nil
}

func (s *memSource) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(s.buf)) {
		return fluxionerr.EndOfStream("seek target outside stream bounds")
	}
	s.pos = pos
	return nil
}

func (s *memSource) Position() int64 {
	return s.pos
}

// writerSink is a Sink that forwards to an io.Writer, tracking position.
type writerSink struct {
	w   io.Writer
	pos int64
}

// NewSink wraps w as a forward-only Sink.
func NewSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) WriteByte(b byte) error {
	return s.WriteAll([]byte{b})
}

func (s *writerSink) WriteAll(p []byte) error {
	n, err := s.w.Write(p)
	s.pos += int64(n)
	if err != nil {
		return fluxionerr.Wrap(fluxionerr.KindEndOfStream, "short write", err)
	}
	return nil
}

func (s *writerSink) Position() int64 {
	return s.pos
}

// NewBufferSink returns a Sink writing into an in-memory bytes.Buffer,
// along with the buffer so callers can inspect or copy the result.
func NewBufferSink() (Sink, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewSink(buf), buf
}
