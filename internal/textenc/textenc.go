// Package textenc transcodes Fluxion string payloads between UTF-8 (the
// in-memory representation) and the wire encoding declared by a v1/v2
// header byte (UTF-8, UTF-16LE, or UTF-32LE). v3 fixes UTF-8 and never
// needs this package.
package textenc

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
)

// ID is the header encoding byte (spec §4.2 / §6).
type ID uint8

// The three encodings a v1/v2 header may declare.
const (
	UTF8    ID = 0
	UTF16LE ID = 1
	UTF32LE ID = 2
)

var codecs = map[ID]encoding.Encoding{
	UTF16LE: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	UTF32LE: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
}

// Valid reports whether id is one of the three defined encodings.
func Valid(id ID) bool {
	return id == UTF8 || id == UTF16LE || id == UTF32LE
}

// Encode converts a UTF-8 Go string to the wire bytes for the given
// encoding id.
func Encode(id ID, s string) ([]byte, error) {
	if id == UTF8 {
		return []byte(s), nil
	}
	enc, ok := codecs[id]
	if !ok {
		return nil, fluxionerr.UnknownEncoding(byte(id))
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindUnknownEncoding, "transcoding string to wire encoding", err)
	}
	return out, nil
}

// Decode converts wire bytes in the given encoding id to a UTF-8 Go
// string.
func Decode(id ID, b []byte) (string, error) {
	if id == UTF8 {
		return string(b), nil
	}
	enc, ok := codecs[id]
	if !ok {
		return "", fluxionerr.UnknownEncoding(byte(id))
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fluxionerr.Wrap(fluxionerr.KindUnknownEncoding, "transcoding string from wire encoding", err)
	}
	return string(out), nil
}
