// Package core implements the three Fluxion wire versions: the v1
// streaming prefix-order codec, the v2 pooled/seek codec, and the v3
// flattened item-table codec, plus the header and scalar encodings they
// share.
package core

import (
	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
)

// Magic is the 3-byte "FLX" signature at the start of every Fluxion file.
var Magic = [3]byte{'F', 'L', 'X'}

// Supported format versions.
const (
	Version1 = 1
	Version2 = 2
	Version3 = 3

	// MaxVersion is the newest version this library understands.
	MaxVersion = Version3
)

// Header is the decoded 4- or 5-byte preamble: magic, version, and (for
// v1/v2 only) the string encoding.
type Header struct {
	Version  uint8
	Encoding textenc.ID // only meaningful for v1/v2; v3 is always UTF-8
}

// WriteHeader emits the magic, version byte, and (for v1/v2) the
// encoding byte.
func WriteHeader(w stream.Sink, version uint8, encoding textenc.ID) error {
	if err := w.WriteAll(Magic[:]); err != nil {
		return err
	}
	if err := w.WriteByte(version); err != nil {
		return err
	}
	if version == Version3 {
		return nil
	}
	return w.WriteByte(byte(encoding))
}

// ReadHeader decodes and validates the preamble, failing with
// InvalidHeader on a magic mismatch and UnsupportedVersion/UnknownEncoding
// as appropriate.
func ReadHeader(r stream.Source) (Header, error) {
	magic, err := r.ReadExact(3)
	if err != nil {
		return Header{}, fluxionerr.Wrap(fluxionerr.KindInvalidHeader, "reading magic", err)
	}
	if magic[0] != Magic[0] || magic[1] != Magic[1] || magic[2] != Magic[2] {
		return Header{}, fluxionerr.InvalidHeader("magic bytes do not match \"FLX\"")
	}

	versionByte, err := r.ReadByte()
	if err != nil {
		return Header{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading version byte", err)
	}
	if versionByte < Version1 || versionByte > MaxVersion {
		return Header{}, fluxionerr.UnsupportedVersion(versionByte)
	}

	if versionByte == Version3 {
		return Header{Version: versionByte, Encoding: textenc.UTF8}, nil
	}

	encByte, err := r.ReadByte()
	if err != nil {
		return Header{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading encoding byte", err)
	}
	enc := textenc.ID(encByte)
	if !textenc.Valid(enc) {
		return Header{}, fluxionerr.UnknownEncoding(encByte)
	}
	return Header{Version: versionByte, Encoding: enc}, nil
}
