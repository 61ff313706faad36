package fluxion

import (
	"bytes"
	"io"

	"github.com/fluxionfmt/fluxion/internal/core"
	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/stream"
)

// Encode writes root to w using opts. opts.Version selects which wire
// codec runs (v1.go/v2.go/v3.go); 0 means "current" and is mapped to the
// newest version the library writes (spec §6). The header is written
// first and records that version and, for v1/v2, opts.Encoding so Decode
// can dispatch without the caller repeating them.
func Encode(w io.Writer, root *Node, opts WriteOptions) error {
	if opts.Version == 0 {
		opts.Version = core.MaxVersion
	}
	sink := stream.NewSink(w)
	if err := core.WriteHeader(sink, opts.Version, opts.Encoding); err != nil {
		return err
	}
	switch opts.Version {
	case core.Version1:
		return core.EncodeV1(sink, opts.Encoding, root)
	case core.Version2:
		return core.EncodeV2(sink, opts.Encoding, root)
	case core.Version3:
		return core.EncodeV3(sink, root, opts.Tolerance, opts.Optimize)
	default:
		return fluxionerr.UnsupportedVersion(opts.Version)
	}
}

// Decode reads a Fluxion stream from r, dispatching on the version byte
// in its header, and returns the reconstructed root node.
func Decode(r io.Reader) (*Node, error) {
	src, err := stream.NewSource(r)
	if err != nil {
		return nil, err
	}
	header, err := core.ReadHeader(src)
	if err != nil {
		return nil, err
	}
	switch header.Version {
	case core.Version1:
		return core.DecodeV1(src, header.Encoding)
	case core.Version2:
		return core.DecodeV2(src, header.Encoding)
	case core.Version3:
		return core.DecodeV3(src)
	default:
		return nil, fluxionerr.UnsupportedVersion(header.Version)
	}
}

// EncodeBytes is a convenience wrapper around Encode for callers that
// want an in-memory result rather than an io.Writer.
func EncodeBytes(root *Node, opts WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes is a convenience wrapper around Decode for callers holding
// an already-materialized buffer.
func DecodeBytes(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}
