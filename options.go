package fluxion

import "github.com/fluxionfmt/fluxion/internal/textenc"

// Encoding selects the text transcoding used for names and string
// payloads on the wire.
type Encoding = textenc.ID

// The three text encodings the format supports.
const (
	UTF8    = textenc.UTF8
	UTF16LE = textenc.UTF16LE
	UTF32LE = textenc.UTF32LE
)

// WriteOptions controls how Encode serializes a tree.
type WriteOptions struct {
	// Version selects the wire format: 1 (streaming), 2 (pooled/seekable),
	// or 3 (flattened item table with reference compression).
	Version uint8

	// Encoding selects the string transcoding used for names and string
	// payloads in v1 and v2. Ignored for v3, which is always UTF-8.
	Encoding Encoding

	// Tolerance bounds float comparisons used by the v3 writer's
	// reference/dedup optimizer. Ignored for v1 and v2.
	Tolerance Tolerance

	// Optimize enables the v3 writer's reference-compression pass.
	// Ignored for v1 and v2, which have no such pass.
	Optimize bool
}

// DefaultWriteOptions returns the newest version, UTF-8, default
// tolerance, and optimization enabled.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		Version:   3,
		Encoding:  UTF8,
		Tolerance: DefaultTolerance,
		Optimize:  true,
	}
}
