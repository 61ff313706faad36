// Package varint implements unsigned LEB128 encoding: 7 data bits per
// byte, high bit set means "more bytes follow". It is the length/offset/
// index codec shared by every Fluxion wire version.
package varint

import (
	"math/bits"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
)

// maxBytesFor64 is the maximum number of bytes a valid 64-bit varint can
// occupy: ceil(64/7) = 10.
const maxBytesFor64 = 10

// Encode appends the LEB128 encoding of v to dst and returns the result.
// Zero is encoded as a single 0x00 byte.
func Encode(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// Size reports the number of bytes Encode would produce for v.
func Size(v uint64) int {
	if v == 0 {
		return 1
	}
	return (bits.Len64(v) + 6) / 7
}

// ByteReader is the minimal contract Decode needs: one byte at a time.
type ByteReader interface {
	ReadByte() (byte, error)
}

// Decode reads an unsigned LEB128 varint from r. It fails with
// fluxionerr.EndOfStream if r runs out mid-varint, and rejects overlong
// encodings that would overflow 64 bits.
func Decode(r ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxBytesFor64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "varint truncated", err)
		}
		if shift == 63 && b > 1 {
			return 0, fluxionerr.New(fluxionerr.KindEndOfStream, "varint overflows 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, fluxionerr.New(fluxionerr.KindEndOfStream, "varint exceeds maximum length")
}

// DecodeUint32 decodes a varint and rejects values that would overflow
// a 32-bit unsigned target.
func DecodeUint32(r ByteReader) (uint32, error) {
	v, err := Decode(r)
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, fluxionerr.New(fluxionerr.KindEndOfStream, "varint overflows 32 bits")
	}
	return uint32(v), nil
}
