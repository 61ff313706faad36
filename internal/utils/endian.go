// Package utils also centralizes the fixed little-endian widths used by
// the v1 scalar wire encoding (u16/i16/u32/i32/u64/i64/f32/f64), so the
// version codecs never reach for encoding/binary directly.
package utils

import (
	"encoding/binary"
	"math"
)

// PutUint16LE encodes v as 2 little-endian bytes.
func PutUint16LE(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// PutUint16LEInto writes v as 2 little-endian bytes into buf, which must
// be at least 2 bytes long. Pair with a GetBuffer/ReleaseBuffer scratch
// buffer on a hot write path instead of allocating via PutUint16LE.
func PutUint16LEInto(buf []byte, v uint16) {
	binary.LittleEndian.PutUint16(buf, v)
}

// Uint16LE decodes 2 little-endian bytes.
func Uint16LE(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// PutUint32LE encodes v as 4 little-endian bytes.
func PutUint32LE(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// PutUint32LEInto writes v as 4 little-endian bytes into buf, which must
// be at least 4 bytes long.
func PutUint32LEInto(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32LE decodes 4 little-endian bytes.
func Uint32LE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// PutUint64LE encodes v as 8 little-endian bytes.
func PutUint64LE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// PutUint64LEInto writes v as 8 little-endian bytes into buf, which must
// be at least 8 bytes long.
func PutUint64LEInto(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}

// Uint64LE decodes 8 little-endian bytes.
func Uint64LE(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// PutFloat32LE encodes v as 4 little-endian bytes.
func PutFloat32LE(v float32) []byte {
	return PutUint32LE(math.Float32bits(v))
}

// PutFloat32LEInto writes v as 4 little-endian bytes into buf, which must
// be at least 4 bytes long.
func PutFloat32LEInto(buf []byte, v float32) {
	PutUint32LEInto(buf, math.Float32bits(v))
}

// Float32LE decodes 4 little-endian bytes into a float32.
func Float32LE(b []byte) float32 {
	return math.Float32frombits(Uint32LE(b))
}

// PutFloat64LE encodes v as 8 little-endian bytes.
func PutFloat64LE(v float64) []byte {
	return PutUint64LE(math.Float64bits(v))
}

// PutFloat64LEInto writes v as 8 little-endian bytes into buf, which must
// be at least 8 bytes long.
func PutFloat64LEInto(buf []byte, v float64) {
	PutUint64LEInto(buf, math.Float64bits(v))
}

// Float64LE decodes 8 little-endian bytes into a float64.
func Float64LE(b []byte) float64 {
	return math.Float64frombits(Uint64LE(b))
}
