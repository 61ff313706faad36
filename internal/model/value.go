// Package model holds the Fluxion tree model: Node, Attribute, and Value.
// It is shared, unexported-free, by the public fluxion package (which
// type-aliases onto it) and the internal/core version codecs (which
// serialize and materialize it) — kept in its own package so fluxion and
// internal/core can both depend on it without an import cycle.
package model

import "math"

// Kind identifies which of the 16 scalar variants a Value holds.
type Kind uint8

// The 16 scalar variants, with their wire ids from the Type Table.
const (
	KindNull Kind = iota
	KindTrue
	KindFalse
	KindU8
	KindI8
	KindU16Char
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindString
	KindBytes
)

// Value is a tagged union over the 16 scalar variants. The zero Value is
// Null.
type Value struct {
	kind Kind
	u    uint64
	i    int64
	f32  float32
	f64  float64
	s    string
	b    []byte
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns the true or false value.
func Bool(v bool) Value {
	if v {
		return Value{kind: KindTrue}
	}
	return Value{kind: KindFalse}
}

// U8 returns a u8 value.
func U8(v uint8) Value { return Value{kind: KindU8, u: uint64(v)} }

// I8 returns an i8 value.
func I8(v int8) Value { return Value{kind: KindI8, i: int64(v)} }

// U16Char returns a u16-char value (a single UTF-16 code unit stored as an integer).
func U16Char(v uint16) Value { return Value{kind: KindU16Char, u: uint64(v)} }

// I16 returns an i16 value.
func I16(v int16) Value { return Value{kind: KindI16, i: int64(v)} }

// U16 returns a u16 value.
func U16(v uint16) Value { return Value{kind: KindU16, u: uint64(v)} }

// I32 returns an i32 value.
func I32(v int32) Value { return Value{kind: KindI32, i: int64(v)} }

// U32 returns a u32 value.
func U32(v uint32) Value { return Value{kind: KindU32, u: uint64(v)} }

// I64 returns an i64 value.
func I64(v int64) Value { return Value{kind: KindI64, i: v} }

// U64 returns a u64 value.
func U64(v uint64) Value { return Value{kind: KindU64, u: v} }

// F32 returns an f32 value.
func F32(v float32) Value { return Value{kind: KindF32, f32: v} }

// F64 returns an f64 value.
func F64(v float64) Value { return Value{kind: KindF64, f64: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes returns a bytes value. The slice is retained, not copied.
func Bytes(v []byte) Value { return Value{kind: KindBytes, b: v} }

// Kind reports which of the 16 variants this Value holds.
func (v Value) Kind() Kind { return v.kind }

// Bool reports whether this is a true/false value and its truth.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindTrue:
		return true, true
	case KindFalse:
		return false, true
	default:
		return false, false
	}
}

// Uint reports the raw unsigned magnitude for u8/u16/u16char/u32/u64
// variants.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindU8, KindU16Char, KindU16, KindU32, KindU64:
		return v.u, true
	default:
		return 0, false
	}
}

// Int reports the signed value for i8/i16/i32/i64 variants.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return v.i, true
	default:
		return 0, false
	}
}

// Float32 reports the f32 payload.
func (v Value) Float32() (float32, bool) {
	if v.kind != KindF32 {
		return 0, false
	}
	return v.f32, true
}

// Float64 reports the f64 payload.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindF64 {
		return 0, false
	}
	return v.f64, true
}

// String reports the string payload.
func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Bytes reports the bytes payload.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.b, true
}

// IsZeroOrEmpty reports whether v is in its canonical "empty" form: null,
// false, a zero-magnitude integer, a zero float, or an empty string/bytes.
// These values are never pooled in v2 — they are recovered on decode from
// the unique-flag bit alone.
func (v Value) IsZeroOrEmpty() bool {
	switch v.kind {
	case KindNull, KindFalse:
		return true
	case KindTrue:
		return false
	case KindU8, KindU16Char, KindU16, KindU32, KindU64:
		return v.u == 0
	case KindI8, KindI16, KindI32, KindI64:
		return v.i == 0
	case KindF32:
		return v.f32 == 0
	case KindF64:
		return v.f64 == 0
	case KindString:
		return v.s == ""
	case KindBytes:
		return len(v.b) == 0
	default:
		return false
	}
}

// Tolerance holds the float-comparison epsilons used by structural
// equality and the v3 reference optimizer.
type Tolerance struct {
	F32 float32
	F64 float64
}

// DefaultTolerance matches the format's documented defaults.
var DefaultTolerance = Tolerance{F32: 0.001, F64: 0.001}

// Equal reports structural equality between v and other, comparing
// floats within tol.
func (v Value) Equal(other Value, tol Tolerance) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindTrue, KindFalse:
		return true
	case KindU8, KindU16Char, KindU16, KindU32, KindU64:
		return v.u == other.u
	case KindI8, KindI16, KindI32, KindI64:
		return v.i == other.i
	case KindF32:
		return math.Abs(float64(v.f32-other.f32)) <= float64(tol.F32)
	case KindF64:
		return math.Abs(v.f64-other.f64) <= tol.F64
	case KindString:
		return v.s == other.s
	case KindBytes:
		return string(v.b) == string(other.b)
	default:
		return false
	}
}
