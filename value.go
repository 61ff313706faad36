package fluxion

import "github.com/fluxionfmt/fluxion/internal/model"

// Kind identifies which of the format's 16 scalar variants a Value holds.
type Kind = model.Kind

// The 16 scalar variants, with their wire ids from the format's Type
// Table (spec.md §3).
const (
	KindNull    = model.KindNull
	KindTrue    = model.KindTrue
	KindFalse   = model.KindFalse
	KindU8      = model.KindU8
	KindI8      = model.KindI8
	KindU16Char = model.KindU16Char
	KindI16     = model.KindI16
	KindU16     = model.KindU16
	KindI32     = model.KindI32
	KindU32     = model.KindU32
	KindI64     = model.KindI64
	KindU64     = model.KindU64
	KindF32     = model.KindF32
	KindF64     = model.KindF64
	KindString  = model.KindString
	KindBytes   = model.KindBytes
)

// Value is a tagged union over the 16 scalar variants a Node or
// Attribute can hold. The zero Value is Null.
type Value = model.Value

// Null returns the null value.
func Null() Value { return model.Null() }

// Bool returns the true or false value.
func Bool(v bool) Value { return model.Bool(v) }

// U8 returns a u8 value.
func U8(v uint8) Value { return model.U8(v) }

// I8 returns an i8 value.
func I8(v int8) Value { return model.I8(v) }

// U16Char returns a u16-char value (a single UTF-16 code unit stored as
// an integer).
func U16Char(v uint16) Value { return model.U16Char(v) }

// I16 returns an i16 value.
func I16(v int16) Value { return model.I16(v) }

// U16 returns a u16 value.
func U16(v uint16) Value { return model.U16(v) }

// I32 returns an i32 value.
func I32(v int32) Value { return model.I32(v) }

// U32 returns a u32 value.
func U32(v uint32) Value { return model.U32(v) }

// I64 returns an i64 value.
func I64(v int64) Value { return model.I64(v) }

// U64 returns a u64 value.
func U64(v uint64) Value { return model.U64(v) }

// F32 returns an f32 value.
func F32(v float32) Value { return model.F32(v) }

// F64 returns an f64 value.
func F64(v float64) Value { return model.F64(v) }

// String returns a string value.
func String(v string) Value { return model.String(v) }

// Bytes returns a bytes value. The slice is retained, not copied.
func Bytes(v []byte) Value { return model.Bytes(v) }
