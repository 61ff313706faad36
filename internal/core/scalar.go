package core

import (
	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
	"github.com/fluxionfmt/fluxion/internal/utils"
	"github.com/fluxionfmt/fluxion/internal/varint"
)

// KindFromWireID maps a Type Table wire id (0..15) to a model.Kind.
func KindFromWireID(id byte) (model.Kind, bool) {
	if id > byte(model.KindBytes) {
		return 0, false
	}
	return model.Kind(id), true
}

// WireID maps a model.Kind to its Type Table wire id.
func WireID(k model.Kind) byte {
	return byte(k)
}

// storesData reports whether a value of the given kind ever has wire
// payload bytes. null/true/false are fully identified by the kind byte
// alone, in both v1 and v2/v3.
func storesData(k model.Kind) bool {
	switch k {
	case model.KindNull, model.KindTrue, model.KindFalse:
		return false
	default:
		return true
	}
}

func readLenPrefixed(src stream.Source) ([]byte, error) {
	n, err := varint.Decode(byteReaderAdapter{src})
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateBufferSize(n, utils.MaxStringSize, "length-prefixed payload"); err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "payload too large", err)
	}
	return src.ReadExact(int(n))
}

func writeLenPrefixed(sink stream.Sink, b []byte) error {
	if err := sink.WriteAll(varint.Encode(nil, uint64(len(b)))); err != nil {
		return err
	}
	return sink.WriteAll(b)
}

// sizeLenPrefixed returns the wire size of a length-prefixed payload of n bytes.
func sizeLenPrefixed(n int) int {
	return varint.Size(uint64(n)) + n
}

// writeFixedLE fills a pooled scratch buffer of the given width via fill,
// writes it to sink, and returns the buffer to the pool. Every v1
// fixed-width scalar write (the u16-char/u16/i16/u32/i32/u64/i64/f32/f64
// column) goes through this instead of allocating a fresh slice per value;
// v2/v3's f32/f64 pooled payloads borrow from the same pool directly in
// EncodePooledPayload.
func writeFixedLE(sink stream.Sink, width int, fill func([]byte)) error {
	buf := utils.GetBuffer(width)
	defer utils.ReleaseBuffer(buf)
	fill(buf)
	return sink.WriteAll(buf)
}

// byteReaderAdapter adapts stream.Source to varint.ByteReader.
type byteReaderAdapter struct {
	src stream.Source
}

func (b byteReaderAdapter) ReadByte() (byte, error) {
	return b.src.ReadByte()
}

// ---- v1: fixed-width scalar wire encoding ----

// EncodeScalarV1 writes v's payload using the v1 Type Table column.
func EncodeScalarV1(sink stream.Sink, enc textenc.ID, v model.Value) error {
	switch v.Kind() {
	case model.KindNull, model.KindTrue, model.KindFalse:
		return nil
	case model.KindU8:
		u, _ := v.Uint()
		return sink.WriteByte(byte(u))
	case model.KindI8:
		i, _ := v.Int()
		return sink.WriteByte(byte(int8(i)))
	case model.KindU16Char, model.KindU16:
		u, _ := v.Uint()
		return writeFixedLE(sink, 2, func(b []byte) { utils.PutUint16LEInto(b, uint16(u)) })
	case model.KindI16:
		i, _ := v.Int()
		return writeFixedLE(sink, 2, func(b []byte) { utils.PutUint16LEInto(b, uint16(int16(i))) })
	case model.KindU32:
		u, _ := v.Uint()
		return writeFixedLE(sink, 4, func(b []byte) { utils.PutUint32LEInto(b, uint32(u)) })
	case model.KindI32:
		i, _ := v.Int()
		return writeFixedLE(sink, 4, func(b []byte) { utils.PutUint32LEInto(b, uint32(int32(i))) })
	case model.KindU64:
		u, _ := v.Uint()
		return writeFixedLE(sink, 8, func(b []byte) { utils.PutUint64LEInto(b, u) })
	case model.KindI64:
		i, _ := v.Int()
		return writeFixedLE(sink, 8, func(b []byte) { utils.PutUint64LEInto(b, uint64(i)) })
	case model.KindF32:
		f, _ := v.Float32()
		return writeFixedLE(sink, 4, func(b []byte) { utils.PutFloat32LEInto(b, f) })
	case model.KindF64:
		f, _ := v.Float64()
		return writeFixedLE(sink, 8, func(b []byte) { utils.PutFloat64LEInto(b, f) })
	case model.KindString:
		s, _ := v.String()
		raw, err := textenc.Encode(enc, s)
		if err != nil {
			return err
		}
		return writeLenPrefixed(sink, raw)
	case model.KindBytes:
		b, _ := v.Bytes()
		return writeLenPrefixed(sink, b)
	default:
		return fluxionerr.UnknownValueType(WireID(v.Kind()))
	}
}

// DecodeScalarV1 reads a payload for the given kind using the v1 Type
// Table column.
func DecodeScalarV1(src stream.Source, enc textenc.ID, kind model.Kind) (model.Value, error) {
	switch kind {
	case model.KindNull:
		return model.Null(), nil
	case model.KindTrue:
		return model.Bool(true), nil
	case model.KindFalse:
		return model.Bool(false), nil
	case model.KindU8:
		b, err := src.ReadByte()
		if err != nil {
			return model.Value{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading u8", err)
		}
		return model.U8(b), nil
	case model.KindI8:
		b, err := src.ReadByte()
		if err != nil {
			return model.Value{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading i8", err)
		}
		return model.I8(int8(b)), nil
	case model.KindU16Char:
		b, err := src.ReadExact(2)
		if err != nil {
			return model.Value{}, err
		}
		return model.U16Char(utils.Uint16LE(b)), nil
	case model.KindI16:
		b, err := src.ReadExact(2)
		if err != nil {
			return model.Value{}, err
		}
		return model.I16(int16(utils.Uint16LE(b))), nil
	case model.KindU16:
		b, err := src.ReadExact(2)
		if err != nil {
			return model.Value{}, err
		}
		return model.U16(utils.Uint16LE(b)), nil
	case model.KindI32:
		b, err := src.ReadExact(4)
		if err != nil {
			return model.Value{}, err
		}
		return model.I32(int32(utils.Uint32LE(b))), nil
	case model.KindU32:
		b, err := src.ReadExact(4)
		if err != nil {
			return model.Value{}, err
		}
		return model.U32(utils.Uint32LE(b)), nil
	case model.KindI64:
		b, err := src.ReadExact(8)
		if err != nil {
			return model.Value{}, err
		}
		return model.I64(int64(utils.Uint64LE(b))), nil
	case model.KindU64:
		b, err := src.ReadExact(8)
		if err != nil {
			return model.Value{}, err
		}
		return model.U64(utils.Uint64LE(b)), nil
	case model.KindF32:
		b, err := src.ReadExact(4)
		if err != nil {
			return model.Value{}, err
		}
		return model.F32(utils.Float32LE(b)), nil
	case model.KindF64:
		b, err := src.ReadExact(8)
		if err != nil {
			return model.Value{}, err
		}
		return model.F64(utils.Float64LE(b)), nil
	case model.KindString:
		raw, err := readLenPrefixed(src)
		if err != nil {
			return model.Value{}, err
		}
		s, err := textenc.Decode(enc, raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.String(s), nil
	case model.KindBytes:
		raw, err := readLenPrefixed(src)
		if err != nil {
			return model.Value{}, err
		}
		return model.Bytes(append([]byte(nil), raw...)), nil
	default:
		return model.Value{}, fluxionerr.UnknownValueType(WireID(kind))
	}
}

// ---- v2/v3: pooled scalar wire encoding ----
//
// This is the payload stored at a v2 pool offset or a v3 data-pool
// entry: integers (other than u8/i8) are unsigned LEB128, signed
// integers are zigzag-encoded so the sign is self-contained in the
// varint, floats stay fixed-width, strings/bytes stay length-prefixed.

// EncodePooledPayload appends the v2/v3 wire payload for v to dst.
func EncodePooledPayload(dst []byte, enc textenc.ID, v model.Value) ([]byte, error) {
	switch v.Kind() {
	case model.KindNull, model.KindTrue, model.KindFalse:
		return dst, nil
	case model.KindU8:
		u, _ := v.Uint()
		return append(dst, byte(u)), nil
	case model.KindI8:
		i, _ := v.Int()
		return append(dst, byte(int8(i))), nil
	case model.KindU16Char:
		u, _ := v.Uint()
		return varint.Encode(dst, u), nil
	case model.KindI16:
		i, _ := v.Int()
		return varint.Encode(dst, zigzag(i)), nil
	case model.KindU16:
		u, _ := v.Uint()
		return varint.Encode(dst, u), nil
	case model.KindI32:
		i, _ := v.Int()
		return varint.Encode(dst, zigzag(i)), nil
	case model.KindU32:
		u, _ := v.Uint()
		return varint.Encode(dst, u), nil
	case model.KindI64:
		i, _ := v.Int()
		return varint.Encode(dst, zigzag(i)), nil
	case model.KindU64:
		u, _ := v.Uint()
		return varint.Encode(dst, u), nil
	case model.KindF32:
		f, _ := v.Float32()
		buf := utils.GetBuffer(4)
		utils.PutFloat32LEInto(buf, f)
		dst = append(dst, buf...)
		utils.ReleaseBuffer(buf)
		return dst, nil
	case model.KindF64:
		f, _ := v.Float64()
		buf := utils.GetBuffer(8)
		utils.PutFloat64LEInto(buf, f)
		dst = append(dst, buf...)
		utils.ReleaseBuffer(buf)
		return dst, nil
	case model.KindString:
		s, _ := v.String()
		raw, err := textenc.Encode(enc, s)
		if err != nil {
			return nil, err
		}
		dst = varint.Encode(dst, uint64(len(raw)))
		return append(dst, raw...), nil
	case model.KindBytes:
		b, _ := v.Bytes()
		dst = varint.Encode(dst, uint64(len(b)))
		return append(dst, b...), nil
	default:
		return nil, fluxionerr.UnknownValueType(WireID(v.Kind()))
	}
}

// PooledPayloadSize reports the wire size EncodePooledPayload would produce.
func PooledPayloadSize(enc textenc.ID, v model.Value) (int, error) {
	switch v.Kind() {
	case model.KindNull, model.KindTrue, model.KindFalse:
		return 0, nil
	case model.KindU8, model.KindI8:
		return 1, nil
	case model.KindU16Char:
		u, _ := v.Uint()
		return varint.Size(u), nil
	case model.KindI16, model.KindI32, model.KindI64:
		i, _ := v.Int()
		return varint.Size(zigzag(i)), nil
	case model.KindU16:
		u, _ := v.Uint()
		return varint.Size(u), nil
	case model.KindU32:
		u, _ := v.Uint()
		return varint.Size(u), nil
	case model.KindU64:
		u, _ := v.Uint()
		return varint.Size(u), nil
	case model.KindF32:
		return 4, nil
	case model.KindF64:
		return 8, nil
	case model.KindString:
		s, _ := v.String()
		raw, err := textenc.Encode(enc, s)
		if err != nil {
			return 0, err
		}
		return sizeLenPrefixed(len(raw)), nil
	case model.KindBytes:
		b, _ := v.Bytes()
		return sizeLenPrefixed(len(b)), nil
	default:
		return 0, fluxionerr.UnknownValueType(WireID(v.Kind()))
	}
}

// DecodePooledPayload reads a v2/v3 pool payload for kind from src.
func DecodePooledPayload(src stream.Source, enc textenc.ID, kind model.Kind) (model.Value, error) {
	switch kind {
	case model.KindNull:
		return model.Null(), nil
	case model.KindTrue:
		return model.Bool(true), nil
	case model.KindFalse:
		return model.Bool(false), nil
	case model.KindU8:
		b, err := src.ReadByte()
		if err != nil {
			return model.Value{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading u8", err)
		}
		return model.U8(b), nil
	case model.KindI8:
		b, err := src.ReadByte()
		if err != nil {
			return model.Value{}, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading i8", err)
		}
		return model.I8(int8(b)), nil
	case model.KindU16Char:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.U16Char(uint16(u)), nil
	case model.KindI16:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.I16(int16(unzigzag(u))), nil
	case model.KindU16:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.U16(uint16(u)), nil
	case model.KindI32:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.I32(int32(unzigzag(u))), nil
	case model.KindU32:
		u, err := varint.DecodeUint32(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.U32(u), nil
	case model.KindI64:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.I64(unzigzag(u)), nil
	case model.KindU64:
		u, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return model.Value{}, err
		}
		return model.U64(u), nil
	case model.KindF32:
		b, err := src.ReadExact(4)
		if err != nil {
			return model.Value{}, err
		}
		return model.F32(utils.Float32LE(b)), nil
	case model.KindF64:
		b, err := src.ReadExact(8)
		if err != nil {
			return model.Value{}, err
		}
		return model.F64(utils.Float64LE(b)), nil
	case model.KindString:
		raw, err := readLenPrefixed(src)
		if err != nil {
			return model.Value{}, err
		}
		s, err := textenc.Decode(enc, raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.String(s), nil
	case model.KindBytes:
		raw, err := readLenPrefixed(src)
		if err != nil {
			return model.Value{}, err
		}
		return model.Bytes(append([]byte(nil), raw...)), nil
	default:
		return model.Value{}, fluxionerr.UnknownValueType(WireID(kind))
	}
}

// zigzag maps a signed integer to an unsigned one so small magnitudes of
// either sign stay small varints: 0,-1,1,-2,2 -> 0,1,2,3,4. The Type
// Table describes the v2/v3 sign as living "in the unique-flag", but
// that bit's presence on the wire is exactly what tells the reader
// whether a pool offset follows at all — overloading it to also carry
// sign would make offset-presence undecidable from the tag byte alone
// for a negative value. Folding the sign into the varint itself (the
// same trick protobuf calls sint32/sint64) keeps the unique-flag's
// meaning uniform across every kind: "this value is the canonical
// empty/zero, no pool entry follows".
func zigzag(v int64) uint64 {
	return (uint64(v) << 1) ^ uint64(v>>63)
}

// unzigzag reverses zigzag.
func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
