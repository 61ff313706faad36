package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
	"github.com/fluxionfmt/fluxion/internal/varint"
)

func byteReaderOf(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func TestWireIDRoundTripsAllKinds(t *testing.T) {
	for id := byte(0); id <= byte(model.KindBytes); id++ {
		k, ok := KindFromWireID(id)
		require.True(t, ok)
		require.Equal(t, id, WireID(k))
	}
	_, ok := KindFromWireID(16)
	require.False(t, ok)
}

func allSampleValues() []model.Value {
	return []model.Value{
		model.Null(),
		model.Bool(true),
		model.Bool(false),
		model.U8(200),
		model.I8(-100),
		model.U16Char('Z'),
		model.I16(-1234),
		model.U16(54321),
		model.I32(-123456789),
		model.U32(3123456789),
		model.I64(-9123456789012),
		model.U64(18123456789012345),
		model.F32(3.5),
		model.F64(-2.75),
		model.String("héllo"),
		model.Bytes([]byte{1, 2, 3, 4}),
	}
}

func TestScalarV1RoundTrip(t *testing.T) {
	for _, v := range allSampleValues() {
		sink, buf := stream.NewBufferSink()
		require.NoError(t, EncodeScalarV1(sink, textenc.UTF8, v))

		src, err := stream.NewSource(byteReaderOf(buf.Bytes()))
		require.NoError(t, err)
		got, err := DecodeScalarV1(src, textenc.UTF8, v.Kind())
		require.NoError(t, err)
		require.True(t, v.Equal(got, model.DefaultTolerance), "kind %v: want %+v got %+v", v.Kind(), v, got)
	}
}

func TestScalarV1StringTranscodesUTF16LE(t *testing.T) {
	v := model.String("hello")
	sink, buf := stream.NewBufferSink()
	require.NoError(t, EncodeScalarV1(sink, textenc.UTF16LE, v))
	require.Equal(t, 1+len("hello")*2, buf.Len(), "len varint + 2 bytes per rune")

	src, err := stream.NewSource(byteReaderOf(buf.Bytes()))
	require.NoError(t, err)
	got, err := DecodeScalarV1(src, textenc.UTF16LE, model.KindString)
	require.NoError(t, err)
	s, _ := got.String()
	require.Equal(t, "hello", s)
}

func TestPooledPayloadRoundTripAllKinds(t *testing.T) {
	for _, v := range allSampleValues() {
		var buf []byte
		buf, err := EncodePooledPayload(buf, textenc.UTF8, v)
		require.NoError(t, err)

		size, err := PooledPayloadSize(textenc.UTF8, v)
		require.NoError(t, err)
		require.Equal(t, len(buf), size)

		src, err := stream.NewSource(byteReaderOf(buf))
		require.NoError(t, err)
		got, err := DecodePooledPayload(src, textenc.UTF8, v.Kind())
		require.NoError(t, err)
		require.True(t, v.Equal(got, model.DefaultTolerance), "kind %v: want %+v got %+v", v.Kind(), v, got)
	}
}

func TestZigzagRoundTrip(t *testing.T) {
	cases := []int64{0, -1, 1, -2, 2, 35, -35, 1 << 40, -(1 << 40)}
	for _, c := range cases {
		require.Equal(t, c, unzigzag(zigzag(c)), "value %d", c)
	}
}

func TestZigzagKeepsSmallMagnitudesSmall(t *testing.T) {
	require.Equal(t, uint64(0), zigzag(0))
	require.Equal(t, uint64(1), zigzag(-1))
	require.Equal(t, uint64(2), zigzag(1))
	require.Equal(t, uint64(3), zigzag(-2))
	require.Equal(t, uint64(4), zigzag(2))
}

func TestStoresDataExcludesNullTrueFalse(t *testing.T) {
	require.False(t, storesData(model.KindNull))
	require.False(t, storesData(model.KindTrue))
	require.False(t, storesData(model.KindFalse))
	require.True(t, storesData(model.KindU8))
	require.True(t, storesData(model.KindString))
}

func TestDecodePooledPayloadUnknownKind(t *testing.T) {
	src, err := stream.NewSource(byteReaderOf(nil))
	require.NoError(t, err)
	_, err = DecodePooledPayload(src, textenc.UTF8, model.Kind(99))
	require.Error(t, err)
	require.Equal(t, fluxionerr.KindUnknownValueType, err.(*fluxionerr.Error).Kind)
}

func TestReadLenPrefixedRejectsOversizedLength(t *testing.T) {
	sink, buf := stream.NewBufferSink()
	big := uint64(1) << 40
	require.NoError(t, sink.WriteAll(varint.Encode(nil, big)))

	src, err := stream.NewSource(byteReaderOf(buf.Bytes()))
	require.NoError(t, err)
	_, err = readLenPrefixed(src)
	require.Error(t, err)
}
