package varint

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		buf := Encode(nil, v)
		require.Len(t, buf, Size(v))
		got, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeZeroIsSingleByte(t *testing.T) {
	require.Equal(t, []byte{0x00}, Encode(nil, 0))
}

func TestDecodeEndOfStream(t *testing.T) {
	// A continuation byte with nothing following.
	_, err := Decode(bytes.NewReader([]byte{0x80}))
	require.Error(t, err)
}

func TestDecodeEmptyStream(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestDecodeRejectsOverlong64(t *testing.T) {
	// 9 continuation bytes carry 63 bits; the 10th byte, 0x02, would set
	// bit 64, which cannot fit in the remaining single bit of a uint64.
	overlong := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	_, err := Decode(bytes.NewReader(overlong))
	require.Error(t, err)
}

func TestDecodeUint32RejectsOverflow(t *testing.T) {
	buf := Encode(nil, uint64(math.MaxUint32)+1)
	_, err := DecodeUint32(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecodeUint32Accepts(t *testing.T) {
	buf := Encode(nil, uint64(math.MaxUint32))
	got, err := DecodeUint32(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, uint32(math.MaxUint32), got)
}
