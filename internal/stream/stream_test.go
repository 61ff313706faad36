package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceReadByteAndExact(t *testing.T) {
	src, err := NewSource(strings.NewReader("ABCDEF"))
	require.NoError(t, err)

	b, err := src.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('A'), b)

	got, err := src.ReadExact(3)
	require.NoError(t, err)
	require.Equal(t, []byte("BCD"), got)
	require.Equal(t, int64(4), src.Position())
}

func TestSourceSeekAndRestore(t *testing.T) {
	src, err := NewSource(strings.NewReader("0123456789"))
	require.NoError(t, err)

	_, err = src.ReadExact(5)
	require.NoError(t, err)
	saved := src.Position()

	require.NoError(t, src.Seek(0))
	b, err := src.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('0'), b)

	require.NoError(t, src.Seek(saved))
	b, err = src.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('5'), b)
}

func TestSourceEndOfStream(t *testing.T) {
	src, err := NewSource(strings.NewReader("AB"))
	require.NoError(t, err)

	_, err = src.ReadExact(10)
	require.Error(t, err)

	require.NoError(t, src.Seek(2))
	_, err = src.ReadByte()
	require.Error(t, err)
}

func TestSourceSeekOutOfBounds(t *testing.T) {
	src, err := NewSource(strings.NewReader("AB"))
	require.NoError(t, err)
	require.Error(t, src.Seek(-1))
	require.Error(t, src.Seek(3))
}

func TestSinkWriteTracksPosition(t *testing.T) {
	sink, buf := NewBufferSink()
	require.NoError(t, sink.WriteByte('A'))
	require.NoError(t, sink.WriteAll([]byte("BC")))
	require.Equal(t, int64(3), sink.Position())
	require.Equal(t, "ABC", buf.String())
}

func TestSinkWrapsIOWriter(t *testing.T) {
	var b bytes.Buffer
	sink := NewSink(&b)
	require.NoError(t, sink.WriteAll([]byte("hello")))
	require.Equal(t, "hello", b.String())
	require.Equal(t, int64(5), sink.Position())
}
