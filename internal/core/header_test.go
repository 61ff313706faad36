package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
)

func TestWriteReadHeaderV1(t *testing.T) {
	sink, buf := stream.NewBufferSink()
	require.NoError(t, WriteHeader(sink, Version1, textenc.UTF16LE))
	require.Equal(t, []byte{'F', 'L', 'X', 1, 1}, buf.Bytes())

	src, err := stream.NewSource(strings.NewReader(buf.String()))
	require.NoError(t, err)
	hdr, err := ReadHeader(src)
	require.NoError(t, err)
	require.Equal(t, uint8(Version1), hdr.Version)
	require.Equal(t, textenc.UTF16LE, hdr.Encoding)
}

func TestWriteReadHeaderV3HasNoEncodingByte(t *testing.T) {
	sink, buf := stream.NewBufferSink()
	require.NoError(t, WriteHeader(sink, Version3, textenc.UTF8))
	require.Equal(t, []byte{'F', 'L', 'X', 3}, buf.Bytes())

	src, err := stream.NewSource(strings.NewReader(buf.String()))
	require.NoError(t, err)
	hdr, err := ReadHeader(src)
	require.NoError(t, err)
	require.Equal(t, uint8(Version3), hdr.Version)
	require.Equal(t, textenc.UTF8, hdr.Encoding)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	src, err := stream.NewSource(strings.NewReader("XYZ\x01\x00"))
	require.NoError(t, err)
	_, err = ReadHeader(src)
	require.Error(t, err)
	require.Equal(t, fluxionerr.KindInvalidHeader, err.(*fluxionerr.Error).Kind)
}

func TestReadHeaderShortInput(t *testing.T) {
	src, err := stream.NewSource(strings.NewReader("FL"))
	require.NoError(t, err)
	_, err = ReadHeader(src)
	require.Error(t, err)
}

func TestReadHeaderRejectsFutureVersion(t *testing.T) {
	src, err := stream.NewSource(strings.NewReader("FLX\x04"))
	require.NoError(t, err)
	_, err = ReadHeader(src)
	require.Error(t, err)
	fe := err.(*fluxionerr.Error)
	require.Equal(t, fluxionerr.KindUnsupportedVersion, fe.Kind)
	require.Equal(t, byte(4), fe.Byte)
}

func TestReadHeaderRejectsUnknownEncoding(t *testing.T) {
	src, err := stream.NewSource(strings.NewReader("FLX\x01\x09"))
	require.NoError(t, err)
	_, err = ReadHeader(src)
	require.Error(t, err)
	require.Equal(t, fluxionerr.KindUnknownEncoding, err.(*fluxionerr.Error).Kind)
}
