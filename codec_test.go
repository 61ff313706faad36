package fluxion_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxionfmt/fluxion"
)

func buildSampleTree() *fluxion.Node {
	root := fluxion.NewNode("MyRootNode", fluxion.Null())

	jeremy := fluxion.NewNode("User", fluxion.String("jeremy"))
	jeremy.AddAttribute(fluxion.NewAttribute("Age", fluxion.I32(10)))

	mike := fluxion.NewNode("User", fluxion.String("mike"))
	mike.AddAttribute(fluxion.NewAttribute("Age", fluxion.I32(35)))
	_, _ = mike.Add(jeremy)

	_, _ = root.Add(mike)
	return root
}

func TestEncodeDecodeEmptyRootV1(t *testing.T) {
	root := fluxion.NewNode("", fluxion.Null())
	data, err := fluxion.EncodeBytes(root, fluxion.WriteOptions{Version: 1, Encoding: fluxion.UTF8})
	require.NoError(t, err)

	require.Equal(t, []byte{'F', 'L', 'X', 1, byte(fluxion.UTF8)}, data[:5])

	got, err := fluxion.DecodeBytes(data)
	require.NoError(t, err)
	require.True(t, fluxion.DeepEqual(root, got, fluxion.DefaultTolerance))
}

func TestEncodeDecodeNamedTreeAllVersions(t *testing.T) {
	for _, version := range []uint8{1, 2, 3} {
		opts := fluxion.DefaultWriteOptions()
		opts.Version = version
		root := buildSampleTree()

		data, err := fluxion.EncodeBytes(root, opts)
		require.NoError(t, err)

		got, err := fluxion.DecodeBytes(data)
		require.NoError(t, err)
		require.Truef(t, fluxion.DeepEqual(root, got, fluxion.DefaultTolerance), "version %d round-trip mismatch", version)
	}
}

func TestDuplicateStringsShrinkAcrossVersions(t *testing.T) {
	root := fluxion.NewNode("root", fluxion.Null())
	for i := 0; i < 100; i++ {
		child := fluxion.NewNode("User", fluxion.String("mike"))
		_, _ = root.Add(child)
	}

	v1, err := fluxion.EncodeBytes(root, fluxion.WriteOptions{Version: 1, Encoding: fluxion.UTF8})
	require.NoError(t, err)
	v2, err := fluxion.EncodeBytes(root, fluxion.WriteOptions{Version: 2, Encoding: fluxion.UTF8})
	require.NoError(t, err)
	v3, err := fluxion.EncodeBytes(root, fluxion.WriteOptions{Version: 3, Encoding: fluxion.UTF8, Tolerance: fluxion.DefaultTolerance, Optimize: true})
	require.NoError(t, err)

	require.Less(t, len(v2), len(v1))
	require.LessOrEqual(t, len(v3), len(v2))

	got, err := fluxion.DecodeBytes(v2)
	require.NoError(t, err)
	require.True(t, fluxion.DeepEqual(root, got, fluxion.DefaultTolerance))
}

func TestCycleRejection(t *testing.T) {
	a := fluxion.NewNode("a", fluxion.Null())
	b := fluxion.NewNode("b", fluxion.Null())

	_, err := a.Add(b)
	require.NoError(t, err)

	_, err = b.Add(a)
	require.Error(t, err)
	require.True(t, errors.Is(err, fluxion.ErrInvalidParent))
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	_, err := fluxion.DecodeBytes([]byte{0x46, 0x4C})
	require.Error(t, err)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	data := []byte{'F', 'L', 'X', 4}
	_, err := fluxion.DecodeBytes(data)
	require.Error(t, err)
	require.True(t, errors.Is(err, fluxion.ErrUnsupportedVersion))
}

func TestEncodeVersionZeroMeansCurrent(t *testing.T) {
	root := buildSampleTree()
	data, err := fluxion.EncodeBytes(root, fluxion.WriteOptions{Version: 0, Encoding: fluxion.UTF8, Tolerance: fluxion.DefaultTolerance, Optimize: true})
	require.NoError(t, err)
	require.Equal(t, byte(3), data[3], "version 0 should write as the newest supported version")

	got, err := fluxion.DecodeBytes(data)
	require.NoError(t, err)
	require.True(t, fluxion.DeepEqual(root, got, fluxion.DefaultTolerance))
}

func TestEncodeUsesIoWriter(t *testing.T) {
	root := fluxion.NewNode("r", fluxion.Bool(true))
	var buf bytes.Buffer
	require.NoError(t, fluxion.Encode(&buf, root, fluxion.DefaultWriteOptions()))

	got, err := fluxion.Decode(&buf)
	require.NoError(t, err)
	require.True(t, fluxion.DeepEqual(root, got, fluxion.DefaultTolerance))
}
