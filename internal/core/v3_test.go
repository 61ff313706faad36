package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
)

func encodeV3(t *testing.T, root *model.Node, optimize bool) []byte {
	t.Helper()
	sink, buf := stream.NewBufferSink()
	require.NoError(t, EncodeV3(sink, root, model.DefaultTolerance, optimize))
	return buf.Bytes()
}

func decodeV3(t *testing.T, data []byte) *model.Node {
	t.Helper()
	src, err := stream.NewSource(byteReaderOf(data))
	require.NoError(t, err)
	got, err := DecodeV3(src)
	require.NoError(t, err)
	return got
}

func TestV3RoundTripEmptyRoot(t *testing.T) {
	root := model.NewNode("", model.Null())
	got := decodeV3(t, encodeV3(t, root, true))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
}

func TestV3RoundTripNestedTree(t *testing.T) {
	root := buildSampleTree()
	got := decodeV3(t, encodeV3(t, root, true))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
}

func TestV3RoundTripWithoutOptimize(t *testing.T) {
	root := buildSampleTree()
	got := decodeV3(t, encodeV3(t, root, false))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
}

func TestV3RoundTripAllScalarKinds(t *testing.T) {
	root := model.NewNode("root", model.Null())
	for _, v := range allSampleValues() {
		_, _ = root.Add(model.NewNode("", v))
	}
	got := decodeV3(t, encodeV3(t, root, true))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
}

func TestV3DedupesRepeatedSubtrees(t *testing.T) {
	root := model.NewNode("root", model.Null())
	for i := 0; i < 100; i++ {
		child := model.NewNode("User", model.String("mike"))
		child.AddAttribute(model.NewAttribute("Age", model.I32(35)))
		_, _ = root.Add(child)
	}

	optimized := encodeV3(t, root, true)
	unoptimized := encodeV3(t, root, false)
	require.Less(t, len(optimized), len(unoptimized), "optimize should shrink 100 identical siblings")

	got := decodeV3(t, optimized)
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
}

func TestV3ReferenceAttributeRun(t *testing.T) {
	root := model.NewNode("root", model.Null())
	for i := 0; i < 10; i++ {
		n := model.NewNode("item", model.I32(int32(i)))
		n.AddAttribute(model.NewAttribute("unit", model.String("kg")))
		_, _ = root.Add(n)
	}
	got := decodeV3(t, encodeV3(t, root, true))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
	for _, c := range got.Children() {
		a, ok := c.AttributeByName("unit")
		require.True(t, ok)
		s, _ := a.Value().String()
		require.Equal(t, "kg", s)
	}
}

func TestV3ConsecutiveChildRangeRoundTrips(t *testing.T) {
	root := model.NewNode("root", model.Null())
	for i := 0; i < 5; i++ {
		_, _ = root.Add(model.NewNode("distinct", model.I32(int32(i*7+1))))
	}
	got := decodeV3(t, encodeV3(t, root, true))
	require.True(t, model.DeepEqual(root, got, model.DefaultTolerance))
	require.Len(t, got.Children(), 5)
}

func TestIsConsecutiveRun(t *testing.T) {
	require.True(t, isConsecutiveRun([]int{3}))
	require.True(t, isConsecutiveRun([]int{3, 4, 5}))
	require.False(t, isConsecutiveRun([]int{3, 5}))
	require.False(t, isConsecutiveRun(nil))
}

func TestV3ToleranceAffectsDedup(t *testing.T) {
	root := model.NewNode("root", model.Null())
	_, _ = root.Add(model.NewNode("a", model.F64(1.0)))
	_, _ = root.Add(model.NewNode("a", model.F64(1.0005)))

	loose := model.Tolerance{F32: 0.001, F64: 0.01}
	tight := model.Tolerance{F32: 0.001, F64: 0.0001}

	sinkLoose, bufLoose := stream.NewBufferSink()
	require.NoError(t, EncodeV3(sinkLoose, root, loose, true))
	sinkTight, bufTight := stream.NewBufferSink()
	require.NoError(t, EncodeV3(sinkTight, root, tight, true))

	require.LessOrEqual(t, bufLoose.Len(), bufTight.Len())

	gotLoose := decodeV3(t, bufLoose.Bytes())
	require.True(t, model.DeepEqual(root, gotLoose, loose))
	gotTight := decodeV3(t, bufTight.Bytes())
	require.True(t, model.DeepEqual(root, gotTight, tight))
}

func TestV3DecodeRejectsTruncatedStream(t *testing.T) {
	src, err := stream.NewSource(byteReaderOf(nil))
	require.NoError(t, err)
	_, err = DecodeV3(src)
	require.Error(t, err)
}

func TestV3DecodeRejectsCorruptedTrailer(t *testing.T) {
	root := model.NewNode("root", model.Null())
	_, _ = root.Add(model.NewNode("child", model.Null()))
	data := encodeV3(t, root, false)

	// Corrupting the final byte (the root-index varint) produces either
	// an out-of-range root index or a truncated varint; either way
	// decode must fail rather than return a wrong tree.
	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] = 0xFF
	src, err := stream.NewSource(byteReaderOf(corrupt))
	require.NoError(t, err)
	_, err = DecodeV3(src)
	require.Error(t, err)
}
