package core

import (
	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
	"github.com/fluxionfmt/fluxion/internal/utils"
	"github.com/fluxionfmt/fluxion/internal/varint"
)

const (
	tagValueTypeMask = 0x0f
	tagHasName       = 1 << 4
	tagNoChildren    = 1 << 5
	tagNoAttrs       = 1 << 6
)

// EncodeV1 writes root in the v1 streaming prefix-order layout: each
// node is a tag byte, optional child count, optional name, its value,
// its attributes, then its children, recursively. No pool, no seeking.
func EncodeV1(sink stream.Sink, enc textenc.ID, root *model.Node) error {
	return writeNodeV1(sink, enc, root)
}

func writeNodeV1(sink stream.Sink, enc textenc.ID, n *model.Node) error {
	children := n.Children()
	attrs := n.Attributes()

	tag := WireID(n.Value().Kind())
	if n.Name() != "" {
		tag |= tagHasName
	}
	if len(children) == 0 {
		tag |= tagNoChildren
	}
	if len(attrs) == 0 {
		tag |= tagNoAttrs
	}
	if err := sink.WriteByte(tag); err != nil {
		return err
	}

	if len(children) != 0 {
		if err := sink.WriteAll(varint.Encode(nil, uint64(len(children)))); err != nil {
			return err
		}
	}
	if n.Name() != "" {
		if err := writeLenPrefixedName(sink, enc, n.Name()); err != nil {
			return err
		}
	}
	if err := EncodeScalarV1(sink, enc, n.Value()); err != nil {
		return err
	}
	if len(attrs) != 0 {
		if err := sink.WriteAll(varint.Encode(nil, uint64(len(attrs)))); err != nil {
			return err
		}
		for _, a := range attrs {
			if err := writeAttributeV1(sink, enc, a); err != nil {
				return err
			}
		}
	}
	for _, c := range children {
		if err := writeNodeV1(sink, enc, c); err != nil {
			return err
		}
	}
	return nil
}

func writeAttributeV1(sink stream.Sink, enc textenc.ID, a *model.Attribute) error {
	tag := WireID(a.Value().Kind())
	if a.Name() != "" {
		tag |= tagHasName
	}
	if err := sink.WriteByte(tag); err != nil {
		return err
	}
	if a.Name() != "" {
		if err := writeLenPrefixedName(sink, enc, a.Name()); err != nil {
			return err
		}
	}
	return EncodeScalarV1(sink, enc, a.Value())
}

func writeLenPrefixedName(sink stream.Sink, enc textenc.ID, name string) error {
	raw, err := textenc.Encode(enc, name)
	if err != nil {
		return err
	}
	return writeLenPrefixed(sink, raw)
}

// DecodeV1 reads a v1 body (the tree that follows the header) and
// returns the root node.
func DecodeV1(src stream.Source, enc textenc.ID) (*model.Node, error) {
	return readNodeV1(src, enc)
}

func readNodeV1(src stream.Source, enc textenc.ID) (*model.Node, error) {
	tag, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading node tag", err)
	}
	kind, ok := KindFromWireID(tag & tagValueTypeMask)
	if !ok {
		return nil, fluxionerr.UnknownValueType(tag & tagValueTypeMask)
	}
	hasName := tag&tagHasName != 0
	noChildren := tag&tagNoChildren != 0
	noAttrs := tag&tagNoAttrs != 0

	childCount := 0
	if !noChildren {
		n, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateBufferSize(n, utils.MaxChildCount, "v1 child count"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "child count too large", err)
		}
		childCount = int(n)
	}

	name := ""
	if hasName {
		name, err = readLenPrefixedName(src, enc)
		if err != nil {
			return nil, err
		}
	}

	value, err := DecodeScalarV1(src, enc, kind)
	if err != nil {
		return nil, err
	}

	node := model.NewNode(name, value)

	if !noAttrs {
		count, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateBufferSize(count, utils.MaxChildCount, "v1 attribute count"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "attribute count too large", err)
		}
		for i := uint64(0); i < count; i++ {
			attr, err := readAttributeV1(src, enc)
			if err != nil {
				return nil, err
			}
			node.AddAttribute(attr)
		}
	}

	for i := 0; i < childCount; i++ {
		child, err := readNodeV1(src, enc)
		if err != nil {
			return nil, err
		}
		if _, err := node.Add(child); err != nil {
			return nil, err
		}
	}

	return node, nil
}

func readAttributeV1(src stream.Source, enc textenc.ID) (*model.Attribute, error) {
	tag, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading attribute tag", err)
	}
	kind, ok := KindFromWireID(tag & tagValueTypeMask)
	if !ok {
		return nil, fluxionerr.UnknownValueType(tag & tagValueTypeMask)
	}
	name := ""
	if tag&tagHasName != 0 {
		name, err = readLenPrefixedName(src, enc)
		if err != nil {
			return nil, err
		}
	}
	value, err := DecodeScalarV1(src, enc, kind)
	if err != nil {
		return nil, err
	}
	return model.NewAttribute(name, value), nil
}

func readLenPrefixedName(src stream.Source, enc textenc.ID) (string, error) {
	raw, err := readLenPrefixed(src)
	if err != nil {
		return "", err
	}
	return textenc.Decode(enc, raw)
}
