package core

import (
	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
	"github.com/fluxionfmt/fluxion/internal/utils"
	"github.com/fluxionfmt/fluxion/internal/varint"
)

// poolEntry is one deduplicated string or scalar value in the v2 pool.
// The poolBuilder index key prefix separates the three dedup namespaces:
// a string-like entry ("s|", used by both node/attribute names and
// KindString values, which share the identical "varint len + bytes" wire
// shape), a KindBytes entry ("b|"), or a scalar numeric entry ("v|")
// keyed by its own Value.Kind.
type poolEntry struct {
	payload []byte
	offset  uint64
}

// poolBuilder accumulates deduplicated entries in first-encounter order
// during the v2 analysis pass, so the emitted pool is deterministic.
type poolBuilder struct {
	enc     textenc.ID
	entries []poolEntry
	index   map[string]int
}

func newPoolBuilder(enc textenc.ID) *poolBuilder {
	return &poolBuilder{enc: enc, index: make(map[string]int)}
}

// internString interns a name or a KindString value's encoded bytes,
// sharing one namespace since both use the same wire shape.
func (p *poolBuilder) internString(enc textenc.ID, s string) (int, error) {
	raw, err := textenc.Encode(enc, s)
	if err != nil {
		return 0, err
	}
	return p.intern("s|"+string(raw), append(varint.Encode(nil, uint64(len(raw))), raw...)), nil
}

// internValue interns a non-empty scalar value, keyed by kind plus its
// pooled payload bytes so distinct kinds never alias. Bytes-valued
// entries are keyed by their digest rather than the raw payload (spec
// §4.5: "bytes-valued entries are keyed by their cryptographic digest").
func (p *poolBuilder) internValue(v model.Value) (int, error) {
	payload, err := EncodePooledPayload(nil, p.enc, v)
	if err != nil {
		return 0, err
	}
	return p.intern(poolValueKey(v, payload), payload), nil
}

func (p *poolBuilder) intern(key string, payload []byte) int {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := len(p.entries)
	p.entries = append(p.entries, poolEntry{payload: payload})
	p.index[key] = i
	return i
}

func (p *poolBuilder) totalSize() uint64 {
	var total uint64
	for _, e := range p.entries {
		total += uint64(len(e.payload))
	}
	return total
}

// needsPoolEntry reports whether v is eligible for the unique-flag
// shortcut (empty/zero, no pool entry) or needs a pool entry.
func needsPoolEntry(v model.Value) bool {
	return storesData(v.Kind()) && !v.IsZeroOrEmpty()
}

// EncodeV2 writes root in the v2 pooled, seek-based layout: a
// content-addressed pool of names and non-empty values, followed by
// the tree as a sequence of (tag, pool-offset) records.
func EncodeV2(sink stream.Sink, enc textenc.ID, root *model.Node) error {
	pool := newPoolBuilder(enc)
	if err := analyzeV2(pool, enc, root); err != nil {
		return err
	}

	base := uint64(sink.Position())
	poolSize := pool.totalSize()
	treeStart, err := solveTreeStart(base, poolSize)
	if err != nil {
		return err
	}

	if err := sink.WriteAll(varint.Encode(nil, treeStart)); err != nil {
		return err
	}

	poolStart := uint64(sink.Position())
	if poolStart != treeStart-poolSize {
		return fluxionerr.EstimationMismatch(treeStart-poolSize, poolStart)
	}
	for i := range pool.entries {
		pool.entries[i].offset = uint64(sink.Position())
		if err := sink.WriteAll(pool.entries[i].payload); err != nil {
			return err
		}
	}
	if uint64(sink.Position()) != treeStart {
		return fluxionerr.EstimationMismatch(treeStart, uint64(sink.Position()))
	}

	return writeNodeV2(sink, pool, enc, root)
}

// solveTreeStart finds the treeStart satisfying
// treeStart == base + varintSize(treeStart) + poolSize, a fixed point
// since varintSize only changes at power-of-128 boundaries.
func solveTreeStart(base, poolSize uint64) (uint64, error) {
	candidate := base + 1 + poolSize
	for i := 0; i < 16; i++ {
		size := uint64(varint.Size(candidate))
		next := base + size + poolSize
		if next == candidate {
			return candidate, nil
		}
		candidate = next
	}
	return 0, fluxionerr.New(fluxionerr.KindEstimationMismatch, "treeStart varint length did not converge")
}

func analyzeV2(pool *poolBuilder, enc textenc.ID, n *model.Node) error {
	if n.Name() != "" {
		if _, err := pool.internString(enc, n.Name()); err != nil {
			return err
		}
	}
	if needsPoolEntry(n.Value()) {
		if v := n.Value(); v.Kind() == model.KindString {
			s, _ := v.String()
			if _, err := pool.internString(enc, s); err != nil {
				return err
			}
		} else if _, err := pool.internValue(v); err != nil {
			return err
		}
	}
	for _, a := range n.Attributes() {
		if a.Name() != "" {
			if _, err := pool.internString(enc, a.Name()); err != nil {
				return err
			}
		}
		if needsPoolEntry(a.Value()) {
			if v := a.Value(); v.Kind() == model.KindString {
				s, _ := v.String()
				if _, err := pool.internString(enc, s); err != nil {
					return err
				}
			} else if _, err := pool.internValue(v); err != nil {
				return err
			}
		}
	}
	for _, c := range n.Children() {
		if err := analyzeV2(pool, enc, c); err != nil {
			return err
		}
	}
	return nil
}

func stringOffset(pool *poolBuilder, enc textenc.ID, s string) (uint64, error) {
	raw, err := textenc.Encode(enc, s)
	if err != nil {
		return 0, err
	}
	key := "s|" + string(raw)
	i, ok := pool.index[key]
	if !ok {
		return 0, fluxionerr.AnalyzedDataMissing("string not found in v2 pool: " + s)
	}
	return pool.entries[i].offset, nil
}

func valueOffset(pool *poolBuilder, v model.Value) (uint64, error) {
	if v.Kind() == model.KindString {
		s, _ := v.String()
		return stringOffset(pool, pool.enc, s)
	}
	payload, err := EncodePooledPayload(nil, pool.enc, v)
	if err != nil {
		return 0, err
	}
	i, ok := pool.index[poolValueKey(v, payload)]
	if !ok {
		return 0, fluxionerr.AnalyzedDataMissing("value not found in v2 pool")
	}
	return pool.entries[i].offset, nil
}

func writeNodeV2(sink stream.Sink, pool *poolBuilder, enc textenc.ID, n *model.Node) error {
	children := n.Children()
	attrs := n.Attributes()
	value := n.Value()
	unique := !needsPoolEntry(value)

	tag := WireID(value.Kind())
	if n.Name() != "" {
		tag |= tagHasName
	}
	if len(children) == 0 {
		tag |= tagNoChildren
	}
	if len(attrs) == 0 {
		tag |= tagNoAttrs
	}
	if unique {
		tag |= 1 << 7
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
		off, err := stringOffset(pool, enc, n.Name())
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, off)); err != nil {
			return err
		}
	}
	if !unique {
		off, err := valueOffset(pool, value)
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, off)); err != nil {
			return err
		}
	}
	if len(attrs) != 0 {
		if err := sink.WriteAll(varint.Encode(nil, uint64(len(attrs)))); err != nil {
			return err
		}
		for _, a := range attrs {
			if err := writeAttributeV2(sink, pool, enc, a); err != nil {
				return err
			}
		}
	}
	for _, c := range children {
		if err := writeNodeV2(sink, pool, enc, c); err != nil {
			return err
		}
	}
	return nil
}

func writeAttributeV2(sink stream.Sink, pool *poolBuilder, enc textenc.ID, a *model.Attribute) error {
	value := a.Value()
	unique := !needsPoolEntry(value)

	tag := WireID(value.Kind())
	if a.Name() != "" {
		tag |= tagHasName
	}
	if unique {
		tag |= 1 << 7
	}
	if err := sink.WriteByte(tag); err != nil {
		return err
	}
	if a.Name() != "" {
		off, err := stringOffset(pool, enc, a.Name())
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, off)); err != nil {
			return err
		}
	}
	if !unique {
		off, err := valueOffset(pool, value)
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, off)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeV2 reads a v2 body (the tree that follows the header) and
// returns the root node. It requires a seekable Source.
func DecodeV2(src stream.Source, enc textenc.ID) (*model.Node, error) {
	treeStart, err := varint.Decode(byteReaderAdapter{src})
	if err != nil {
		return nil, err
	}
	if err := src.Seek(int64(treeStart)); err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindDisorientedRead, "seeking to v2 tree start", err)
	}
	return readNodeV2(src, enc)
}

func resolvePoolString(src stream.Source, enc textenc.ID, offset uint64) (string, error) {
	save := src.Position()
	if err := src.Seek(int64(offset)); err != nil {
		return "", fluxionerr.Wrap(fluxionerr.KindDisorientedRead, "seeking to pool string", err)
	}
	raw, err := readLenPrefixed(src)
	if err != nil {
		return "", err
	}
	s, err := textenc.Decode(enc, raw)
	if err != nil {
		return "", err
	}
	if err := src.Seek(save); err != nil {
		return "", fluxionerr.Wrap(fluxionerr.KindDisorientedRead, "restoring position after pool string", err)
	}
	return s, nil
}

func resolvePoolValue(src stream.Source, enc textenc.ID, kind model.Kind, offset uint64) (model.Value, error) {
	if kind == model.KindString {
		s, err := resolvePoolString(src, enc, offset)
		if err != nil {
			return model.Value{}, err
		}
		return model.String(s), nil
	}
	save := src.Position()
	if err := src.Seek(int64(offset)); err != nil {
		return model.Value{}, fluxionerr.Wrap(fluxionerr.KindDisorientedRead, "seeking to pool value", err)
	}
	v, err := DecodePooledPayload(src, enc, kind)
	if err != nil {
		return model.Value{}, err
	}
	if err := src.Seek(save); err != nil {
		return model.Value{}, fluxionerr.Wrap(fluxionerr.KindDisorientedRead, "restoring position after pool value", err)
	}
	return v, nil
}

// canonicalEmpty returns the canonical empty/zero Value for a kind, used
// when the unique-flag says "no pool entry, use the zero form".
func canonicalEmpty(kind model.Kind) model.Value {
	switch kind {
	case model.KindNull:
		return model.Null()
	case model.KindTrue:
		return model.Bool(true)
	case model.KindFalse:
		return model.Bool(false)
	case model.KindU8:
		return model.U8(0)
	case model.KindI8:
		return model.I8(0)
	case model.KindU16Char:
		return model.U16Char(0)
	case model.KindI16:
		return model.I16(0)
	case model.KindU16:
		return model.U16(0)
	case model.KindI32:
		return model.I32(0)
	case model.KindU32:
		return model.U32(0)
	case model.KindI64:
		return model.I64(0)
	case model.KindU64:
		return model.U64(0)
	case model.KindF32:
		return model.F32(0)
	case model.KindF64:
		return model.F64(0)
	case model.KindString:
		return model.String("")
	case model.KindBytes:
		return model.Bytes(nil)
	default:
		return model.Null()
	}
}

func readNodeV2(src stream.Source, enc textenc.ID) (*model.Node, error) {
	tag, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v2 node tag", err)
	}
	kind, ok := KindFromWireID(tag & tagValueTypeMask)
	if !ok {
		return nil, fluxionerr.UnknownValueType(tag & tagValueTypeMask)
	}
	hasName := tag&tagHasName != 0
	noChildren := tag&tagNoChildren != 0
	noAttrs := tag&tagNoAttrs != 0
	unique := tag&(1<<7) != 0

	childCount := 0
	if !noChildren {
		n, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateBufferSize(n, utils.MaxChildCount, "v2 child count"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "child count too large", err)
		}
		childCount = int(n)
	}

	name := ""
	if hasName {
		off, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		name, err = resolvePoolString(src, enc, off)
		if err != nil {
			return nil, err
		}
	}

	var value model.Value
	if unique {
		value = canonicalEmpty(kind)
	} else if storesData(kind) {
		off, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		value, err = resolvePoolValue(src, enc, kind, off)
		if err != nil {
			return nil, err
		}
	} else {
		value = canonicalEmpty(kind)
	}

	node := model.NewNode(name, value)

	if !noAttrs {
		count, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if err := utils.ValidateBufferSize(count, utils.MaxChildCount, "v2 attribute count"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "attribute count too large", err)
		}
		for i := uint64(0); i < count; i++ {
			attr, err := readAttributeV2(src, enc)
			if err != nil {
				return nil, err
			}
			node.AddAttribute(attr)
		}
	}

	for i := 0; i < childCount; i++ {
		child, err := readNodeV2(src, enc)
		if err != nil {
			return nil, err
		}
		if _, err := node.Add(child); err != nil {
			return nil, err
		}
	}

	return node, nil
}

func readAttributeV2(src stream.Source, enc textenc.ID) (*model.Attribute, error) {
	tag, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v2 attribute tag", err)
	}
	kind, ok := KindFromWireID(tag & tagValueTypeMask)
	if !ok {
		return nil, fluxionerr.UnknownValueType(tag & tagValueTypeMask)
	}
	unique := tag&(1<<7) != 0

	name := ""
	if tag&tagHasName != 0 {
		off, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		name, err = resolvePoolString(src, enc, off)
		if err != nil {
			return nil, err
		}
	}

	var value model.Value
	if unique || !storesData(kind) {
		value = canonicalEmpty(kind)
	} else {
		off, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		value, err = resolvePoolValue(src, enc, kind, off)
		if err != nil {
			return nil, err
		}
	}

	return model.NewAttribute(name, value), nil
}
