package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
	"github.com/fluxionfmt/fluxion/internal/model"
	"github.com/fluxionfmt/fluxion/internal/stream"
	"github.com/fluxionfmt/fluxion/internal/textenc"
	"github.com/fluxionfmt/fluxion/internal/utils"
	"github.com/fluxionfmt/fluxion/internal/varint"
)

// v3 tag bit layout (spec §4.6).
const (
	v3BitReference = 1 << 0
	v3BitAttribute = 1 << 1
	v3BitHasName   = 1 << 2
	v3BitHasValue  = 1 << 3

	// Node-only bits 4..7.
	v3BitHasChildren    = 1 << 4
	v3BitCopyChildren   = 1 << 5
	v3BitHasAttributes  = 1 << 6
	v3BitCopyAttributes = 1 << 7

	v3IndexKindExplicit = 0
	v3IndexKindRange    = 1
)

// v3Item is the flattened, pre-optimization representation of one node or
// attribute, produced by the post-order flatten pass. children/attrs hold
// the logical item indices of this node's children/attributes — fixed at
// flatten time and never renumbered by the optimize pass.
type v3Item struct {
	isAttribute bool
	hasName     bool
	name        string
	value       model.Value
	children    []int
	attrs       []int
}

// v3Pool is the v3 data pool: deduplicated names and scalar values,
// addressed by index rather than byte offset (unlike the v2 pool).
type v3Pool struct {
	kinds    []model.Kind
	payloads [][]byte
	index    map[string]int
}

func newV3Pool() *v3Pool {
	return &v3Pool{index: make(map[string]int)}
}

func (p *v3Pool) internString(s string) (int, error) {
	payload, err := EncodePooledPayload(nil, textenc.UTF8, model.String(s))
	if err != nil {
		return 0, err
	}
	return p.intern("n|"+s, model.KindString, payload), nil
}

func (p *v3Pool) internValue(v model.Value) (int, error) {
	if v.Kind() == model.KindString {
		s, _ := v.String()
		return p.internString(s)
	}
	payload, err := EncodePooledPayload(nil, textenc.UTF8, v)
	if err != nil {
		return 0, err
	}
	return p.intern(poolValueKey(v, payload), v.Kind(), payload), nil
}

// poolValueKey uses the digest of a bytes payload as the dedup key (spec
// §4.5: "bytes-valued entries are keyed by their cryptographic digest");
// every other scalar kind is small and self-delimiting, so its own
// encoded payload is already a fine map key.
func poolValueKey(v model.Value, payload []byte) string {
	if v.Kind() == model.KindBytes {
		return "b|" + digestHex(payload)
	}
	return fmt.Sprintf("v|%d|%s", v.Kind(), payload)
}

func (p *v3Pool) intern(key string, kind model.Kind, payload []byte) int {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := len(p.kinds)
	p.kinds = append(p.kinds, kind)
	p.payloads = append(p.payloads, payload)
	p.index[key] = i
	return i
}

// ---- pass 1: count ----

func countItemsV3(n *model.Node) int {
	total := 1 + len(n.Attributes())
	for _, c := range n.Children() {
		total += countItemsV3(c)
	}
	return total
}

// ---- pass 2: flatten (post-order) ----

func flattenV3(pool *v3Pool, items *[]v3Item, n *model.Node) (int, error) {
	childIdx := make([]int, 0, len(n.Children()))
	for _, c := range n.Children() {
		idx, err := flattenV3(pool, items, c)
		if err != nil {
			return 0, err
		}
		childIdx = append(childIdx, idx)
	}

	attrIdx := make([]int, 0, len(n.Attributes()))
	for _, a := range n.Attributes() {
		idx, err := flattenAttributeV3(pool, items, a)
		if err != nil {
			return 0, err
		}
		attrIdx = append(attrIdx, idx)
	}

	it := v3Item{value: n.Value(), children: childIdx, attrs: attrIdx}
	if n.Name() != "" {
		it.hasName = true
		it.name = n.Name()
	}
	*items = append(*items, it)
	return len(*items) - 1, nil
}

func flattenAttributeV3(pool *v3Pool, items *[]v3Item, a *model.Attribute) (int, error) {
	it := v3Item{isAttribute: true, value: a.Value()}
	if a.Name() != "" {
		it.hasName = true
		it.name = a.Name()
	}
	*items = append(*items, it)
	return len(*items) - 1, nil
}

// ---- pass 3: optimize (reference compression) ----

// classify assigns each item an equivalence class: classOf[i] == i means
// item i is novel (the canonical copy); classOf[i] == j < i means item i
// is a full structural duplicate of item j, the first item seen with that
// signature. Processing items in ascending
// (post-order) index guarantees every child/attribute of item i has
// already been classified, so the signature below compares resolved
// classes rather than raw indices — two structurally identical subtrees
// collapse to the same signature regardless of where their own internal
// duplicates were first seen.
//
// This implementation always proposes a FULL reference (name, value,
// children, and attributes all inherited) on a match; the spec's
// "optionally mark copyChildren/copyAttributes if the equal item's sets
// are a superset" partial-copy refinement (matching only the children or
// only the attributes of a non-identical node) is not implemented — every
// reference in this writer is a complete duplicate.
func classifyV3(items []v3Item, tol model.Tolerance) []int {
	classOf := make([]int, len(items))
	seen := make(map[string]int, len(items))
	for i, it := range items {
		key := signatureV3(it, classOf, tol)
		if j, ok := seen[key]; ok {
			classOf[i] = j
			continue
		}
		classOf[i] = i
		seen[key] = i
	}
	return classOf
}

func signatureV3(it v3Item, classOf []int, tol model.Tolerance) string {
	var b strings.Builder
	if it.isAttribute {
		b.WriteByte('A')
	} else {
		b.WriteByte('N')
	}
	b.WriteByte('|')
	if it.hasName {
		b.WriteString(it.name)
	}
	b.WriteByte('|')
	b.WriteString(valueSignature(it.value, tol))
	if !it.isAttribute {
		b.WriteByte('|')
		for _, c := range it.children {
			fmt.Fprintf(&b, "%d,", classOf[c])
		}
		b.WriteByte('|')
		for _, a := range it.attrs {
			fmt.Fprintf(&b, "%d,", classOf[a])
		}
	}
	return b.String()
}

// valueSignature produces a key in which floats within tol of each other
// collide, matching the tolerance-aware equality the optimizer must use
// (spec design notes: "the optimizer's equivalence predicate MUST use the
// same float tolerance that was provided for the write operation").
func valueSignature(v model.Value, tol model.Tolerance) string {
	switch v.Kind() {
	case model.KindF32:
		f, _ := v.Float32()
		if tol.F32 > 0 {
			return fmt.Sprintf("%d:%d", v.Kind(), int64(math.Round(float64(f)/float64(tol.F32))))
		}
		return fmt.Sprintf("%d:%x", v.Kind(), math.Float32bits(f))
	case model.KindF64:
		f, _ := v.Float64()
		if tol.F64 > 0 {
			return fmt.Sprintf("%d:%d", v.Kind(), int64(math.Round(f/tol.F64)))
		}
		return fmt.Sprintf("%d:%x", v.Kind(), math.Float64bits(f))
	case model.KindString:
		s, _ := v.String()
		return fmt.Sprintf("%d:%s", v.Kind(), s)
	case model.KindBytes:
		bs, _ := v.Bytes()
		return fmt.Sprintf("%d:%s", v.Kind(), bs)
	case model.KindU8, model.KindU16Char, model.KindU16, model.KindU32, model.KindU64:
		u, _ := v.Uint()
		return fmt.Sprintf("%d:%d", v.Kind(), u)
	case model.KindI8, model.KindI16, model.KindI32, model.KindI64:
		i, _ := v.Int()
		return fmt.Sprintf("%d:%d", v.Kind(), i)
	default: // null, true, false
		return fmt.Sprintf("%d", v.Kind())
	}
}

// v3Record is one physical on-wire record, covering a run of `count`
// consecutive logical items (count > 1 only for a reference run — see
// buildRecordsV3).
type v3Record struct {
	item           v3Item // metadata for an explicit record, or the referencing item's own kind bits
	isReference    bool
	referenceID    int
	referenceCount int
}

// buildRecordsV3 compresses classified items into physical records: a
// novel item becomes one explicit record; a maximal run of consecutive
// items sharing the same (non-self) class becomes one reference record
// with referenceCount equal to the run length (spec: "consecutive
// identical items may instead bump the earlier item's referenceCount").
func buildRecordsV3(items []v3Item, classOf []int) []v3Record {
	records := make([]v3Record, 0, len(items))
	i := 0
	for i < len(items) {
		if classOf[i] == i {
			records = append(records, v3Record{item: items[i]})
			i++
			continue
		}
		ref := classOf[i]
		j := i + 1
		for j < len(items) && classOf[j] == ref {
			j++
		}
		records = append(records, v3Record{item: items[i], isReference: true, referenceID: ref, referenceCount: j - i})
		i = j
	}
	return records
}

// isConsecutiveRun reports whether idxs is non-empty and strictly
// increasing by exactly 1 from its first element — the spec pins this as
// the only shape eligible for the compact "range" child/attribute
// encoding (kind 1); every other set, including any set that is merely
// sorted with gaps, uses the explicit list (kind 0).
func isConsecutiveRun(idxs []int) bool {
	if len(idxs) == 0 {
		return false
	}
	for i := 1; i < len(idxs); i++ {
		if idxs[i] != idxs[i-1]+1 {
			return false
		}
	}
	return true
}

// EncodeV3 writes root in the v3 flattened item-table layout: a data
// pool of deduplicated names/values, an array of node/attribute items
// (each optionally a reference to an earlier item), and a root index.
// When optimize is true (the default), structurally identical subtrees
// collapse into reference items instead of being re-emitted in full.
func EncodeV3(sink stream.Sink, root *model.Node, tol model.Tolerance, optimize bool) error {
	pool := newV3Pool()
	items := make([]v3Item, 0, countItemsV3(root))
	rootIdx, err := flattenV3(pool, &items, root)
	if err != nil {
		return err
	}

	classOf := make([]int, len(items))
	for i := range classOf {
		classOf[i] = i
	}
	if optimize {
		classOf = classifyV3(items, tol)
	}
	records := buildRecordsV3(items, classOf)

	// Pool every explicit record's name and value before the pool is written.
	for _, rec := range records {
		if rec.isReference {
			continue
		}
		if rec.item.hasName {
			if _, err := pool.internString(rec.item.name); err != nil {
				return err
			}
		}
		if _, err := pool.internValue(rec.item.value); err != nil {
			return err
		}
	}

	if err := sink.WriteAll(varint.Encode(nil, uint64(len(items)))); err != nil {
		return err
	}
	if err := sink.WriteAll(varint.Encode(nil, uint64(len(pool.kinds)))); err != nil {
		return err
	}
	for i, kind := range pool.kinds {
		if err := sink.WriteByte(WireID(kind)); err != nil {
			return err
		}
		if err := sink.WriteAll(pool.payloads[i]); err != nil {
			return err
		}
	}

	// valueIDOf resolves the pool index for an explicit item's own value.
	// Every explicit name and value was interned above, so these lookups
	// only find existing entries and never grow the pool already written.
	valueIDOf := func(v model.Value) (int, error) {
		if v.Kind() == model.KindString {
			s, _ := v.String()
			return pool.internString(s)
		}
		return pool.internValue(v)
	}
	nameIDOf := func(s string) (int, error) {
		return pool.internString(s)
	}

	for _, rec := range records {
		if err := writeRecordV3(sink, rec, nameIDOf, valueIDOf); err != nil {
			return err
		}
	}

	return sink.WriteAll(varint.Encode(nil, uint64(rootIdx)))
}

func writeRecordV3(sink stream.Sink, rec v3Record, nameIDOf func(string) (int, error), valueIDOf func(model.Value) (int, error)) error {
	it := rec.item
	var tag byte
	if rec.isReference {
		tag |= v3BitReference
	}
	if it.isAttribute {
		tag |= v3BitAttribute
	}

	explicitName := !rec.isReference && it.hasName
	explicitValue := !rec.isReference
	explicitChildren := !rec.isReference && !it.isAttribute && len(it.children) != 0
	explicitAttrs := !rec.isReference && !it.isAttribute && len(it.attrs) != 0

	if explicitName {
		tag |= v3BitHasName
	}
	if explicitValue {
		tag |= v3BitHasValue
	}
	if it.isAttribute {
		tag |= WireID(it.value.Kind()) << 4
	} else {
		if explicitChildren {
			tag |= v3BitHasChildren
		}
		if rec.isReference {
			tag |= v3BitCopyChildren
		}
		if explicitAttrs {
			tag |= v3BitHasAttributes
		}
		if rec.isReference {
			tag |= v3BitCopyAttributes
		}
	}

	if err := sink.WriteByte(tag); err != nil {
		return err
	}

	if rec.isReference {
		if err := sink.WriteAll(varint.Encode(nil, uint64(rec.referenceID))); err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, uint64(rec.referenceCount))); err != nil {
			return err
		}
	}

	if explicitName {
		id, err := nameIDOf(it.name)
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, uint64(id))); err != nil {
			return err
		}
	}

	if explicitValue {
		if !it.isAttribute {
			if err := sink.WriteByte(WireID(it.value.Kind())); err != nil {
				return err
			}
		}
		id, err := valueIDOf(it.value)
		if err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, uint64(id))); err != nil {
			return err
		}
	}

	if explicitChildren {
		if err := writeIndexListV3(sink, it.children); err != nil {
			return err
		}
	}
	if explicitAttrs {
		if err := writeIndexListV3(sink, it.attrs); err != nil {
			return err
		}
	}
	return nil
}

func writeIndexListV3(sink stream.Sink, idxs []int) error {
	if isConsecutiveRun(idxs) {
		if err := sink.WriteByte(v3IndexKindRange); err != nil {
			return err
		}
		if err := sink.WriteAll(varint.Encode(nil, uint64(idxs[0]))); err != nil {
			return err
		}
		return sink.WriteAll(varint.Encode(nil, uint64(idxs[len(idxs)-1])))
	}
	if err := sink.WriteByte(v3IndexKindExplicit); err != nil {
		return err
	}
	if err := sink.WriteAll(varint.Encode(nil, uint64(len(idxs)))); err != nil {
		return err
	}
	for _, idx := range idxs {
		if err := sink.WriteAll(varint.Encode(nil, uint64(idx))); err != nil {
			return err
		}
	}
	return nil
}

// indexEntrySize is the in-memory footprint of one decoded child/attribute
// index (an int). Both index-list shapes below run the declared element
// count through SafeMultiply against this before trusting it for an
// allocation, the same "count * elementSize, then bounds-check" guard the
// teacher runs over its own attacker-controlled on-disk counts.
const indexEntrySize = 8

func readIndexListV3(src stream.Source) ([]int, error) {
	kindByte, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v3 index-list kind", err)
	}
	switch kindByte {
	case v3IndexKindExplicit:
		count, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		byteSize, err := utils.SafeMultiply(count, indexEntrySize)
		if err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "index list size overflow", err)
		}
		if err := utils.ValidateBufferSize(byteSize, utils.MaxChildCount*indexEntrySize, "v3 index list"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "index list too large", err)
		}
		idxs := make([]int, count)
		for i := range idxs {
			v, err := varint.Decode(byteReaderAdapter{src})
			if err != nil {
				return nil, err
			}
			idxs[i] = int(v)
		}
		return idxs, nil
	case v3IndexKindRange:
		minIdx, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		maxIdx, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if maxIdx < minIdx {
			return nil, fluxionerr.DisorientedRead(kindByte)
		}
		count, err := utils.SafeAdd(maxIdx-minIdx, 1)
		if err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "index range size overflow", err)
		}
		byteSize, err := utils.SafeMultiply(count, indexEntrySize)
		if err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "index range size overflow", err)
		}
		if err := utils.ValidateBufferSize(byteSize, utils.MaxChildCount*indexEntrySize, "v3 index range"); err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "index range too large", err)
		}
		idxs := make([]int, count)
		for i := range idxs {
			idxs[i] = int(minIdx) + i
		}
		return idxs, nil
	default:
		return nil, fluxionerr.DisorientedRead(kindByte)
	}
}

// v3Materialized is one decoded logical item: either a node or an
// attribute, never both.
type v3Materialized struct {
	node *model.Node
	attr *model.Attribute
}

// DecodeV3 reads a v3 body (the tree that follows the header) and
// returns the root node.
func DecodeV3(src stream.Source) (*model.Node, error) {
	itemCount, err := varint.Decode(byteReaderAdapter{src})
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateBufferSize(itemCount, utils.MaxItemCount, "v3 item count"); err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "item count too large", err)
	}
	dataCount, err := varint.Decode(byteReaderAdapter{src})
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateBufferSize(dataCount, utils.MaxItemCount, "v3 data pool count"); err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "data pool too large", err)
	}

	pool := make([]model.Value, dataCount)
	for i := range pool {
		kindByte, err := src.ReadByte()
		if err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v3 pool entry type", err)
		}
		kind, ok := KindFromWireID(kindByte)
		if !ok {
			return nil, fluxionerr.UnknownValueType(kindByte)
		}
		v, err := DecodePooledPayload(src, textenc.UTF8, kind)
		if err != nil {
			return nil, err
		}
		pool[i] = v
	}

	materialized := make([]v3Materialized, 0, itemCount)
	for uint64(len(materialized)) < itemCount {
		next, err := readRecordV3(src, pool, materialized)
		if err != nil {
			return nil, err
		}
		materialized = append(materialized, next...)
	}

	rootIdx, err := varint.Decode(byteReaderAdapter{src})
	if err != nil {
		return nil, err
	}
	if rootIdx >= uint64(len(materialized)) || materialized[rootIdx].node == nil {
		return nil, fluxionerr.UnexpectedItemType(int(rootIdx), "node")
	}
	return materialized[rootIdx].node, nil
}

func poolString(pool []model.Value, id uint64) (string, error) {
	if id >= uint64(len(pool)) {
		return "", fluxionerr.AnalyzedDataMissing("v3 name data id out of range")
	}
	s, ok := pool[id].String()
	if !ok {
		return "", fluxionerr.ValueTypeMismatch(WireID(model.KindString), WireID(pool[id].Kind()))
	}
	return s, nil
}

// readRecordV3 decodes one physical record and returns the one or more
// (referenceCount) logical items it materializes.
func readRecordV3(src stream.Source, pool []model.Value, prior []v3Materialized) ([]v3Materialized, error) {
	tag, err := src.ReadByte()
	if err != nil {
		return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v3 item tag", err)
	}
	isReference := tag&v3BitReference != 0
	isAttribute := tag&v3BitAttribute != 0
	hasName := tag&v3BitHasName != 0
	hasValue := tag&v3BitHasValue != 0

	var refID, refCount uint64 = 0, 1
	if isReference {
		refID, err = varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		refCount, err = varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if refCount == 0 {
			return nil, fluxionerr.DisorientedRead(tag)
		}
		if refID >= uint64(len(prior)) {
			return nil, fluxionerr.AnalyzedDataMissing("v3 reference id out of range")
		}
	}

	var explicitName string
	if hasName {
		id, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		explicitName, err = poolString(pool, id)
		if err != nil {
			return nil, err
		}
	}

	if isAttribute {
		declaredKind, ok := KindFromWireID(byte(tag >> 4))
		if !ok {
			return nil, fluxionerr.UnknownValueType(byte(tag >> 4))
		}
		var explicitValue model.Value
		if hasValue {
			id, err := varint.Decode(byteReaderAdapter{src})
			if err != nil {
				return nil, err
			}
			if id >= uint64(len(pool)) {
				return nil, fluxionerr.AnalyzedDataMissing("v3 value data id out of range")
			}
			if pool[id].Kind() != declaredKind {
				return nil, fluxionerr.ValueTypeMismatch(WireID(declaredKind), WireID(pool[id].Kind()))
			}
			explicitValue = pool[id]
		}

		var base *model.Attribute
		if isReference {
			if prior[refID].attr == nil {
				return nil, fluxionerr.UnexpectedItemType(int(refID), "attribute")
			}
			base = prior[refID].attr
		}

		out := make([]v3Materialized, 0, refCount)
		for k := uint64(0); k < refCount; k++ {
			name := ""
			switch {
			case hasName:
				name = explicitName
			case isReference:
				name = base.Name()
			}
			value := model.Null()
			switch {
			case hasValue:
				value = explicitValue
			case isReference:
				value = base.Value()
			}
			out = append(out, v3Materialized{attr: model.NewAttribute(name, value)})
		}
		return out, nil
	}

	// Node.
	hasChildren := tag&v3BitHasChildren != 0
	copyChildren := tag&v3BitCopyChildren != 0
	hasAttrs := tag&v3BitHasAttributes != 0
	copyAttrs := tag&v3BitCopyAttributes != 0

	var explicitValue model.Value
	if hasValue {
		valueTypeByte, err := src.ReadByte()
		if err != nil {
			return nil, fluxionerr.Wrap(fluxionerr.KindEndOfStream, "reading v3 node value type", err)
		}
		declaredKind, ok := KindFromWireID(valueTypeByte)
		if !ok {
			return nil, fluxionerr.UnknownValueType(valueTypeByte)
		}
		id, err := varint.Decode(byteReaderAdapter{src})
		if err != nil {
			return nil, err
		}
		if id >= uint64(len(pool)) {
			return nil, fluxionerr.AnalyzedDataMissing("v3 value data id out of range")
		}
		if pool[id].Kind() != declaredKind {
			return nil, fluxionerr.ValueTypeMismatch(WireID(declaredKind), WireID(pool[id].Kind()))
		}
		explicitValue = pool[id]
	}

	var explicitChildren, explicitAttrs []int
	if hasChildren {
		explicitChildren, err = readIndexListV3(src)
		if err != nil {
			return nil, err
		}
	}
	if hasAttrs {
		explicitAttrs, err = readIndexListV3(src)
		if err != nil {
			return nil, err
		}
	}

	var base *model.Node
	if isReference {
		if prior[refID].node == nil {
			return nil, fluxionerr.UnexpectedItemType(int(refID), "node")
		}
		base = prior[refID].node
	}

	out := make([]v3Materialized, 0, refCount)
	for k := uint64(0); k < refCount; k++ {
		name := ""
		switch {
		case hasName:
			name = explicitName
		case isReference:
			name = base.Name()
		}
		value := model.Null()
		switch {
		case hasValue:
			value = explicitValue
		case isReference:
			value = base.Value()
		}
		node := model.NewNode(name, value)

		switch {
		case hasChildren:
			for _, ci := range explicitChildren {
				if ci >= len(prior) {
					return nil, fluxionerr.AnalyzedDataMissing("v3 child index out of range")
				}
				if prior[ci].node == nil {
					return nil, fluxionerr.UnexpectedItemType(ci, "node")
				}
				if _, err := node.Add(prior[ci].node); err != nil {
					return nil, err
				}
			}
		case copyChildren && isReference:
			for _, c := range base.Children() {
				if _, err := node.Add(c.Clone(true, true, true, true)); err != nil {
					return nil, err
				}
			}
		}

		switch {
		case hasAttrs:
			for _, ai := range explicitAttrs {
				if ai >= len(prior) || prior[ai].attr == nil {
					return nil, fluxionerr.UnexpectedItemType(ai, "attribute")
				}
				node.AddAttribute(prior[ai].attr)
			}
		case copyAttrs && isReference:
			for _, a := range base.Attributes() {
				node.AddAttribute(a.Clone(true, true))
			}
		}

		out = append(out, v3Materialized{node: node})
	}
	return out, nil
}
