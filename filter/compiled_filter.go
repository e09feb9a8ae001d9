package filter

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Flavor selects which attribute set a compiled filter was built over. The
// source ships three, matching the three IP-awareness levels a packet
// pipeline typically needs: device/VLAN/proto/ports only, IPv4, and IPv6.
type Flavor int

const (
	FlavorL2 Flavor = iota
	FlavorIPv4
	FlavorIPv6
)

// AttrDevice, AttrVLAN, ... name the fixed attribute slots a Flavor can
// include, in the order CompiledFilter's action table dimensions them.
const (
	AttrDevice = iota
	AttrVLAN
	AttrProto
	AttrSrcPort
	AttrDstPort
	AttrSrcNet
	AttrDstNet
	maxAttrs
)

// Attrs returns the ordered list of attribute slots a Flavor's action
// table is dimensioned over.
func (fl Flavor) Attrs() []int {
	base := []int{AttrDevice, AttrVLAN, AttrProto, AttrSrcPort, AttrDstPort}
	switch fl {
	case FlavorL2:
		return base
	case FlavorIPv4, FlavorIPv6:
		return append(base, AttrSrcNet, AttrDstNet)
	default:
		panic(fmt.Sprintf("filter: unknown flavor %d", fl))
	}
}

// AttributeClassifier is the contract a compiled per-attribute classifier
// (built by one of the classify package's plug-ins) exposes to
// CompiledFilter. It is deliberately the only thing CompiledFilter depends
// on from the classify package, so that filter itself never imports
// classify: driver, which does import both, wires the two together.
type AttributeClassifier interface {
	// Lookup returns the equivalence class Packet falls into for this
	// attribute; never fails, never allocates, never blocks.
	Lookup(pkt *Packet) uint32
	// NumClasses returns the dimension size (MaxClass()+1) to use for this
	// attribute's axis of the action table.
	NumClasses() int
}

// actionBlobHeader overlays the front of an ActionTable's backing buffer.
// Its two OffsetPtr fields are resolved relative to their own (possibly
// relocated) address, per offset.go, which is what lets an ActionTable
// survive being copied to a new base address: actionTableFromBlob only
// ever needs the buffer's new start address, never the one it was built
// at.
type actionBlobHeader struct {
	numDims uint32
	_       uint32 // padding, keeps the OffsetPtr fields 8-byte aligned
	dims    OffsetPtr[uint32]
	cells   OffsetPtr[uint32]
}

// ActionTable is the dense k-D cross-product table: action(c_1,...,c_k) =
// 1 + (index of the highest-priority rule whose per-attribute class ranges
// contain c_1..c_k respectively), or 0 if no rule matches. It is backed by a single
// Allocator-provided buffer laid out as [header][dims][cells], with the
// header's pointer fields relocation-safe exactly as described above.
type ActionTable struct {
	buf   []byte
	alloc Allocator
	hdr   *actionBlobHeader
	dims  []uint32
	cells []uint32
}

// BuildActionTable serializes a row-major dims-shaped array of cell values
// into a fresh Allocator-backed ActionTable.
func BuildActionTable(dims []int, cellValues []uint32, alloc Allocator) (*ActionTable, error) {
	if len(dims) == 0 || len(dims) > maxAttrs {
		return nil, NewCompileError(KindInternalInvariantViolation, "", fmt.Errorf("invalid action table rank %d", len(dims)))
	}
	size := 1
	for _, d := range dims {
		size *= d
	}
	if size != len(cellValues) {
		return nil, NewCompileError(KindInternalInvariantViolation, "", fmt.Errorf("cell count %d does not match dims %v", len(cellValues), dims))
	}

	headerSize := int(unsafe.Sizeof(actionBlobHeader{}))
	dimsSize := 4 * len(dims)
	cellsSize := 4 * len(cellValues)
	total := headerSize + dimsSize + cellsSize

	buf, err := alloc.Alloc(total)
	if err != nil {
		return nil, NewCompileError(KindOutOfMemory, "", err)
	}

	hdr := (*actionBlobHeader)(unsafe.Pointer(&buf[0]))
	hdr.numDims = uint32(len(dims))

	dimsSlot := (*uint32)(unsafe.Pointer(&buf[headerSize]))
	hdr.dims.Store(dimsSlot)
	dimsView := unsafe.Slice(dimsSlot, len(dims))
	for i, d := range dims {
		dimsView[i] = uint32(d)
	}

	cellsSlot := (*uint32)(unsafe.Pointer(&buf[headerSize+dimsSize]))
	hdr.cells.Store(cellsSlot)
	cellsView := unsafe.Slice(cellsSlot, len(cellValues))
	copy(cellsView, cellValues)

	return &ActionTable{buf: buf, alloc: alloc, hdr: hdr, dims: dimsView, cells: cellsView}, nil
}

// actionTableFromBlob reinterprets an already-populated buffer (at its
// current, possibly new, address) as an ActionTable, without copying.
func actionTableFromBlob(buf []byte, alloc Allocator) *ActionTable {
	hdr := (*actionBlobHeader)(unsafe.Pointer(&buf[0]))
	dimsPtr := hdr.dims.Load()
	cellsPtr := hdr.cells.Load()
	dims := unsafe.Slice(dimsPtr, hdr.numDims)

	size := 1
	for _, d := range dims {
		size *= int(d)
	}
	cells := unsafe.Slice(cellsPtr, size)

	return &ActionTable{buf: buf, alloc: alloc, hdr: hdr, dims: dims, cells: cells}
}

// Get returns the action stored at idx (one coordinate per dimension).
func (a *ActionTable) Get(idx []int) uint32 {
	off := 0
	stride := 1
	for i := len(a.dims) - 1; i >= 0; i-- {
		off += idx[i] * stride
		stride *= int(a.dims[i])
	}
	return a.cells[off]
}

// Dims returns the table's shape.
func (a *ActionTable) Dims() []int {
	out := make([]int, len(a.dims))
	for i, d := range a.dims {
		out[i] = int(d)
	}
	return out
}

// Bytes exposes the raw backing buffer, e.g. to copy it into shared
// memory; ActionTableFromBytes reconstructs a usable table from the copy.
func (a *ActionTable) Bytes() []byte {
	return a.buf
}

// ActionTableFromBytes reinterprets a buffer previously obtained from
// ActionTable.Bytes (possibly after being copied to a new address, process,
// or memory mapping) as a live ActionTable.
func ActionTableFromBytes(buf []byte, alloc Allocator) *ActionTable {
	return actionTableFromBlob(buf, alloc)
}

// compiledFilterHeader holds the filter's Flavor followed by a cache-line
// pad, so the CompiledFilter fields after it (read by every concurrent
// Lookup) start on a different cache line from the header. Lookup itself
// does not read the header; only Flavor does.
type compiledFilterHeader struct {
	flavor Flavor
	_      cpu.CacheLinePad
}

// CompiledFilter is the immutable, concurrency-safe output of Compile: a
// set of per-attribute classifiers plus the cross-product action table
// they feed into.
type CompiledFilter struct {
	hdr         compiledFilterHeader
	classifiers []AttributeClassifier
	attrs       []int
	action      *ActionTable
	alloc       Allocator
}

// NewCompiledFilter assembles a CompiledFilter from its parts. Exported so
// driver.Compile (which lives in a separate package to keep the attribute
// plug-ins out of the filter package's dependency graph) can construct one.
func NewCompiledFilter(flavor Flavor, classifiers []AttributeClassifier, action *ActionTable, alloc Allocator) *CompiledFilter {
	return &CompiledFilter{
		hdr:         compiledFilterHeader{flavor: flavor},
		classifiers: classifiers,
		attrs:       flavor.Attrs(),
		action:      action,
		alloc:       alloc,
	}
}

// Flavor returns the attribute set this filter was compiled for.
func (cf *CompiledFilter) Flavor() Flavor {
	return cf.hdr.flavor
}

// Lookup classifies pkt against every compiled rule and returns the
// matching rule's priority index, or false if no rule matches. It performs
// exactly one Lookup call per attribute plus one action-table fetch: O(k)
// total, no allocation, no locking, safe for unbounded concurrent callers.
func (cf *CompiledFilter) Lookup(pkt *Packet) (ruleIdx int, matched bool) {
	var idxBuf [maxAttrs]int
	idx := idxBuf[:len(cf.classifiers)]
	for i, c := range cf.classifiers {
		idx[i] = int(c.Lookup(pkt))
	}
	action := cf.action.Get(idx)
	if action == 0 {
		return 0, false
	}
	return int(action - 1), true
}

// Close releases the filter's backing storage via its Allocator. Safe to
// call once; CompiledFilter must not be used afterwards.
func (cf *CompiledFilter) Close() {
	if cf.action != nil {
		cf.alloc.Free(cf.action.Bytes())
	}
}
