// Package valuetable implements the dense multi-dimensional equivalence
// table described by the filter compiler's value-table component: a k-D
// tensor of classes, built up over a sequence of "generations" (one per
// rule constraint) and then compacted so that equal generation-sets collapse
// to equal class numbers.
package valuetable

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// Table is a dense d_1 x ... x d_k tensor of class numbers. The zero value
// is not usable; construct with New.
type Table struct {
	dims    []int
	strides []int
	size    int

	// open-phase state, discarded by Compact.
	touched    []bool
	sig        []uint64 // rolling fnv64a signature per cell
	lastGen    []uint32 // last generation id that touched this cell, for idempotence
	gens       [][]uint32 // sorted list of generation ids per cell, for exact tie-breaking
	generation uint32

	// post-compact state.
	compacted bool
	classes   []uint32
	maxClass  uint32
}

// New allocates a Table of the given shape. Every dimension must be >= 1.
func New(dims ...int) *Table {
	if len(dims) == 0 {
		panic("valuetable: at least one dimension required")
	}

	size := 1
	strides := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] < 1 {
			panic("valuetable: dimension must be >= 1")
		}
		strides[i] = size
		size *= dims[i]
	}

	return &Table{
		dims:    append([]int(nil), dims...),
		strides: strides,
		size:    size,
		touched: make([]bool, size),
		sig:     make([]uint64, size),
		lastGen: make([]uint32, size),
		gens:    make([][]uint32, size),
	}
}

// Dims returns the table's shape.
func (t *Table) Dims() []int {
	return append([]int(nil), t.dims...)
}

func (t *Table) index(idx []int) int {
	if len(idx) != len(t.dims) {
		panic(fmt.Sprintf("valuetable: expected %d indices, got %d", len(t.dims), len(idx)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.dims[i] {
			panic(fmt.Sprintf("valuetable: index %d out of range [0,%d) on axis %d", v, t.dims[i], i))
		}
		off += v * t.strides[i]
	}
	return off
}

// NewGen opens a new generation and returns its id. Generation ids start at
// 1; 0 is reserved to mean "touched by no generation" (class 0, "matches no
// rule"). NewGen does not itself consume a class number; classes are only
// assigned by Compact.
func (t *Table) NewGen() uint32 {
	if t.compacted {
		panic("valuetable: NewGen after Compact")
	}
	t.generation++
	return t.generation
}

// Touch marks the cell at idx as belonging to the current (most recently
// opened) generation. Touch is idempotent: touching the same cell twice
// within one generation has no additional effect.
func (t *Table) Touch(idx ...int) {
	if t.compacted {
		panic("valuetable: Touch after Compact")
	}
	off := t.index(idx)
	t.touchOffset(off, t.generation)
}

func (t *Table) touchOffset(off int, gen uint32) {
	if t.lastGen[off] == gen && t.touched[off] {
		return
	}
	t.touched[off] = true
	t.lastGen[off] = gen

	h := fnv.New64a()
	var b [4]byte
	b[0] = byte(gen)
	b[1] = byte(gen >> 8)
	b[2] = byte(gen >> 16)
	b[3] = byte(gen >> 24)
	h.Write(b[:])
	t.sig[off] ^= h.Sum64()*2654435761 + 1 // order-independent fold, see signature_of note below

	gens := t.gens[off]
	pos := sort.Search(len(gens), func(i int) bool { return gens[i] >= gen })
	if pos < len(gens) && gens[pos] == gen {
		return
	}
	gens = append(gens, 0)
	copy(gens[pos+1:], gens[pos:])
	gens[pos] = gen
	t.gens[off] = gens
}

// SignatureOf returns the raw, pre-compaction generation-signature of a
// cell. It must not be used as a substitute for Get: it is exposed only so
// callers with special diagnostic needs (not ordinary lookup) can inspect
// in-progress state. Two cells with the same signature were (with
// overwhelming probability) touched by the same generation set; Compact
// performs the exact check.
func (t *Table) SignatureOf(idx ...int) uint64 {
	return t.sig[t.index(idx)]
}

// Compact assigns the final, minimal class numbers: two cells receive the
// same class iff they were touched by exactly the same set of generations.
// Untouched cells receive class 0. After Compact, Touch and NewGen may no
// longer be called.
func (t *Table) Compact() {
	if t.compacted {
		return
	}

	type bucketKey struct {
		sig uint64
		key string
	}
	seen := make(map[bucketKey]uint32)
	classes := make([]uint32, t.size)

	var nextClass uint32 = 1
	for off := 0; off < t.size; off++ {
		if !t.touched[off] {
			continue
		}
		k := bucketKey{sig: t.sig[off], key: gensKey(t.gens[off])}
		cls, ok := seen[k]
		if !ok {
			cls = nextClass
			nextClass++
			seen[k] = cls
		}
		classes[off] = cls
	}

	t.classes = classes
	t.maxClass = nextClass - 1
	t.compacted = true

	// release open-phase scratch state.
	t.touched = nil
	t.sig = nil
	t.lastGen = nil
	t.gens = nil
}

func gensKey(gens []uint32) string {
	b := make([]byte, 4*len(gens))
	for i, g := range gens {
		b[4*i] = byte(g)
		b[4*i+1] = byte(g >> 8)
		b[4*i+2] = byte(g >> 16)
		b[4*i+3] = byte(g >> 24)
	}
	return string(b)
}

// Get returns the compacted class number at idx. Panics if called before
// Compact.
func (t *Table) Get(idx ...int) uint32 {
	if !t.compacted {
		panic("valuetable: Get before Compact")
	}
	return t.classes[t.index(idx)]
}

// MaxClass returns the number of distinct non-empty equivalence classes
// after Compact (class numbers 1..MaxClass are in use; 0 means unmatched).
func (t *Table) MaxClass() uint32 {
	if !t.compacted {
		panic("valuetable: MaxClass before Compact")
	}
	return t.maxClass
}

// Compacted reports whether Compact has already run.
func (t *Table) Compacted() bool {
	return t.compacted
}
