package valuetable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

func TestTable_UntouchedIsClassZero(t *testing.T) {
	vt := valuetable.New(4)
	vt.Compact()
	assert.Equal(t, uint32(0), vt.Get(0))
	assert.Equal(t, uint32(0), vt.Get(3))
	assert.Equal(t, uint32(0), vt.MaxClass())
}

func TestTable_TouchIdempotentWithinGeneration(t *testing.T) {
	vt := valuetable.New(4)
	g := vt.NewGen()
	_ = g
	vt.Touch(1)
	sigOnce := vt.SignatureOf(1)
	vt.Touch(1)
	sigTwice := vt.SignatureOf(1)
	assert.Equal(t, sigOnce, sigTwice, "touching the same cell twice in one generation must not change its signature")

	vt.Compact()
	assert.Equal(t, uint32(1), vt.Get(1))
}

func TestTable_EqualGenerationSetsGetEqualClass(t *testing.T) {
	vt := valuetable.New(8)

	g1 := vt.NewGen()
	vt.Touch(0)
	vt.Touch(1)
	_ = g1

	g2 := vt.NewGen()
	vt.Touch(2)
	_ = g2

	// cell 3 touched only by g3, same set as nothing else
	g3 := vt.NewGen()
	vt.Touch(3)
	_ = g3

	vt.Compact()

	// cells 0 and 1 were touched by the exact same generation set {g1}
	assert.Equal(t, vt.Get(0), vt.Get(1))
	// cell 2 (only g2) must differ from cells 0/1 (only g1)
	assert.NotEqual(t, vt.Get(0), vt.Get(2))
	// cell 3 (only g3) must differ from both
	assert.NotEqual(t, vt.Get(0), vt.Get(3))
	assert.NotEqual(t, vt.Get(2), vt.Get(3))

	assert.Equal(t, uint32(3), vt.MaxClass())
}

func TestTable_GenerationSetEqualityIsExact(t *testing.T) {
	// cells touched by {g1,g2} vs {g1} vs {g2} must all be distinct classes,
	// verifying exact-set equality rather than e.g. a simple popcount or sum.
	vt := valuetable.New(3)

	g1 := vt.NewGen()
	vt.Touch(0)
	vt.Touch(1)
	_ = g1

	g2 := vt.NewGen()
	vt.Touch(1)
	vt.Touch(2)
	_ = g2

	vt.Compact()

	classes := map[uint32]bool{vt.Get(0): true, vt.Get(1): true, vt.Get(2): true}
	assert.Len(t, classes, 3, "each distinct generation-set must map to a distinct class")
}

func Test2DTable(t *testing.T) {
	vt := valuetable.New(2, 3)
	vt.NewGen()
	vt.Touch(0, 0)
	vt.Touch(1, 2)
	vt.Compact()

	assert.Equal(t, vt.Get(0, 0), vt.Get(1, 2))
	assert.Equal(t, uint32(0), vt.Get(0, 1))
	assert.Equal(t, []int{2, 3}, vt.Dims())
}

func TestTable_PanicsOnMutationAfterCompact(t *testing.T) {
	vt := valuetable.New(2)
	vt.Compact()
	assert.Panics(t, func() { vt.NewGen() })
	assert.Panics(t, func() { vt.Touch(0) })
}

func TestTable_PanicsOnGetBeforeCompact(t *testing.T) {
	vt := valuetable.New(2)
	assert.Panics(t, func() { vt.Get(0) })
}
