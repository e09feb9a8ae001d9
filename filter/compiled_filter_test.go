package filter

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_filter "github.com/yanet-platform/filtercompiler/filter/mock"
)

func TestActionTable_GetBasic(t *testing.T) {
	// 2x3 table, action(i,j) = i*3+j+1
	cells := []uint32{1, 2, 3, 4, 5, 6}
	at, err := BuildActionTable([]int{2, 3}, cells, HeapAllocator{})
	require.NoError(t, err)

	assert.Equal(t, uint32(1), at.Get([]int{0, 0}))
	assert.Equal(t, uint32(6), at.Get([]int{1, 2}))
	assert.Equal(t, []int{2, 3}, at.Dims())
}

func TestBuildActionTable_PropagatesAllocatorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	alloc := mock_filter.NewMockAllocator(ctrl)
	alloc.EXPECT().Alloc(gomock.Any()).Return(nil, errors.New("arena exhausted"))

	_, err := BuildActionTable([]int{2}, []uint32{1, 2}, alloc)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindOutOfMemory, ce.Kind)
}

func TestActionTable_SurvivesRelocation(t *testing.T) {
	cells := []uint32{10, 20, 30, 40}
	at, err := BuildActionTable([]int{2, 2}, cells, HeapAllocator{})
	require.NoError(t, err)

	moved := append([]byte(nil), at.Bytes()...)
	at2 := ActionTableFromBytes(moved, HeapAllocator{})

	assert.Equal(t, at.Dims(), at2.Dims())
	assert.Equal(t, uint32(10), at2.Get([]int{0, 0}))
	assert.Equal(t, uint32(40), at2.Get([]int{1, 1}))
}

type constClassifier struct {
	class int
}

func (c constClassifier) Lookup(pkt *Packet) uint32 { return uint32(c.class) }
func (c constClassifier) NumClasses() int           { return c.class + 1 }

func TestCompiledFilter_LookupDispatch(t *testing.T) {
	// single attribute, 2 classes; action table maps class1 -> rule 0,
	// class 0 (no match on that attribute) -> no rule.
	at, err := BuildActionTable([]int{2}, []uint32{0, 1}, HeapAllocator{})
	require.NoError(t, err)

	cf := NewCompiledFilter(FlavorL2, []AttributeClassifier{constClassifier{class: 1}}, at, HeapAllocator{})
	idx, matched := cf.Lookup(&Packet{})
	assert.True(t, matched)
	assert.Equal(t, 0, idx)

	cfNoMatch := NewCompiledFilter(FlavorL2, []AttributeClassifier{constClassifier{class: 0}}, at, HeapAllocator{})
	_, matched = cfNoMatch.Lookup(&Packet{})
	assert.False(t, matched)
}
