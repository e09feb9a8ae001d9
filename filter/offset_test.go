package filter

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

type offsetHolder struct {
	tag uint32
	_   uint32
	ptr OffsetPtr[uint32]
}

func TestOffsetPtr_NilByDefault(t *testing.T) {
	var p OffsetPtr[int]
	assert.True(t, p.IsNil())
	assert.Nil(t, p.Load())
}

func TestOffsetPtr_StoreLoad(t *testing.T) {
	v := 42
	var p OffsetPtr[int]
	p.Store(&v)
	assert.False(t, p.IsNil())
	assert.Equal(t, &v, p.Load())
	assert.Equal(t, 42, *p.Load())
}

// TestOffsetPtr_SurvivesRelocation is the P4 property test: a struct
// embedding an OffsetPtr, copied byte-for-byte to a brand new address,
// must still resolve its pointer correctly relative to the new address.
func TestOffsetPtr_SurvivesRelocation(t *testing.T) {
	buf := make([]byte, 64)
	h := (*offsetHolder)(unsafe.Pointer(&buf[0]))
	h.tag = 0xABCD

	target := (*uint32)(unsafe.Pointer(&buf[16]))
	*target = 7
	h.ptr.Store(target)

	moved := append([]byte(nil), buf...)
	for i := range buf {
		buf[i] = 0xFF // scribble over the old buffer to prove we're not reading it
	}

	h2 := (*offsetHolder)(unsafe.Pointer(&moved[0]))
	assert.Equal(t, uint32(0xABCD), h2.tag)
	got := h2.ptr.Load()
	assert.Equal(t, uint32(7), *got)
	assert.Same(t, (*uint32)(unsafe.Pointer(&moved[16])), got)
}
