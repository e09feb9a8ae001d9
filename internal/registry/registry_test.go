package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanet-platform/filtercompiler/internal/registry"
)

func TestRegistry_StartCollect(t *testing.T) {
	r := registry.New()

	r.Start()
	r.Collect(3)
	r.Collect(5)

	r.Start()
	r.Collect(1)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []uint32{3, 5}, r.Range(0))
	assert.Equal(t, []uint32{1}, r.Range(1))
}

func TestRegistry_CollectAll(t *testing.T) {
	r := registry.New()
	r.Start()
	r.CollectAll([]uint32{2, 4, 6})
	assert.Equal(t, []uint32{2, 4, 6}, r.Range(0))
}

func TestRegistry_CollectBeforeStartPanics(t *testing.T) {
	r := registry.New()
	assert.Panics(t, func() { r.Collect(1) })
}

func TestDomainClasses_IncludesUntouchedZero(t *testing.T) {
	classOf := func(i int) uint32 {
		if i == 2 {
			return 0 // untouched domain value
		}
		return uint32(i + 10)
	}
	got := registry.DomainClasses(4, classOf)
	assert.Equal(t, []uint32{10, 11, 0, 13}, got)
}

func TestRangeClasses_InclusiveSubrange(t *testing.T) {
	classOf := func(i int) uint32 { return uint32(i * 2) }
	got := registry.RangeClasses(2, 5, classOf)
	assert.Equal(t, []uint32{4, 6, 8, 10}, got)
}
