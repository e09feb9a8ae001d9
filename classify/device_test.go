package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/filtercompiler/filter"
)

func TestDevice_SpecificAndWildcard(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().AddDevice(1).Build(),
		filter.NewRule().AddDevice(2).Build(),
		filter.NewRule().Build(), // wildcard
	}

	d := NewDevice()
	require.NoError(t, d.Init(rules))

	c := d.Compiled()
	class1 := c.Lookup(&filter.Packet{Device: 1})
	class2 := c.Lookup(&filter.Packet{Device: 2})
	classOther := c.Lookup(&filter.Packet{Device: 99})

	assert.NotEqual(t, class1, class2)
	assert.NotEqual(t, class1, classOther)
	assert.NotEqual(t, class2, classOther)

	ranges := d.Ranges()
	require.Len(t, ranges, 3)
	assert.Equal(t, []uint32{class1}, ranges[0])
	assert.Equal(t, []uint32{class2}, ranges[1])
	// the wildcard rule's range must include every device's class,
	// including the "other" bucket's, so it still matches unlisted ids.
	assert.Contains(t, ranges[2], class1)
	assert.Contains(t, ranges[2], class2)
	assert.Contains(t, ranges[2], classOther)
}

func TestDevice_MultipleDevicesInOneRule(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().AddDevice(1).AddDevice(2).Build(),
	}
	d := NewDevice()
	require.NoError(t, d.Init(rules))
	c := d.Compiled()

	assert.Equal(t, c.Lookup(&filter.Packet{Device: 1}), c.Lookup(&filter.Packet{Device: 2}),
		"both listed device ids must belong to the rule's range")
	assert.Contains(t, d.Ranges()[0], c.Lookup(&filter.Packet{Device: 1}))
	assert.Contains(t, d.Ranges()[0], c.Lookup(&filter.Packet{Device: 2}))
	assert.NotContains(t, d.Ranges()[0], c.Lookup(&filter.Packet{Device: 99}))
}

func TestDevice_NoDeviceRulesCollapseToSingleClass(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().SetProto(filter.ProtoTCP).Build(),
	}
	d := NewDevice()
	require.NoError(t, d.Init(rules))
	c := d.Compiled()
	assert.Equal(t, c.Lookup(&filter.Packet{Device: 1}), c.Lookup(&filter.Packet{Device: 2}))
}
