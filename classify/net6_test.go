package classify

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/filtercompiler/filter"
)

func TestNet6_PrefixLenAtMost64AndAbove64(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().AddSrcNet6(mustCIDR("2001:db8::/32")).Build(), // n <= 64
		filter.NewRule().AddSrcNet6(mustCIDR("2001:db8::/96")).Build(), // n > 64
		filter.NewRule().Build(),                                      // wildcard
	}
	n := NewNet6(SideSrc)
	require.NoError(t, n.Init(rules))
	c := n.Compiled()

	inBoth := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("2001:db8::1")})
	inOuterOnly := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("2001:db8::1:0:0")})
	outside := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("2001:dead::1")})

	assert.NotEqual(t, inBoth, inOuterOnly)
	assert.NotEqual(t, inBoth, outside)

	assert.Contains(t, n.Ranges()[0], inBoth)
	assert.Contains(t, n.Ranges()[0], inOuterOnly)
	assert.NotContains(t, n.Ranges()[0], outside)

	assert.Contains(t, n.Ranges()[1], inBoth)
	assert.NotContains(t, n.Ranges()[1], inOuterOnly)

	assert.Contains(t, n.Ranges()[2], inBoth)
	assert.Contains(t, n.Ranges()[2], inOuterOnly)
	assert.Contains(t, n.Ranges()[2], outside)
}

func TestNet6_MultiplePrefixesInOneRule(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().
			AddSrcNet6(mustCIDR("2001:db8::/32")).
			AddSrcNet6(mustCIDR("fe80::/16")).
			Build(),
	}
	n := NewNet6(SideSrc)
	require.NoError(t, n.Init(rules))
	c := n.Compiled()

	first := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("2001:db8::1")})
	second := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("fe80::1")})
	outside := c.Lookup(&filter.Packet{SrcIP: net.ParseIP("2001:dead::1")})

	assert.Contains(t, n.Ranges()[0], first, "first listed prefix must match")
	assert.Contains(t, n.Ranges()[0], second, "second listed prefix must match")
	assert.NotContains(t, n.Ranges()[0], outside)
}

func TestNet6_DegenerateNoPrefixes(t *testing.T) {
	rules := []*filter.Rule{filter.NewRule().SetProto(filter.ProtoUDP).Build()}
	n := NewNet6(SideDst)
	require.NoError(t, n.Init(rules))
	c := n.Compiled()
	assert.Equal(t,
		c.Lookup(&filter.Packet{DstIP: net.ParseIP("::1")}),
		c.Lookup(&filter.Packet{DstIP: net.ParseIP("2001:db8::1")}),
	)
}
