package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/filtercompiler/filter"
)

func TestProto_TCPFlagSubsetMatchesBothPaths(t *testing.T) {
	// a SYN-only rule (mask=SYN|ACK, value=SYN) must match SYN and
	// SYN+URG (URG is a don't-care bit) identically, and must not match
	// SYN+ACK.
	rules := []*filter.Rule{
		filter.NewRule().SetProto(filter.ProtoTCP).
			SetTCPFlags(filter.FlagSYN|filter.FlagACK, filter.FlagSYN).Build(),
	}
	p := NewProto()
	require.NoError(t, p.Init(rules))
	c := p.Compiled()

	synOnly := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagSYN})
	synURG := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagSYN | filter.FlagURG})
	synAck := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagSYN | filter.FlagACK})

	assert.Equal(t, synOnly, synURG)
	assert.NotEqual(t, synOnly, synAck)
	assert.Contains(t, p.Ranges()[0], synOnly)
	assert.NotContains(t, p.Ranges()[0], synAck)
}

func TestProto_ECEWrapCWRAndNSBitsAreSignificant(t *testing.T) {
	// the top 3 bits of the 9-bit flag space (ECE,CWR,NS) must distinguish
	// packets just like the classic 6 bits do, not be masked away.
	rules := []*filter.Rule{
		filter.NewRule().SetProto(filter.ProtoTCP).
			SetTCPFlags(filter.FlagECE|filter.FlagCWR|filter.FlagNS, filter.FlagECE).Build(),
	}
	p := NewProto()
	require.NoError(t, p.Init(rules))
	c := p.Compiled()

	eceOnly := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagECE})
	eceAndAck := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagECE | filter.FlagACK})
	cwrInstead := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagCWR})

	assert.Equal(t, eceOnly, eceAndAck, "ACK is a don't-care bit for this rule")
	assert.NotEqual(t, eceOnly, cwrInstead)
	assert.Contains(t, p.Ranges()[0], eceOnly)
	assert.NotContains(t, p.Ranges()[0], cwrInstead)
}

func TestProto_UDPAndICMPAreFixedAndDistinct(t *testing.T) {
	p := NewProto()
	require.NoError(t, p.Init(nil))
	c := p.Compiled()
	assert.NotEqual(t, c.Lookup(&filter.Packet{Proto: filter.ProtoUDP}), c.Lookup(&filter.Packet{Proto: filter.ProtoICMP}))
}

func TestProto_WildcardMatchesEverything(t *testing.T) {
	rules := []*filter.Rule{
		filter.NewRule().Build(), // wildcard proto
	}
	p := NewProto()
	require.NoError(t, p.Init(rules))
	c := p.Compiled()

	tcp := c.Lookup(&filter.Packet{Proto: filter.ProtoTCP, TCPFlags: filter.FlagSYN})
	udp := c.Lookup(&filter.Packet{Proto: filter.ProtoUDP})
	icmp := c.Lookup(&filter.Packet{Proto: filter.ProtoICMP})
	other := c.Lookup(&filter.Packet{Proto: filter.Proto(47)}) // GRE, never named

	for _, cls := range []uint32{tcp, udp, icmp, other} {
		assert.Contains(t, p.Ranges()[0], cls)
	}
}

func TestProto_UnlistedOtherProtoIsOneBucket(t *testing.T) {
	p := NewProto()
	require.NoError(t, p.Init(nil))
	c := p.Compiled()
	assert.Equal(t, c.Lookup(&filter.Packet{Proto: filter.Proto(47)}), c.Lookup(&filter.Packet{Proto: filter.Proto(50)}))
}
