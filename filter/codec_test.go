package filter

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRules_RoundTrip(t *testing.T) {
	_, net4, _ := net.ParseCIDR("10.0.0.0/24")
	_, net6, _ := net.ParseCIDR("2001:db8::/32")

	_, net4b, _ := net.ParseCIDR("10.0.1.0/24")

	rules := []*Rule{
		NewRule().
			AddDevice(3).
			AddVLANRange(100, 200).
			SetProto(ProtoTCP).
			SetTCPFlags(FlagSYN|FlagACK, FlagSYN).
			AddSrcNet4(net4).
			AddSrcNet4(net4b).
			AddSrcPort(PortRange{From: 1024, To: 2048}).
			Build(),
		NewRule().
			SetProto(ProtoUDP).
			AddDstNet6(net6).
			AddDstPort(PortRange{From: 53, To: 53}).
			Build(),
		NewRule().Build(), // all-wildcard rule
	}

	wire := EncodeRules(rules)
	got, err := DecodeRules(wire)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int{3}, got[0].Devices())
	assert.Equal(t, []VLANRange{{Lo: 100, Hi: 200}}, got[0].VLANs())
	assert.Equal(t, ProtoTCP, got[0].Proto())
	mask, value := got[0].TCPFlags()
	assert.Equal(t, FlagSYN|FlagACK, mask)
	assert.Equal(t, FlagSYN, value)
	require.Len(t, got[0].SrcNet4(), 2)
	assert.Equal(t, net4.String(), got[0].SrcNet4()[0].String())
	assert.Equal(t, net4b.String(), got[0].SrcNet4()[1].String())
	assert.Equal(t, []PortRange{{From: 1024, To: 2048}}, got[0].SrcPorts())

	assert.Equal(t, ProtoUDP, got[1].Proto())
	require.Len(t, got[1].DstNet6(), 1)
	assert.Equal(t, net6.String(), got[1].DstNet6()[0].String())

	assert.Empty(t, got[2].Devices())
	assert.Equal(t, ProtoAny, got[2].Proto())
	assert.Equal(t, []PortRange{anyPortRange}, got[2].SrcPorts())
}

func TestDecodeRules_RejectsBadMagic(t *testing.T) {
	_, err := DecodeRules([]byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0})
	require.Error(t, err)
	var ce *CompileError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, KindInvalidRule, ce.Kind)
}

func TestDecodeRules_RejectsTruncated(t *testing.T) {
	_, err := DecodeRules([]byte{0x59, 0x41, 0x4e, 0x54, 0, 0, 0, 1, 0, 0, 0, 1})
	require.Error(t, err)
}
