// Package frompacket adapts a decoded gopacket.Packet into the filter
// package's minimal Packet view, the way the teacher's own capture/proxy
// examples decode raw Ethernet frames with gopacket before acting on them
// (see examples/capture/main.go's gopacket.NewPacket(...,
// layers.LayerTypeEthernet, ...) call).
package frompacket

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/yanet-platform/filtercompiler/filter"
)

// FromGopacket builds a filter.Packet from a gopacket.Packet already
// decoded starting at the Ethernet layer. device is the input device id
// to attribute the packet to, since gopacket itself carries no notion of
// "which NIC this arrived on".
func FromGopacket(pkt gopacket.Packet, device int) (*filter.Packet, error) {
	out := &filter.Packet{Device: device}

	if vlan := pkt.Layer(layers.LayerTypeDot1Q); vlan != nil {
		out.VLAN = vlan.(*layers.Dot1Q).VLANIdentifier
	}

	switch {
	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		ip4 := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		out.SrcIP = ip4.SrcIP
		out.DstIP = ip4.DstIP
		out.Proto = filter.Proto(ip4.Protocol)
	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		ip6 := pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		out.SrcIP = ip6.SrcIP
		out.DstIP = ip6.DstIP
		out.Proto = filter.Proto(ip6.NextHeader)
	default:
		return nil, fmt.Errorf("frompacket: no IPv4 or IPv6 layer present")
	}

	if tcp := pkt.Layer(layers.LayerTypeTCP); tcp != nil {
		t := tcp.(*layers.TCP)
		out.SrcPort = uint16(t.SrcPort)
		out.DstPort = uint16(t.DstPort)
		out.TCPFlags = tcpFlagsOf(t)
	} else if udp := pkt.Layer(layers.LayerTypeUDP); udp != nil {
		u := udp.(*layers.UDP)
		out.SrcPort = uint16(u.SrcPort)
		out.DstPort = uint16(u.DstPort)
	}

	return out, nil
}

func tcpFlagsOf(t *layers.TCP) filter.TCPFlags {
	var f filter.TCPFlags
	if t.FIN {
		f |= filter.FlagFIN
	}
	if t.SYN {
		f |= filter.FlagSYN
	}
	if t.RST {
		f |= filter.FlagRST
	}
	if t.PSH {
		f |= filter.FlagPSH
	}
	if t.ACK {
		f |= filter.FlagACK
	}
	if t.URG {
		f |= filter.FlagURG
	}
	if t.ECE {
		f |= filter.FlagECE
	}
	if t.CWR {
		f |= filter.FlagCWR
	}
	if t.NS {
		f |= filter.FlagNS
	}
	return f
}
