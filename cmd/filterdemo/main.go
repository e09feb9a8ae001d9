// Command filterdemo compiles a small rule set and runs a handful of
// synthetic packets through it, the way examples/capture/main.go in the
// teacher repo decodes frames with gopacket and drives them through a
// packet filter, minus the live NDIS capture loop this library has no
// use for.
package main

import (
	"log"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/yanet-platform/filtercompiler/driver"
	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/frompacket"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	rules := []*filter.Rule{
		filter.NewRule().
			AddSrcNet4(mustCIDR("10.0.0.0/24")).
			AddDstPort(filter.PortRange{From: 443, To: 443}).
			SetProto(filter.ProtoTCP).
			Build(),
		filter.NewRule().
			SetProto(filter.ProtoTCP).
			SetTCPFlags(filter.FlagSYN|filter.FlagACK, filter.FlagSYN).
			Build(),
		filter.NewRule().Build(), // catch-all
	}

	cf, err := driver.Compile(rules, filter.FlavorIPv4, filter.HeapAllocator{})
	if err != nil {
		log.Fatalf("compile: %v", err)
	}
	defer cf.Close()

	log.Printf("compiled %d rules into a flavor-%d action table", len(rules), cf.Flavor())

	for _, gp := range []gopacket.Packet{
		tcpPacket(net.IPv4(10, 0, 0, 5), net.IPv4(93, 184, 216, 34), 51000, 443, true, false),
		tcpPacket(net.IPv4(203, 0, 113, 9), net.IPv4(93, 184, 216, 34), 51000, 80, true, false),
		tcpPacket(net.IPv4(203, 0, 113, 9), net.IPv4(93, 184, 216, 34), 51000, 22, false, false),
	} {
		pkt, err := frompacket.FromGopacket(gp, 1)
		if err != nil {
			log.Printf("decode: %v", err)
			continue
		}

		idx, matched := cf.Lookup(pkt)
		log.Printf("src=%s dst=%s dstPort=%d syn=%v -> matched=%v rule=%d",
			pkt.SrcIP, pkt.DstIP, pkt.DstPort, pkt.TCPFlags&filter.FlagSYN != 0, matched, idx)
	}
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		log.Fatalf("bad CIDR %q: %v", s, err)
	}
	return n
}

func tcpPacket(src, dst net.IP, srcPort, dstPort uint16, syn, ack bool) gopacket.Packet {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src, DstIP: dst,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort),
		SYN: syn, ACK: ack,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		log.Fatalf("checksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
		log.Fatalf("serialize: %v", err)
	}

	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}
