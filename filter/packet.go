package filter

import "net"

// Ethertype constants, named after the teacher's own ip_helper.go
// constants (ETH_P_*). The Proto values a Packet/Rule can carry are
// defined in rule.go.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeIPv6 uint16 = 0x86DD
	EtherTypeARP  uint16 = 0x0806
)

// Packet is the minimal, read-only view of a packet that CompiledFilter.
// Lookup classifies. Callers populate it directly, or use the frompacket
// package to derive one from a decoded gopacket.Packet.
type Packet struct {
	Device int
	VLAN   uint16 // 0 if untagged

	Proto    Proto
	TCPFlags TCPFlags // meaningful only when Proto == ProtoTCP

	SrcIP net.IP // 4-byte or 16-byte form, must match the filter's Flavor
	DstIP net.IP

	SrcPort uint16
	DstPort uint16
}
