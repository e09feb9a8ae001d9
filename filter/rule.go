package filter

import "net"

// PortRange is an inclusive [From,To] L4 port range. From <= To; From==0 &&
// To==65535 is the full domain ("any port"), handled specially by the port
// plug-ins (see classify package) since touching every cell of a value
// table for it would add nothing.
type PortRange struct {
	From, To uint16
}

// anyPortRange is the full 0..65535 domain, used when a rule leaves its
// port constraint set empty (wildcard).
var anyPortRange = PortRange{From: 0, To: 65535}

// IsFull reports whether r spans the entire 0..65535 port domain.
func (r PortRange) IsFull() bool {
	return r.From == 0 && r.To == 65535
}

// VLANRange is an inclusive [Lo,Hi] 802.1Q tag range, 0<=Lo<=Hi<=4095.
type VLANRange struct {
	Lo, Hi uint16
}

// TCPFlags is a bitmask over the 9-bit TCP control-flag space, in the
// order NS,CWR,ECE,URG,ACK,PSH,RST,SYN,FIN (bit 8 down to bit 0). A rule's
// TCP-flag constraint names a mask and a value: a packet matches when
// (packet.TCPFlags & Mask) == Value. Mask==0 means "don't care".
type TCPFlags uint16

const (
	FlagFIN TCPFlags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
	FlagNS
)

// Proto is the L4 protocol number (IPPROTO_TCP, IPPROTO_UDP, ...); 0 means
// "any protocol" (unset constraint).
type Proto uint8

const (
	ProtoAny  Proto = 0
	ProtoICMP Proto = 1
	ProtoTCP  Proto = 6
	ProtoUDP  Proto = 17
)

// Rule is one immutable packet-classification rule. Its priority is
// implicitly its index in the slice passed to Compile: the lowest index
// wins among all rules that match a given packet. Per spec.md §3, each
// attribute is either ANY (an empty constraint set) or a finite set of
// constraints: a set of device ids, a set of VLAN ranges, a set of port
// ranges, a set of CIDR prefixes. Proto+TCP-flags is the one exception —
// spec.md models it as a single (proto, enable, disable) triple, not a
// set, since a rule constrains at most one L4 protocol.
//
// Rule itself holds no exported fields; build one with NewRule and the
// chained RuleBuilder setters, then call Build to obtain the immutable
// value Compile consumes.
type Rule struct {
	devices []int

	vlans []VLANRange

	proto    Proto
	tcpMask  TCPFlags
	tcpValue TCPFlags

	srcNet4 []*net.IPNet
	dstNet4 []*net.IPNet
	srcNet6 []*net.IPNet
	dstNet6 []*net.IPNet

	srcPorts []PortRange
	dstPorts []PortRange
}

// Devices returns the rule's set of device id constraints. An empty slice
// means ANY (wildcard).
func (r *Rule) Devices() []int { return r.devices }

// VLANs returns the rule's set of VLAN [lo,hi] range constraints. An
// empty slice means ANY (wildcard).
func (r *Rule) VLANs() []VLANRange { return r.vlans }

// Proto returns the rule's L4 protocol constraint (ProtoAny if unset).
func (r *Rule) Proto() Proto {
	return r.proto
}

// TCPFlags returns the rule's TCP flag mask/value constraint. A zero mask
// means "don't care".
func (r *Rule) TCPFlags() (mask, value TCPFlags) {
	return r.tcpMask, r.tcpValue
}

// SrcNet4 returns the rule's set of source IPv4 prefix constraints. An
// empty slice means ANY (wildcard).
func (r *Rule) SrcNet4() []*net.IPNet { return r.srcNet4 }

// DstNet4 returns the rule's set of destination IPv4 prefix constraints.
// An empty slice means ANY (wildcard).
func (r *Rule) DstNet4() []*net.IPNet { return r.dstNet4 }

// SrcNet6 returns the rule's set of source IPv6 prefix constraints. An
// empty slice means ANY (wildcard).
func (r *Rule) SrcNet6() []*net.IPNet { return r.srcNet6 }

// DstNet6 returns the rule's set of destination IPv6 prefix constraints.
// An empty slice means ANY (wildcard).
func (r *Rule) DstNet6() []*net.IPNet { return r.dstNet6 }

// SrcPorts returns the rule's set of source port range constraints,
// defaulting to a single full-range entry when unset (ANY).
func (r *Rule) SrcPorts() []PortRange {
	if len(r.srcPorts) == 0 {
		return []PortRange{anyPortRange}
	}
	return r.srcPorts
}

// DstPorts returns the rule's set of destination port range constraints,
// defaulting to a single full-range entry when unset (ANY).
func (r *Rule) DstPorts() []PortRange {
	if len(r.dstPorts) == 0 {
		return []PortRange{anyPortRange}
	}
	return r.dstPorts
}

// RuleBuilder assembles a Rule through chained Add/Set calls, mirroring
// the teacher's own filter-builder idiom (see netlib's Filter type): each
// call mutates and returns the same *RuleBuilder so calls can be chained,
// and Build freezes the result into an immutable *Rule. Multi-valued
// attributes (device, VLAN, port, net4, net6) use AddX and may be called
// more than once per rule to constrain a set of values; Proto/TCPFlags use
// SetX since spec.md models them as a single triple, not a set.
type RuleBuilder struct {
	rule Rule
}

// NewRule starts a new RuleBuilder with every attribute unset (wildcard).
func NewRule() *RuleBuilder {
	return &RuleBuilder{rule: Rule{proto: ProtoAny}}
}

// AddDevice adds one input device id to the rule's device set.
func (b *RuleBuilder) AddDevice(id int) *RuleBuilder {
	b.rule.devices = append(b.rule.devices, id)
	return b
}

// AddVLANRange adds one [lo,hi] VLAN range to the rule's VLAN set.
func (b *RuleBuilder) AddVLANRange(lo, hi uint16) *RuleBuilder {
	b.rule.vlans = append(b.rule.vlans, VLANRange{Lo: lo, Hi: hi})
	return b
}

// SetProto constrains the rule to a single L4 protocol.
func (b *RuleBuilder) SetProto(p Proto) *RuleBuilder {
	b.rule.proto = p
	return b
}

// SetTCPFlags constrains the rule's TCP control bits: a packet matches
// when (packet.TCPFlags & mask) == value. Only meaningful when Proto is
// ProtoTCP; ignored otherwise.
func (b *RuleBuilder) SetTCPFlags(mask, value TCPFlags) *RuleBuilder {
	b.rule.tcpMask = mask
	b.rule.tcpValue = value & mask
	return b
}

// AddSrcNet4 adds one source IPv4 prefix to the rule's prefix set.
func (b *RuleBuilder) AddSrcNet4(n *net.IPNet) *RuleBuilder {
	b.rule.srcNet4 = append(b.rule.srcNet4, n)
	return b
}

// AddDstNet4 adds one destination IPv4 prefix to the rule's prefix set.
func (b *RuleBuilder) AddDstNet4(n *net.IPNet) *RuleBuilder {
	b.rule.dstNet4 = append(b.rule.dstNet4, n)
	return b
}

// AddSrcNet6 adds one source IPv6 prefix to the rule's prefix set.
func (b *RuleBuilder) AddSrcNet6(n *net.IPNet) *RuleBuilder {
	b.rule.srcNet6 = append(b.rule.srcNet6, n)
	return b
}

// AddDstNet6 adds one destination IPv6 prefix to the rule's prefix set.
func (b *RuleBuilder) AddDstNet6(n *net.IPNet) *RuleBuilder {
	b.rule.dstNet6 = append(b.rule.dstNet6, n)
	return b
}

// AddSrcPort adds one source port range to the rule's port-range set.
func (b *RuleBuilder) AddSrcPort(r PortRange) *RuleBuilder {
	b.rule.srcPorts = append(b.rule.srcPorts, r)
	return b
}

// AddDstPort adds one destination port range to the rule's port-range set.
func (b *RuleBuilder) AddDstPort(r PortRange) *RuleBuilder {
	b.rule.dstPorts = append(b.rule.dstPorts, r)
	return b
}

// Build freezes the builder's accumulated constraints into an immutable
// Rule. The builder remains usable afterwards; further Add/Set calls start
// from the same accumulated state (mirroring the teacher's builder, which
// also returns the live receiver rather than a defensive copy).
func (b *RuleBuilder) Build() *Rule {
	rule := b.rule
	rule.devices = append([]int(nil), b.rule.devices...)
	rule.vlans = append([]VLANRange(nil), b.rule.vlans...)
	rule.srcNet4 = append([]*net.IPNet(nil), b.rule.srcNet4...)
	rule.dstNet4 = append([]*net.IPNet(nil), b.rule.dstNet4...)
	rule.srcNet6 = append([]*net.IPNet(nil), b.rule.srcNet6...)
	rule.dstNet6 = append([]*net.IPNet(nil), b.rule.dstNet6...)
	rule.srcPorts = append([]PortRange(nil), b.rule.srcPorts...)
	rule.dstPorts = append([]PortRange(nil), b.rule.dstPorts...)
	return &rule
}
