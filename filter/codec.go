package filter

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Wire format for a rule set: a small header followed by one variable-size
// record per rule. Multi-byte integers are big-endian, matching the
// teacher's own network-byte-order discipline (see Htonl in common.go).
// Every multi-valued attribute (device, VLAN, net4, net6, port) is encoded
// as a uint16 count followed by that many fixed-size entries; a count of 0
// means the rule leaves that attribute unconstrained (ANY), matching
// spec.md §3's "either ANY or a finite constraint set" per-attribute
// model.
const (
	ruleSetMagic   uint32 = 0x59414e54 // "YANT"
	ruleSetVersion uint32 = 1
)

// EncodeRules serializes rules, in priority order, into the wire format
// DecodeRules reads back.
func EncodeRules(rules []*Rule) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint32(out[0:4], ruleSetMagic)
	binary.BigEndian.PutUint32(out[4:8], ruleSetVersion)

	countOff := len(out)
	out = append(out, make([]byte, 4)...)
	binary.BigEndian.PutUint32(out[countOff:], uint32(len(rules)))

	for _, r := range rules {
		out = encodeRule(out, r)
	}
	return out
}

func encodeRule(out []byte, r *Rule) []byte {
	out = append(out, byte(r.proto))

	var b [4]byte
	binary.BigEndian.PutUint16(b[0:2], uint16(r.tcpMask))
	binary.BigEndian.PutUint16(b[2:4], uint16(r.tcpValue))
	out = append(out, b[:4]...)

	out = encodeUint16s(out, len(r.devices), func(i int) uint32 { return uint32(r.devices[i]) })
	out = encodeVLANs(out, r.vlans)
	out = encodeNets(out, r.srcNet4)
	out = encodeNets(out, r.dstNet4)
	out = encodeNets(out, r.srcNet6)
	out = encodeNets(out, r.dstNet6)
	out = encodePortRanges(out, r.srcPorts)
	out = encodePortRanges(out, r.dstPorts)
	return out
}

func encodeUint16s(out []byte, count int, at func(i int) uint32) []byte {
	var cb [2]byte
	binary.BigEndian.PutUint16(cb[:], uint16(count))
	out = append(out, cb[:]...)
	var b [4]byte
	for i := 0; i < count; i++ {
		binary.BigEndian.PutUint32(b[:], at(i))
		out = append(out, b[:]...)
	}
	return out
}

func encodeVLANs(out []byte, vlans []VLANRange) []byte {
	var cb [2]byte
	binary.BigEndian.PutUint16(cb[:], uint16(len(vlans)))
	out = append(out, cb[:]...)
	var b [4]byte
	for _, v := range vlans {
		binary.BigEndian.PutUint16(b[0:2], v.Lo)
		binary.BigEndian.PutUint16(b[2:4], v.Hi)
		out = append(out, b[:]...)
	}
	return out
}

func encodeNets(out []byte, nets []*net.IPNet) []byte {
	var cb [2]byte
	binary.BigEndian.PutUint16(cb[:], uint16(len(nets)))
	out = append(out, cb[:]...)
	for _, n := range nets {
		ones, _ := n.Mask.Size()
		out = append(out, byte(ones))
		out = append(out, n.IP...)
	}
	return out
}

func encodePortRanges(out []byte, ranges []PortRange) []byte {
	var cb [2]byte
	binary.BigEndian.PutUint16(cb[:], uint16(len(ranges)))
	out = append(out, cb[:]...)
	var b [4]byte
	for _, r := range ranges {
		binary.BigEndian.PutUint16(b[0:2], r.From)
		binary.BigEndian.PutUint16(b[2:4], r.To)
		out = append(out, b[:]...)
	}
	return out
}

// DecodeRules parses the wire format produced by EncodeRules. It returns
// an InvalidRule-classed CompileError, not a panic, on any malformed input
// so a single corrupt rule set can be reported and rejected rather than
// crashing the caller.
func DecodeRules(data []byte) ([]*Rule, error) {
	d := &decoder{buf: data}
	magic := d.u32()
	version := d.u32()
	if d.err != nil {
		return nil, NewCompileError(KindInvalidRule, "", d.err)
	}
	if magic != ruleSetMagic {
		return nil, NewCompileError(KindInvalidRule, "", fmt.Errorf("bad magic %#x", magic))
	}
	if version != ruleSetVersion {
		return nil, NewCompileError(KindInvalidRule, "", fmt.Errorf("unsupported version %d", version))
	}

	count := d.u32()
	rules := make([]*Rule, 0, count)
	for i := uint32(0); i < count && d.err == nil; i++ {
		r, err := decodeRule(d)
		if err != nil {
			return nil, NewRuleError(KindInvalidRule, int(i), "", err)
		}
		rules = append(rules, r)
	}
	if d.err != nil {
		return nil, NewCompileError(KindInvalidRule, "", d.err)
	}
	return rules, nil
}

func decodeRule(d *decoder) (*Rule, error) {
	proto := Proto(d.u8())
	mask := TCPFlags(d.u16())
	value := TCPFlags(d.u16())
	b := NewRule().SetProto(proto).SetTCPFlags(mask, value)

	for n := d.u16(); n > 0; n-- {
		b.AddDevice(int(d.u32()))
	}
	for n := d.u16(); n > 0; n-- {
		lo := d.u16()
		hi := d.u16()
		b.AddVLANRange(lo, hi)
	}
	for n := d.u16(); n > 0; n-- {
		b.AddSrcNet4(d.ipNet(4))
	}
	for n := d.u16(); n > 0; n-- {
		b.AddDstNet4(d.ipNet(4))
	}
	for n := d.u16(); n > 0; n-- {
		b.AddSrcNet6(d.ipNet(16))
	}
	for n := d.u16(); n > 0; n-- {
		b.AddDstNet6(d.ipNet(16))
	}
	for n := d.u16(); n > 0; n-- {
		b.AddSrcPort(d.portRange())
	}
	for n := d.u16(); n > 0; n-- {
		b.AddDstPort(d.portRange())
	}
	if d.err != nil {
		return nil, d.err
	}
	return b.Build(), nil
}

type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("codec: truncated input at offset %d, need %d bytes", d.off, n)
		return false
	}
	return true
}

func (d *decoder) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) u16() uint16 {
	if !d.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) ipNet(width int) *net.IPNet {
	ones := int(d.u8())
	if !d.need(width) {
		return nil
	}
	ip := append(net.IP(nil), d.buf[d.off:d.off+width]...)
	d.off += width
	bits := width * 8
	if ones < 0 || ones > bits {
		d.err = fmt.Errorf("codec: invalid prefix length %d for %d-byte address", ones, width)
		return nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(ones, bits)}
}

func (d *decoder) portRange() PortRange {
	from := d.u16()
	to := d.u16()
	return PortRange{From: from, To: to}
}
