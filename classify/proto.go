package classify

import (
	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

// tcpFlagDomain is the full 9-bit TCP control-flag space (FIN,SYN,RST,PSH,
// ACK,URG,ECE,CWR,NS), giving 512 possible flag combinations.
const tcpFlagDomain = 1 << 9
const tcpFlagMask = tcpFlagDomain - 1

// maxTCPClass reserves a class-number band for TCP flag combinations
// exactly as large as the flag domain itself (at most 512 distinct
// non-zero classes, one per 9-bit combination, plus class 0 for untouched
// combinations), so the fixed UDP/ICMP class numbers below never collide
// with it regardless of the rule set compiled.
const maxTCPClass = 1 << 9

// classUDP and classICMP are fixed, rule-set-independent classes: neither
// protocol carries further sub-structure (no per-packet attribute further
// distinguishes one UDP packet from another at this layer), so every UDP
// packet is always this one class and likewise for ICMP. Any future L4
// protocol plug-in needing its own fixed slot must append after
// classICMP, never renumber these two.
const (
	classUDP  uint32 = maxTCPClass + 1
	classICMP uint32 = maxTCPClass + 2
)

const classOtherBase = maxTCPClass + 3

// Proto classifies packets by L4 protocol and, for TCP, by the packet's
// control flags. TCP is the only protocol with further structure (a rule
// can constrain a flag mask/value), so it is the only one backed by a
// value table; UDP and ICMP get fixed classes, and any other protocol
// number a rule names gets its own dynamically assigned class, with one
// shared "other protocols" bucket for everything else, mirroring Device's
// named-values-plus-bucket structure.
type Proto struct {
	tcpTable   *valuetable.Table
	otherProto map[filter.Proto]uint32
	otherAny   uint32

	ranges [][]uint32
}

func NewProto() *Proto {
	return &Proto{}
}

func (p *Proto) Init(rules []*filter.Rule) error {
	p.tcpTable = valuetable.New(tcpFlagDomain)
	p.otherProto = make(map[filter.Proto]uint32)

	nextOther := uint32(classOtherBase)
	for _, r := range rules {
		if r.Proto() != filter.ProtoAny && r.Proto() != filter.ProtoTCP &&
			r.Proto() != filter.ProtoUDP && r.Proto() != filter.ProtoICMP {
			if _, ok := p.otherProto[r.Proto()]; !ok {
				p.otherProto[r.Proto()] = nextOther
				nextOther++
			}
		}
	}
	p.otherAny = nextOther

	for _, r := range rules {
		if r.Proto() != filter.ProtoTCP {
			continue
		}
		mask, value := r.TCPFlags()
		free := uint16(^mask) & tcpFlagMask
		p.tcpTable.NewGen()
		sub := free
		for {
			f := uint16(value) | sub
			p.tcpTable.Touch(int(f))
			if sub == 0 {
				break
			}
			sub = (sub - 1) & free
		}
	}
	p.tcpTable.Compact()

	reg := registry.New()
	for _, r := range rules {
		reg.Start()
		switch r.Proto() {
		case filter.ProtoAny:
			reg.CollectAll(registry.DomainClasses(tcpFlagDomain, func(i int) uint32 {
				return p.tcpTable.Get(i)
			}))
			reg.Collect(classUDP)
			reg.Collect(classICMP)
			for _, c := range p.otherProto {
				reg.Collect(c)
			}
			reg.Collect(p.otherAny)
		case filter.ProtoTCP:
			mask, value := r.TCPFlags()
			free := uint16(^mask) & tcpFlagMask
			sub := free
			for {
				f := uint16(value) | sub
				reg.Collect(p.tcpTable.Get(int(f)))
				if sub == 0 {
					break
				}
				sub = (sub - 1) & free
			}
		case filter.ProtoUDP:
			reg.Collect(classUDP)
		case filter.ProtoICMP:
			reg.Collect(classICMP)
		default:
			reg.Collect(p.otherProto[r.Proto()])
		}
	}

	p.ranges = make([][]uint32, len(rules))
	for i := range rules {
		p.ranges[i] = reg.Range(i)
	}
	return nil
}

func (p *Proto) Compiled() filter.AttributeClassifier {
	return &protoClassifier{tcpTable: p.tcpTable, otherProto: p.otherProto, otherAny: p.otherAny}
}

func (p *Proto) Ranges() [][]uint32 {
	return p.ranges
}

type protoClassifier struct {
	tcpTable   *valuetable.Table
	otherProto map[filter.Proto]uint32
	otherAny   uint32
}

func (c *protoClassifier) Lookup(pkt *filter.Packet) uint32 {
	switch pkt.Proto {
	case filter.ProtoTCP:
		return c.tcpTable.Get(int(uint16(pkt.TCPFlags) & tcpFlagMask))
	case filter.ProtoUDP:
		return classUDP
	case filter.ProtoICMP:
		return classICMP
	default:
		if cls, ok := c.otherProto[pkt.Proto]; ok {
			return cls
		}
		return c.otherAny
	}
}

func (c *protoClassifier) NumClasses() int {
	return int(c.otherAny) + 1
}
