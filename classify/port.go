package classify

import (
	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

const portDomain = 1 << 16

// Side selects which of a packet's two port fields a Port plug-in reads.
type Side int

const (
	SideSrc Side = iota
	SideDst
)

// Port classifies packets by one port attribute (source or destination,
// selected by Side) against a rule's set of port ranges. A range spanning
// the entire 0..65535 domain (whether explicit or the implicit wildcard
// when a rule lists no ranges at all) is never touched in the value
// table — touching all 65536 cells would merely mark every cell as
// belonging to this rule's generation without distinguishing any of them
// — but the registry still walks the whole domain to build that rule's
// range, so an explicit full-range entry and an implicit wildcard produce
// identical per-port classes (see registry.DomainClasses).
type Port struct {
	side   Side
	table  *valuetable.Table
	ranges [][]uint32
}

func NewPort(side Side) *Port {
	return &Port{side: side}
}

func (p *Port) rangesOf(r *filter.Rule) []filter.PortRange {
	if p.side == SideSrc {
		return r.SrcPorts()
	}
	return r.DstPorts()
}

func (p *Port) Init(rules []*filter.Rule) error {
	p.table = valuetable.New(portDomain)

	for _, r := range rules {
		p.table.NewGen()
		for _, rng := range p.rangesOf(r) {
			if rng.IsFull() {
				continue
			}
			for v := int(rng.From); v <= int(rng.To); v++ {
				p.table.Touch(v)
			}
		}
	}
	p.table.Compact()

	reg := registry.New()
	for _, r := range rules {
		reg.Start()
		for _, rng := range p.rangesOf(r) {
			if rng.IsFull() {
				reg.CollectAll(registry.DomainClasses(portDomain, func(i int) uint32 {
					return p.table.Get(i)
				}))
				continue
			}
			reg.CollectAll(registry.RangeClasses(int(rng.From), int(rng.To), func(i int) uint32 {
				return p.table.Get(i)
			}))
		}
	}

	p.ranges = make([][]uint32, len(rules))
	for i := range rules {
		p.ranges[i] = reg.Range(i)
	}
	return nil
}

func (p *Port) Compiled() filter.AttributeClassifier {
	return &portClassifier{side: p.side, table: p.table}
}

func (p *Port) Ranges() [][]uint32 {
	return p.ranges
}

type portClassifier struct {
	side  Side
	table *valuetable.Table
}

func (c *portClassifier) Lookup(pkt *filter.Packet) uint32 {
	port := pkt.SrcPort
	if c.side == SideDst {
		port = pkt.DstPort
	}
	return c.table.Get(int(port))
}

func (c *portClassifier) NumClasses() int {
	return int(c.table.MaxClass()) + 1
}
