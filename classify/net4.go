package classify

import (
	"net"

	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/lpm"
	"github.com/yanet-platform/filtercompiler/internal/rangeidx"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

// net4Bounds returns the closed [lo,hi] byte interval (4-byte, big-endian)
// a prefix covers: its network address and its broadcast address.
func net4Bounds(n *net.IPNet) (lo, hi []byte) {
	ip4 := n.IP.To4()
	mask := n.Mask
	lo = make([]byte, 4)
	hi = make([]byte, 4)
	for i := 0; i < 4; i++ {
		lo[i] = ip4[i] & mask[i]
		hi[i] = ip4[i] | ^mask[i]
	}
	return lo, hi
}

// Net4 classifies packets by one IPv4 prefix attribute (source or
// destination). It composes the range collector, LPM, and value table:
// overlapping rule prefixes are first split into disjoint atomic
// intervals (internal/rangeidx), each atomic interval becomes one value-
// table cell touched once per covering rule's generation, and the
// compacted classes are written straight back into the LPM via Remap so
// Lookup is a single tree walk. A rule may list a set of CIDRs (spec.md
// §3); each contributes its own atomic-interval slice to the rule's
// generation and registry range.
type Net4 struct {
	side   Side
	tree   *lpm.Tree
	table  *valuetable.Table // nil in the degenerate no-prefixes case
	ranges [][]uint32
}

func NewNet4(side Side) *Net4 {
	return &Net4{side: side}
}

func (n *Net4) netsOf(r *filter.Rule) []*net.IPNet {
	if n.side == SideSrc {
		return r.SrcNet4()
	}
	return r.DstNet4()
}

func (n *Net4) Init(rules []*filter.Rule) error {
	coll := rangeidx.New(4)
	handles := make([][]int, len(rules))
	for i, r := range rules {
		nets := n.netsOf(r)
		handles[i] = make([]int, len(nets))
		for j, ipnet := range nets {
			lo, hi := net4Bounds(ipnet)
			handles[i][j] = coll.Add(lo, hi)
		}
	}

	tree, idx := coll.Build()
	k := idx.Count()

	if k == 0 {
		// no rule constrains this attribute at all: every rule either
		// doesn't mention it, which is only possible if it also never
		// restricts it, so every (necessarily wildcard) rule's range is
		// the single always-matching class.
		n.tree = tree
		n.table = nil
		n.ranges = make([][]uint32, len(rules))
		for i := range rules {
			n.ranges[i] = []uint32{1}
		}
		return nil
	}

	table := valuetable.New(k)
	for i := range rules {
		table.NewGen()
		if hs := handles[i]; len(hs) > 0 {
			for _, h := range hs {
				s, e := idx.Slice(h)
				for v := s; v < e; v++ {
					table.Touch(v)
				}
			}
		} else {
			for v := 0; v < k; v++ {
				table.Touch(v)
			}
		}
	}
	table.Compact()

	tree.Remap(func(old uint32) uint32 { return table.Get(int(old)) })
	tree.Compact()

	reg := registry.New()
	for i := range rules {
		reg.Start()
		if hs := handles[i]; len(hs) > 0 {
			for _, h := range hs {
				s, e := idx.Slice(h)
				for v := s; v < e; v++ {
					reg.Collect(table.Get(v))
				}
			}
		} else {
			// ANY on this attribute: every class the attribute's domain
			// can produce, including class 0 — Lookup legitimately
			// returns 0 for an address that falls inside no rule's
			// prefix at all (the LPM's "no covering interval" sentinel),
			// and a wildcard rule must still claim that address
			// (spec.md §8 P1/P6). The value table itself never models
			// this "outside every prefix" case (it only has one cell per
			// atomic interval actually carved out by some rule's CIDR),
			// so class 0 has to be added explicitly rather than falling
			// out of DomainClasses.
			reg.Collect(0)
			reg.CollectAll(registry.DomainClasses(k, func(v int) uint32 {
				return table.Get(v)
			}))
		}
	}

	n.tree = tree
	n.table = table
	n.ranges = make([][]uint32, len(rules))
	for i := range rules {
		n.ranges[i] = reg.Range(i)
	}
	return nil
}

func (n *Net4) Compiled() filter.AttributeClassifier {
	numClasses := 2
	if n.table != nil {
		numClasses = int(n.table.MaxClass()) + 1
	}
	return &net4Classifier{side: n.side, tree: n.tree, degenerate: n.table == nil, numClasses: numClasses}
}

func (n *Net4) Ranges() [][]uint32 {
	return n.ranges
}

type net4Classifier struct {
	side       Side
	tree       *lpm.Tree
	degenerate bool
	numClasses int
}

func (c *net4Classifier) Lookup(pkt *filter.Packet) uint32 {
	if c.degenerate {
		return 1
	}
	ip := pkt.SrcIP
	if c.side == SideDst {
		ip = pkt.DstIP
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return c.tree.Lookup(ip4)
}

func (c *net4Classifier) NumClasses() int {
	return c.numClasses
}
