package classify

import (
	"net"

	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/lpm"
	"github.com/yanet-platform/filtercompiler/internal/rangeidx"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

// net6Bounds returns the closed [lo,hi] 16-byte network/broadcast interval
// a prefix covers.
func net6Bounds(n *net.IPNet) (lo, hi []byte) {
	ip16 := n.IP.To16()
	mask := n.Mask
	lo = make([]byte, 16)
	hi = make([]byte, 16)
	for i := 0; i < 16; i++ {
		lo[i] = ip16[i] & mask[i]
		hi[i] = ip16[i] | ^mask[i]
	}
	return lo, hi
}

// Net6 classifies packets by one IPv6 prefix attribute, using the
// split-merge technique: every IPv6 prefix, because it is a CIDR and not
// an arbitrary interval, decomposes into exactly one axis-aligned
// rectangle in (high-64-bits, low-64-bits) space — for prefix length
// n<=64 the high half is itself a prefix and the low half is unconstrained
// (the full 64-bit range); for n>64 the high half is one exact value and
// the low half is a prefix of length n-64. So two independent 64-bit range
// collectors (one per half) plus a 2-D value table composing them give the
// same equivalence classes a direct 128-bit LPM would, at a fraction of
// the memory.
type Net6 struct {
	side Side

	hiTree *lpm.Tree
	loTree *lpm.Tree
	table  *valuetable.Table // 2-D [K_hi+1][K_lo+1]; nil in the degenerate case

	kHi, kLo int

	ranges [][]uint32
}

func NewNet6(side Side) *Net6 {
	return &Net6{side: side}
}

func (n *Net6) netsOf(r *filter.Rule) []*net.IPNet {
	if n.side == SideSrc {
		return r.SrcNet6()
	}
	return r.DstNet6()
}

func (n *Net6) Init(rules []*filter.Rule) error {
	hiColl := rangeidx.New(8)
	loColl := rangeidx.New(8)
	handles := make([][]int, len(rules))
	for i, r := range rules {
		nets := n.netsOf(r)
		handles[i] = make([]int, len(nets))
		for j, net := range nets {
			lo, hi := net6Bounds(net)
			hHi := hiColl.Add(lo[0:8], hi[0:8])
			hLo := loColl.Add(lo[8:16], hi[8:16])
			if hHi != hLo {
				panic("classify: internal invariant violation: hi/lo collector handles diverged")
			}
			handles[i][j] = hHi
		}
	}

	hiTree, hiIdx := hiColl.Build()
	loTree, loIdx := loColl.Build()
	// shift raw interval indices up by one so that 0 is reserved,
	// uniformly, for "this half's LPM found no covering interval at all"
	// — otherwise that "not found" default would be indistinguishable
	// from a genuine interval index 0.
	hiTree.Remap(func(old uint32) uint32 { return old + 1 })
	loTree.Remap(func(old uint32) uint32 { return old + 1 })
	hiTree.Compact()
	loTree.Compact()

	n.hiTree = hiTree
	n.loTree = loTree
	n.kHi = hiIdx.Count() + 1
	n.kLo = loIdx.Count() + 1

	if hiIdx.Count() == 0 && loIdx.Count() == 0 {
		n.table = nil
		n.ranges = make([][]uint32, len(rules))
		for i := range rules {
			n.ranges[i] = []uint32{1}
		}
		return nil
	}

	table := valuetable.New(n.kHi, n.kLo)
	for i := range rules {
		table.NewGen()
		if hs := handles[i]; len(hs) > 0 {
			for _, h := range hs {
				sHi, eHi := hiIdx.Slice(h)
				sLo, eLo := loIdx.Slice(h)
				for hv := sHi + 1; hv < eHi+1; hv++ {
					for lv := sLo + 1; lv < eLo+1; lv++ {
						table.Touch(hv, lv)
					}
				}
			}
		} else {
			for hv := 0; hv < n.kHi; hv++ {
				for lv := 0; lv < n.kLo; lv++ {
					table.Touch(hv, lv)
				}
			}
		}
	}
	table.Compact()
	n.table = table

	reg := registry.New()
	for i := range rules {
		reg.Start()
		if hs := handles[i]; len(hs) > 0 {
			for _, h := range hs {
				sHi, eHi := hiIdx.Slice(h)
				sLo, eLo := loIdx.Slice(h)
				for hv := sHi + 1; hv < eHi+1; hv++ {
					for lv := sLo + 1; lv < eLo+1; lv++ {
						reg.Collect(table.Get(hv, lv))
					}
				}
			}
		} else {
			for hv := 0; hv < n.kHi; hv++ {
				for lv := 0; lv < n.kLo; lv++ {
					reg.Collect(table.Get(hv, lv))
				}
			}
		}
	}
	n.ranges = make([][]uint32, len(rules))
	for i := range rules {
		n.ranges[i] = reg.Range(i)
	}
	return nil
}

func (n *Net6) Compiled() filter.AttributeClassifier {
	numClasses := 2
	if n.table != nil {
		numClasses = int(n.table.MaxClass()) + 1
	}
	return &net6Classifier{
		side: n.side, hiTree: n.hiTree, loTree: n.loTree, table: n.table,
		degenerate: n.table == nil, numClasses: numClasses,
	}
}

func (n *Net6) Ranges() [][]uint32 {
	return n.ranges
}

type net6Classifier struct {
	side       Side
	hiTree     *lpm.Tree
	loTree     *lpm.Tree
	table      *valuetable.Table
	degenerate bool
	numClasses int
}

func (c *net6Classifier) Lookup(pkt *filter.Packet) uint32 {
	if c.degenerate {
		return 1
	}
	ip := pkt.SrcIP
	if c.side == SideDst {
		ip = pkt.DstIP
	}
	ip16 := ip.To16()
	if ip16 == nil {
		return 0
	}
	hv := c.hiTree.Lookup(ip16[0:8])
	lv := c.loTree.Lookup(ip16[8:16])
	return c.table.Get(int(hv), int(lv))
}

func (c *net6Classifier) NumClasses() int {
	return c.numClasses
}
