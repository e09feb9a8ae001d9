package classify

import (
	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

// vlanDomain is the full 802.1Q tag space, {0,...,4095}.
const vlanDomain = 1 << 12

// VLAN classifies packets by 802.1Q tag against a rule's set of [lo,hi]
// VLAN ranges (spec.md §4.3.b). The whole domain fits directly in a value
// table, so no "named values + other bucket" indirection is needed the
// way Device uses one for its unbounded id space.
type VLAN struct {
	table  *valuetable.Table
	reg    *registry.Registry
	ranges [][]uint32
}

// NewVLAN returns an uninitialized VLAN plug-in.
func NewVLAN() *VLAN {
	return &VLAN{}
}

func (v *VLAN) Init(rules []*filter.Rule) error {
	v.table = valuetable.New(vlanDomain)

	for _, r := range rules {
		v.table.NewGen()
		if ranges := r.VLANs(); len(ranges) > 0 {
			for _, rg := range ranges {
				for tag := int(rg.Lo); tag <= int(rg.Hi); tag++ {
					v.table.Touch(tag)
				}
			}
		} else {
			for tag := 0; tag < vlanDomain; tag++ {
				v.table.Touch(tag)
			}
		}
	}
	v.table.Compact()

	v.reg = registry.New()
	for _, r := range rules {
		v.reg.Start()
		if ranges := r.VLANs(); len(ranges) > 0 {
			for _, rg := range ranges {
				v.reg.CollectAll(registry.RangeClasses(int(rg.Lo), int(rg.Hi), func(i int) uint32 {
					return v.table.Get(i)
				}))
			}
		} else {
			v.reg.CollectAll(registry.DomainClasses(vlanDomain, func(i int) uint32 {
				return v.table.Get(i)
			}))
		}
	}

	v.ranges = make([][]uint32, len(rules))
	for i := range rules {
		v.ranges[i] = v.reg.Range(i)
	}
	return nil
}

func (v *VLAN) Compiled() filter.AttributeClassifier {
	return &vlanClassifier{table: v.table}
}

func (v *VLAN) Ranges() [][]uint32 {
	return v.ranges
}

type vlanClassifier struct {
	table *valuetable.Table
}

func (c *vlanClassifier) Lookup(pkt *filter.Packet) uint32 {
	if int(pkt.VLAN) >= vlanDomain {
		return 0
	}
	return c.table.Get(int(pkt.VLAN))
}

func (c *vlanClassifier) NumClasses() int {
	return int(c.table.MaxClass()) + 1
}
