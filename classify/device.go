package classify

import (
	"github.com/yanet-platform/filtercompiler/filter"
	"github.com/yanet-platform/filtercompiler/internal/registry"
	"github.com/yanet-platform/filtercompiler/internal/valuetable"
)

// Device classifies packets by input device id. Only device ids that
// appear in at least one rule's device set get their own equivalence
// class slot; every other id shares one "other devices" slot, since no
// rule can tell them apart.
type Device struct {
	ids    map[int]int // device id -> domain index
	other  int         // domain index for "any device not named by a rule"
	table  *valuetable.Table
	reg    *registry.Registry
	ranges [][]uint32
}

// NewDevice returns an uninitialized Device plug-in.
func NewDevice() *Device {
	return &Device{}
}

func (d *Device) Init(rules []*filter.Rule) error {
	d.ids = make(map[int]int)
	for _, r := range rules {
		for _, id := range r.Devices() {
			if _, seen := d.ids[id]; !seen {
				d.ids[id] = len(d.ids)
			}
		}
	}
	d.other = len(d.ids)
	domainSize := d.other + 1

	d.table = valuetable.New(domainSize)

	for _, r := range rules {
		d.table.NewGen()
		if ids := r.Devices(); len(ids) > 0 {
			for _, id := range ids {
				d.table.Touch(d.ids[id])
			}
		} else {
			for i := 0; i < domainSize; i++ {
				d.table.Touch(i)
			}
		}
	}

	d.table.Compact()

	d.reg = registry.New()
	for _, r := range rules {
		d.reg.Start()
		if ids := r.Devices(); len(ids) > 0 {
			for _, id := range ids {
				d.reg.Collect(d.table.Get(d.ids[id]))
			}
		} else {
			d.reg.CollectAll(registry.DomainClasses(domainSize, func(i int) uint32 {
				return d.table.Get(i)
			}))
		}
	}

	d.ranges = make([][]uint32, len(rules))
	for i := range rules {
		d.ranges[i] = d.reg.Range(i)
	}
	return nil
}

func (d *Device) Compiled() filter.AttributeClassifier {
	return &deviceClassifier{ids: d.ids, other: d.other, table: d.table}
}

func (d *Device) Ranges() [][]uint32 {
	return d.ranges
}

type deviceClassifier struct {
	ids   map[int]int
	other int
	table *valuetable.Table
}

func (c *deviceClassifier) Lookup(pkt *filter.Packet) uint32 {
	idx, ok := c.ids[pkt.Device]
	if !ok {
		idx = c.other
	}
	return c.table.Get(idx)
}

func (c *deviceClassifier) NumClasses() int {
	return int(c.table.MaxClass()) + 1
}
