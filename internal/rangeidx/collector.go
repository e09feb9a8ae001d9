// Package rangeidx implements the range collector described by spec.md
// §4.3.e / §4.3.f: it turns a bag of byte-lexicographic intervals (CIDR
// prefixes normalized to [lo,hi]) into an LPM mapping any key to an
// ascending "interval index", plus a range index recording, for each
// original interval, the contiguous [start,stop) slice of interval indices
// it occupies. This is the basis of the IPv4 attribute plug-ins directly,
// and of the IPv6 split-merge trick (each 64-bit half is its own
// collector).
package rangeidx

import (
	"sort"

	"github.com/yanet-platform/filtercompiler/internal/lpm"
)

// Collector accumulates closed byte-intervals of a fixed width (4, 8, or 16
// bytes) and compiles them into an interval-index space on Build.
type Collector struct {
	width int
	los   [][]byte
	his   [][]byte
}

// New creates a Collector for intervals of the given byte width.
func New(width int) *Collector {
	return &Collector{width: width}
}

// Width returns the key width in bytes.
func (c *Collector) Width() int {
	return c.width
}

// Add registers the closed interval [lo,hi] and returns a handle used to
// retrieve its interval-index slice from the RangeIndex returned by Build.
func (c *Collector) Add(lo, hi []byte) int {
	if len(lo) != c.width || len(hi) != c.width {
		panic("rangeidx: key width mismatch")
	}
	c.los = append(c.los, append([]byte(nil), lo...))
	c.his = append(c.his, append([]byte(nil), hi...))
	return len(c.los) - 1
}

// RangeIndex maps each handle returned by Collector.Add to the half-open
// [start,stop) slice of interval indices it occupies in the compiled LPM.
type RangeIndex struct {
	starts []int
	stops  []int
	count  int
}

// Slice returns the [start,stop) interval-index range for handle.
func (r *RangeIndex) Slice(handle int) (start, stop int) {
	return r.starts[handle], r.stops[handle]
}

// Count returns K, the total number of distinct (covered) interval
// indices produced by Build — the width to use for the owning attribute's
// value table.
func (r *RangeIndex) Count() int {
	return r.count
}

type breakpointEvent struct {
	key   []byte
	delta int
}

// Build compiles the accumulated intervals into an LPM (mapping any key to
// its 0-based interval index, ascending) and a RangeIndex. Only regions
// actually covered by at least one added interval receive an interval
// index; uncovered gaps are simply absent from the LPM, so Lookup on a key
// in a gap returns 0 ("none") without consuming an index.
func (c *Collector) Build() (*lpm.Tree, *RangeIndex) {
	events := make(map[string]int)
	order := make([][]byte, 0, 2*len(c.los))

	addEvent := func(key []byte, delta int) {
		k := string(key)
		if _, ok := events[k]; !ok {
			order = append(order, key)
		}
		events[k] += delta
	}

	for i := range c.los {
		addEvent(c.los[i], +1)
		if next, ok := lpm.Increment(c.his[i]); ok {
			addEvent(next, -1)
		}
		// if hi is the domain maximum, no end event is ever emitted: the
		// interval's membership simply never decrements again, which
		// correctly keeps every subsequent atomic interval through the end
		// of the keyspace "covered" by this entry.
	}

	sort.Slice(order, func(i, j int) bool {
		return lessBytes(order[i], order[j])
	})

	tree := lpm.New(c.width)
	starts := make([]int, len(c.los))
	stops := make([]int, len(c.los))
	startOf := make(map[string]int)
	stopOf := make(map[string]int) // breakpoint key -> interval index whose hi+1 == this key

	active := 0
	count := 0
	maxKey := lpm.MaxKey(c.width)
	for i, bp := range order {
		active += events[string(bp)]

		var hi []byte
		atEnd := i == len(order)-1
		if !atEnd {
			hi = lpm.Decrement(order[i+1])
		} else {
			hi = maxKey
		}

		if active > 0 {
			tree.Insert(bp, hi, uint32(count))
			startOf[string(bp)] = count
			if next, ok := lpm.Increment(hi); ok {
				stopOf[string(next)] = count
			} else {
				stopOf["$end"] = count
			}
			count++
		}

		if atEnd {
			break
		}
	}

	for i := range c.los {
		s, ok := startOf[string(c.los[i])]
		if !ok {
			panic("rangeidx: internal invariant violation: interval start not found")
		}
		var e int
		if next, ok := lpm.Increment(c.his[i]); ok {
			idx, ok2 := stopOf[string(next)]
			if !ok2 {
				panic("rangeidx: internal invariant violation: interval stop not found")
			}
			e = idx
		} else {
			idx, ok2 := stopOf["$end"]
			if !ok2 {
				panic("rangeidx: internal invariant violation: interval stop not found")
			}
			e = idx
		}
		starts[i] = s
		stops[i] = e + 1
	}

	return tree, &RangeIndex{starts: starts, stops: stops, count: count}
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
