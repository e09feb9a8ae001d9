// Package registry implements the value registry: an ordered, per-rule
// sequence of ranges, each range being the set of class numbers on one
// attribute that a given rule's constraint covers.
package registry

// Registry accumulates one range per rule. Ranges are appended in rule
// priority order by calling Start followed by zero or more Collect calls.
type Registry struct {
	ranges [][]uint32
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Start begins a new range (for the next rule in priority order).
func (r *Registry) Start() {
	r.ranges = append(r.ranges, nil)
}

// Collect appends a class number to the range most recently started.
// Duplicates within a range are harmless and are not deduplicated here.
func (r *Registry) Collect(class uint32) {
	if len(r.ranges) == 0 {
		panic("registry: Collect before Start")
	}
	last := len(r.ranges) - 1
	r.ranges[last] = append(r.ranges[last], class)
}

// CollectAll appends every class in the given slice to the current range.
func (r *Registry) CollectAll(classes []uint32) {
	if len(r.ranges) == 0 {
		panic("registry: CollectAll before Start")
	}
	last := len(r.ranges) - 1
	r.ranges[last] = append(r.ranges[last], classes...)
}

// Len returns the number of ranges (rules) recorded so far.
func (r *Registry) Len() int {
	return len(r.ranges)
}

// Range returns the class numbers collected for rule i, in collection
// order (possibly with duplicates).
func (r *Registry) Range(i int) []uint32 {
	return r.ranges[i]
}

// DomainClasses enumerates every value in a 1-D domain of the given size
// and returns the class number classOf reports for each. This is the
// shared primitive every attribute plug-in uses to fill in a wildcard
// (ANY) rule's range ("collect the class of every device id", "Wildcard
// rules contribute all classes", ...): it is plain domain enumeration, not
// an enumeration of class numbers 1..maxClass, because untouched domain
// values legitimately classify to 0 and a wildcard must still match them
// (spec.md §8 P6). Enumerating class numbers instead of domain values
// would silently drop those untouched values from the wildcard's range.
func DomainClasses(domainSize int, classOf func(i int) uint32) []uint32 {
	out := make([]uint32, domainSize)
	for i := 0; i < domainSize; i++ {
		out[i] = classOf(i)
	}
	return out
}

// RangeClasses enumerates every value in the inclusive [lo,hi] sub-range of
// a 1-D domain and returns the class number classOf reports for each. Used
// by plug-ins whose rules carry a set of ranges rather than the whole
// domain (vlan, port): each listed range contributes its own RangeClasses
// call to the rule's registry entry.
func RangeClasses(lo, hi int, classOf func(i int) uint32) []uint32 {
	if hi < lo {
		return nil
	}
	out := make([]uint32, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, classOf(i))
	}
	return out
}
