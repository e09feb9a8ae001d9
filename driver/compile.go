// Package driver orchestrates the classify package's attribute plug-ins
// into one CompiledFilter: it owns the one place in the whole compiler
// that knows the full attribute list for a given Flavor, runs each
// plug-in's Init over the rule set, and folds their per-rule ranges into
// the cross-product action table. Everything upstream (value tables,
// registries, the range collector, LPM) only ever sees one attribute at a
// time; only Compile sees all of them together.
package driver

import (
	"fmt"

	"github.com/yanet-platform/filtercompiler/classify"
	"github.com/yanet-platform/filtercompiler/filter"
)

// Compile builds a CompiledFilter from rules (read in priority order: rule
// i beats rule j for i<j whenever both match the same packet). Compile is
// pure and single-threaded: given the same rules and flavor it always
// produces the same action table contents, independent of the allocator
// it's given.
//
// A rule whose own constraints are internally contradictory (e.g. an
// inverted port range) is skipped rather than aborting the whole compile;
// no error is returned for it and the caller is not told which rules were
// dropped. Any other failure (allocation, overflow, or an internal consistency
// check) aborts immediately and returns a filter.CompileError of the
// matching Kind, with no partial CompiledFilter returned.
func Compile(rules []*filter.Rule, flavor filter.Flavor, alloc filter.Allocator) (*filter.CompiledFilter, error) {
	valid, indexMap, err := validateRules(rules)
	if err != nil {
		return nil, err
	}

	plugins := make(map[int]classify.Plugin)
	for _, attr := range flavor.Attrs() {
		plugins[attr] = newPlugin(attr, flavor)
	}

	attrs := flavor.Attrs()
	classifiers := make([]filter.AttributeClassifier, len(attrs))
	perAttrRanges := make([][][]uint32, len(attrs))

	for i, attr := range attrs {
		p := plugins[attr]
		if err := p.Init(valid); err != nil {
			return nil, NewInternalError(fmt.Errorf("attribute %d: %w", attr, err))
		}
		classifiers[i] = p.Compiled()
		// a wildcard rule's range lists one class per domain value (65536
		// entries on a port axis), so duplicates are dropped here before
		// fillCrossProduct walks the product of the ranges.
		ranges := p.Ranges()
		perAttrRanges[i] = make([][]uint32, len(ranges))
		for r, rng := range ranges {
			seen := make(map[uint32]bool, len(rng))
			for _, cls := range rng {
				if !seen[cls] {
					seen[cls] = true
					perAttrRanges[i][r] = append(perAttrRanges[i][r], cls)
				}
			}
		}
	}

	dims := make([]int, len(attrs))
	size := 1
	for i, c := range classifiers {
		dims[i] = c.NumClasses()
		size *= dims[i]
	}
	if size <= 0 {
		return nil, NewInternalError(fmt.Errorf("degenerate action table shape %v", dims))
	}

	cells := make([]uint32, size)
	idx := make([]int, len(attrs))
	for ruleIdx := range valid {
		fillCrossProduct(cells, dims, idx, 0, perAttrRanges, ruleIdx, uint32(indexMap[ruleIdx]+1))
	}

	action, err := filter.BuildActionTable(dims, cells, alloc)
	if err != nil {
		return nil, err
	}

	return filter.NewCompiledFilter(flavor, classifiers, action, alloc), nil
}

// fillCrossProduct walks the Cartesian product of rule ruleIdx's
// per-attribute class ranges (perAttrRanges[attr][ruleIdx]), writing
// action into every combination whose cell is still 0. Rules are
// processed in ascending priority order by the caller, so the first write
// to any cell is always the highest-priority match; later rules must
// never overwrite an already-claimed cell.
func fillCrossProduct(cells []uint32, dims []int, idx []int, attr int, perAttrRanges [][][]uint32, ruleIdx int, action uint32) {
	if attr == len(dims) {
		off := 0
		stride := 1
		for i := len(dims) - 1; i >= 0; i-- {
			off += idx[i] * stride
			stride *= dims[i]
		}
		if cells[off] == 0 {
			cells[off] = action
		}
		return
	}
	for _, cls := range perAttrRanges[attr][ruleIdx] {
		idx[attr] = int(cls)
		fillCrossProduct(cells, dims, idx, attr+1, perAttrRanges, ruleIdx, action)
	}
}

func newPlugin(attr int, flavor filter.Flavor) classify.Plugin {
	switch attr {
	case filter.AttrDevice:
		return classify.NewDevice()
	case filter.AttrVLAN:
		return classify.NewVLAN()
	case filter.AttrProto:
		return classify.NewProto()
	case filter.AttrSrcPort:
		return classify.NewPort(classify.SideSrc)
	case filter.AttrDstPort:
		return classify.NewPort(classify.SideDst)
	case filter.AttrSrcNet:
		if flavor == filter.FlavorIPv6 {
			return classify.NewNet6(classify.SideSrc)
		}
		return classify.NewNet4(classify.SideSrc)
	case filter.AttrDstNet:
		if flavor == filter.FlavorIPv6 {
			return classify.NewNet6(classify.SideDst)
		}
		return classify.NewNet4(classify.SideDst)
	default:
		panic(fmt.Sprintf("driver: unknown attribute %d", attr))
	}
}
