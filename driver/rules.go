package driver

import (
	"fmt"

	"github.com/yanet-platform/filtercompiler/filter"
)

// validateRules checks each rule for internal consistency (inverted port
// ranges, prefix/address-family mismatches, bad VLAN ranges) and drops any
// that fail: an invalid rule simply never matches, rather than aborting
// the whole compile. No error is returned for a dropped rule.
//
// It returns the surviving rules, still in priority order, alongside
// indexMap so callers can translate a surviving rule's position back to
// its original index in the caller's input slice — the index
// CompiledFilter.Lookup must return.
func validateRules(rules []*filter.Rule) ([]*filter.Rule, []int, error) {
	valid := make([]*filter.Rule, 0, len(rules))
	indexMap := make([]int, 0, len(rules))

	for i, r := range rules {
		if err := validateRule(r); err != nil {
			continue // InvalidRule: skip, non-fatal (spec.md §7)
		}
		valid = append(valid, r)
		indexMap = append(indexMap, i)
	}
	return valid, indexMap, nil
}

func validateRule(r *filter.Rule) error {
	for _, sp := range r.SrcPorts() {
		if sp.From > sp.To {
			return fmt.Errorf("source port range inverted: %d > %d", sp.From, sp.To)
		}
	}
	for _, dp := range r.DstPorts() {
		if dp.From > dp.To {
			return fmt.Errorf("destination port range inverted: %d > %d", dp.From, dp.To)
		}
	}
	for _, n := range r.SrcNet4() {
		if len(n.IP.To4()) != 4 {
			return fmt.Errorf("source IPv4 prefix is not a valid 4-byte address")
		}
	}
	for _, n := range r.DstNet4() {
		if len(n.IP.To4()) != 4 {
			return fmt.Errorf("destination IPv4 prefix is not a valid 4-byte address")
		}
	}
	for _, n := range r.SrcNet6() {
		if n.IP.To4() != nil {
			return fmt.Errorf("source IPv6 prefix is actually an IPv4 address")
		}
	}
	for _, n := range r.DstNet6() {
		if n.IP.To4() != nil {
			return fmt.Errorf("destination IPv6 prefix is actually an IPv4 address")
		}
	}
	for _, v := range r.VLANs() {
		if v.Lo > v.Hi || v.Hi > 4095 {
			return fmt.Errorf("VLAN range [%d,%d] invalid or out of [0,4095]", v.Lo, v.Hi)
		}
	}
	return nil
}
