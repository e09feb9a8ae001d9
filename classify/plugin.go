// Package classify implements the attribute plug-ins: one per rule
// attribute (device, VLAN, L4 protocol/TCP flags, port ranges, IPv4/IPv6
// prefixes), each reducing its attribute's whole value domain to a small
// number of equivalence classes. The driver package composes them into
// the cross-product action table; filter.CompiledFilter only ever calls
// their compiled Lookup method.
//
// Each plug-in factors into two phases mirroring the value-table /
// registry split: Init walks the rule set, building a Compiled classifier
// plus an internal/registry range per rule (exposed via Ranges()); the
// Compiled classifier's Lookup classifies a live packet. This mirrors the teacher's own capability-composition style
// (see ndisapi_interface.go's NdisApiAdapter/NdisApiFastIO/... split):
// rather than one fat interface, each plug-in composes the same three
// small capabilities.
package classify

import "github.com/yanet-platform/filtercompiler/filter"

// Plugin is the capability set every attribute plug-in implements.
type Plugin interface {
	// Init builds the plug-in's compiled classifier from the full,
	// priority-ordered rule set. It must be called exactly once, before
	// any Lookup or Ranges call.
	Init(rules []*filter.Rule) error
	// Compiled returns the attribute classifier to hand to
	// filter.NewCompiledFilter. Valid only after Init.
	Compiled() filter.AttributeClassifier
	// Ranges returns, per rule in the same order passed to Init, the list
	// of equivalence classes that rule's constraint on this attribute
	// covers. Valid only after Init.
	Ranges() [][]uint32
}
