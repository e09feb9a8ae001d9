// Copyright (c) 2026 The YANET filter compiler authors. All rights reserved.

// Package filter implements the YANET filter compiler: it turns a
// priority-ordered list of packet-classification rules into a set of
// per-attribute lookup structures plus a dense cross-product action table,
// so that classifying a packet against the whole rule set reduces to one
// O(1) lookup per attribute and one final O(1) table lookup.
//
// The compiler admits rules over a fixed attribute set: input device,
// VLAN, L4 protocol and TCP flags, source/destination IPv4 prefix,
// source/destination IPv6 prefix, and source/destination L4 port range. It
// is not a general predicate engine; extending the attribute set means
// adding a new plug-in under the classify package.
//
// Compilation (Compile, in the driver package) is a pure, single-threaded
// function of its rule slice: given the same rules it produces
// byte-identical output regardless of allocator address. The resulting
// CompiledFilter is read-only and safe for an arbitrary number of
// concurrent Lookup calls; no lookup path allocates, blocks, or can fail.
package filter
