package filter

import (
	"errors"
	"fmt"
)

// Kind classifies a CompileError so callers can decide whether compilation
// should be retried, whether the offending rule can simply be dropped, or
// whether the process should abort.
type Kind int

const (
	// KindOutOfMemory means the allocator could not satisfy a request.
	// Compile has already rolled back; the caller may retry with a larger
	// allocator or a smaller rule set.
	KindOutOfMemory Kind = iota
	// KindAttributeOverflow means one attribute's domain produced more
	// equivalence classes or interval indices than its value table can
	// address. Compile has rolled back; the rule set must be reduced or
	// split.
	KindAttributeOverflow
	// KindInvalidRule means rule input was malformed (e.g. a truncated or
	// corrupt encoded rule set, prefix length out of range). DecodeRules
	// returns it and rejects the whole input. Compile does not return it:
	// a rule with contradictory constraints is dropped without an error.
	KindInvalidRule
	// KindInternalInvariantViolation means the compiler detected its own
	// internal state was inconsistent (a bug, not a bad input). Compile
	// aborts immediately; callers should treat this as unrecoverable.
	KindInternalInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out of memory"
	case KindAttributeOverflow:
		return "attribute overflow"
	case KindInvalidRule:
		return "invalid rule"
	case KindInternalInvariantViolation:
		return "internal invariant violation"
	default:
		return "unknown"
	}
}

// Sentinel errors so callers can classify with errors.Is without depending
// on CompileError's shape.
var (
	ErrOutOfMemory                = errors.New("filter: out of memory")
	ErrAttributeOverflow           = errors.New("filter: attribute overflow")
	ErrInvalidRule                 = errors.New("filter: invalid rule")
	ErrInternalInvariantViolation  = errors.New("filter: internal invariant violation")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindOutOfMemory:
		return ErrOutOfMemory
	case KindAttributeOverflow:
		return ErrAttributeOverflow
	case KindInvalidRule:
		return ErrInvalidRule
	case KindInternalInvariantViolation:
		return ErrInternalInvariantViolation
	default:
		return errors.New("filter: unknown compile error")
	}
}

// CompileError reports a failure during Compile, including which rule (by
// priority index into the input slice) and attribute triggered it, when
// known.
type CompileError struct {
	Kind     Kind
	RuleIdx  int // -1 if not rule-specific
	Attr     string // attribute name, "" if not attribute-specific
	Err      error  // wrapped underlying cause, may be nil
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("filter: compile failed: %s", e.Kind)
	if e.Attr != "" {
		msg += fmt.Sprintf(" (attribute %s)", e.Attr)
	}
	if e.RuleIdx >= 0 {
		msg += fmt.Sprintf(" (rule %d)", e.RuleIdx)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is/errors.As match against both the specific
// underlying cause (if any) and the Kind's sentinel error.
func (e *CompileError) Unwrap() []error {
	sentinel := sentinelFor(e.Kind)
	if e.Err != nil {
		return []error{sentinel, e.Err}
	}
	return []error{sentinel}
}

// NewCompileError builds a CompileError not tied to a specific rule.
func NewCompileError(kind Kind, attr string, cause error) *CompileError {
	return &CompileError{Kind: kind, RuleIdx: -1, Attr: attr, Err: cause}
}

// NewRuleError builds a CompileError tied to rule index idx.
func NewRuleError(kind Kind, idx int, attr string, cause error) *CompileError {
	return &CompileError{Kind: kind, RuleIdx: idx, Attr: attr, Err: cause}
}
